package model

type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusAbandoned  SessionStatus = "ABANDONED"
)

type CookResult string

const (
	CookResultSuccess CookResult = "SUCCESS"
	CookResultFailed  CookResult = "FAILED"
)

// SessionStatus maps a terminal outcome to the session's terminal
// status. FAILED shares ABANDONED with walked-away sessions; the
// record's result column keeps the two distinguishable.
func (r CookResult) SessionStatus() SessionStatus {
	if r == CookResultSuccess {
		return SessionStatusCompleted
	}
	return SessionStatusAbandoned
}

type DishSort string

const (
	DishSortPopularToday DishSort = "popular_today"
	DishSortLatest       DishSort = "latest"
	DishSortDurationAsc  DishSort = "duration_asc"
	DishSortDurationDesc DishSort = "duration_desc"
)

func ValidDishSort(s string) bool {
	switch DishSort(s) {
	case DishSortPopularToday, DishSortLatest, DishSortDurationAsc, DishSortDurationDesc:
		return true
	}
	return false
}
