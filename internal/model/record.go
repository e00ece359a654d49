package model

import "time"

// CookRecord is the single terminal outcome row of a session, as
// returned by the completion transaction. Created once, never mutated.
type CookRecord struct {
	ID        int64      `db:"id" json:"id"`
	SessionID int64      `db:"session_id" json:"sessionId"`
	DishID    int64      `db:"dish_id" json:"dishId"`
	Result    CookResult `db:"result" json:"result"`
}

type CompleteSessionParams struct {
	SessionID int64
	UserID    *int64
	Result    CookResult
	Rating    *int
	Note      *string
}

// SessionForComplete is the locked session row read at the top of the
// completion transaction.
type SessionForComplete struct {
	ID     int64  `db:"id"`
	DishID int64  `db:"dish_id"`
	UserID *int64 `db:"user_id"`
}

// CompletionOutcome reports what the completion transaction committed.
// IsNewRecord is false when an earlier completion already created the
// record and this call observed it.
type CompletionOutcome struct {
	SessionID   int64
	RecordID    int64
	DishID      int64
	Result      CookResult
	IsNewRecord bool
}

type UserCookRecord struct {
	RecordID int64      `db:"record_id" json:"record_id"`
	DishID   int64      `db:"dish_id" json:"dish_id"`
	DishName string     `db:"dish_name" json:"dish_name"`
	Result   CookResult `db:"result" json:"result"`
	Rating   *int       `db:"rating" json:"rating"`
	CookedAt time.Time  `db:"cooked_at" json:"cooked_at"`
}
