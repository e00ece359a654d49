package model

import "time"

type CookSession struct {
	ID                  int64         `db:"id" json:"id"`
	UserID              *int64        `db:"user_id" json:"userId,omitempty"`
	DishID              int64         `db:"dish_id" json:"dishId"`
	Status              SessionStatus `db:"status" json:"status"`
	CurrentStepNo       int           `db:"current_step_no" json:"currentStepNo"`
	StartedAt           time.Time     `db:"started_at" json:"startedAt"`
	FinishedAt          *time.Time    `db:"finished_at" json:"finishedAt,omitempty"`
	TotalElapsedSeconds int           `db:"total_elapsed_seconds" json:"totalElapsedSeconds"`
}

// CookSessionStep is one step's snapshot, copied from the dish's step
// definitions when the session starts. Later dish edits never touch it.
type CookSessionStep struct {
	ID                   int64      `db:"id" json:"id"`
	SessionID            int64      `db:"session_id" json:"sessionId"`
	DishStepID           int64      `db:"dish_step_id" json:"dishStepId"`
	StepNo               int        `db:"step_no" json:"stepNo"`
	TimerSecondsSnapshot int        `db:"timer_seconds_snapshot" json:"timerSecondsSnapshot"`
	StartedAt            *time.Time `db:"started_at" json:"startedAt,omitempty"`
	FinishedAt           *time.Time `db:"finished_at" json:"finishedAt,omitempty"`
	ElapsedSeconds       *int       `db:"elapsed_seconds" json:"elapsedSeconds,omitempty"`
	ReminderFired        bool       `db:"reminder_fired" json:"reminderFired"`
}

// SessionRuntime is the authoritative view a timer decision needs: the
// session row joined with the current step's snapshot and the highest
// step number. The nullable columns cover sessions whose current step
// row is missing (never happens for well-formed data, but the join is
// LEFT so reads can't fail on it).
type SessionRuntime struct {
	SessionID               int64         `db:"session_id"`
	DishID                  int64         `db:"dish_id"`
	Status                  SessionStatus `db:"status"`
	CurrentStepNo           int           `db:"current_step_no"`
	CurrentStepTimerSeconds *int          `db:"current_step_timer_seconds"`
	MaxStepNo               *int          `db:"max_step_no"`
}

func (r *SessionRuntime) StepTimerSeconds() int {
	if r.CurrentStepTimerSeconds == nil {
		return 0
	}
	return *r.CurrentStepTimerSeconds
}

func (r *SessionRuntime) MaxStep() int {
	if r.MaxStepNo == nil {
		return r.CurrentStepNo
	}
	return *r.MaxStepNo
}

type StepTimer struct {
	StepNo       int `db:"step_no"`
	TimerSeconds int `db:"timer_seconds_snapshot"`
}

type TimerState struct {
	RemainingSeconds int  `json:"remaining_seconds"`
	IsPaused         bool `json:"is_paused"`
}

// SessionStateCache is the parsed cached timer snapshot. It is advisory:
// trusted only while CurrentStepNo matches the session's current step.
type SessionStateCache struct {
	CurrentStepNo    int
	RemainingSeconds int
	IsPaused         bool
}
