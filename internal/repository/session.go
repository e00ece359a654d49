package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chefascend/cook-server-go/internal/database"
	"github.com/chefascend/cook-server-go/internal/model"
)

type SessionRepository interface {
	Create(ctx context.Context, dishID int64, userID *int64, firstStepNo int) (*model.CookSession, error)
	SnapshotSteps(ctx context.Context, sessionID, dishID int64) error
	FindRuntimeByID(ctx context.Context, sessionID int64) (*model.SessionRuntime, error)
	GetStepTimer(ctx context.Context, sessionID int64, stepNo int) (*model.StepTimer, error)
	GetNextStepTimer(ctx context.Context, sessionID int64, stepNo int) (*model.StepTimer, error)
	MarkStepStarted(ctx context.Context, sessionID int64, stepNo int) error
	MarkStepCompleted(ctx context.Context, sessionID int64, stepNo int) (bool, error)
	UpdateCurrentStep(ctx context.Context, sessionID int64, stepNo int) error
	RefreshTotalElapsed(ctx context.Context, sessionID int64) error
	AbandonStale(ctx context.Context, cutoff time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRepo struct {
	db database.DBTX
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) Create(ctx context.Context, dishID int64, userID *int64, firstStepNo int) (*model.CookSession, error) {
	var session model.CookSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO cook_sessions (user_id, dish_id, status, current_step_no)
		VALUES ($1, $2, 'IN_PROGRESS', $3)
		RETURNING *
	`, userID, dishID, firstStepNo)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SnapshotSteps copies the dish's step definitions into the session so
// later dish edits never affect an in-flight session.
func (r *sessionRepo) SnapshotSteps(ctx context.Context, sessionID, dishID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cook_session_steps (session_id, dish_step_id, step_no, timer_seconds_snapshot)
		SELECT $1, ds.id, ds.step_no, ds.timer_seconds
		FROM dish_steps ds
		WHERE ds.dish_id = $2
		ORDER BY ds.step_no ASC
	`, sessionID, dishID)
	return err
}

func (r *sessionRepo) FindRuntimeByID(ctx context.Context, sessionID int64) (*model.SessionRuntime, error) {
	var runtime model.SessionRuntime
	err := r.db.GetContext(ctx, &runtime, `
		SELECT
			s.id AS session_id,
			s.dish_id,
			s.status,
			s.current_step_no,
			css.timer_seconds_snapshot AS current_step_timer_seconds,
			ms.max_step_no
		FROM cook_sessions s
		LEFT JOIN cook_session_steps css
			ON css.session_id = s.id
		   AND css.step_no = s.current_step_no
		LEFT JOIN LATERAL (
			SELECT MAX(step_no)::int AS max_step_no
			FROM cook_session_steps csi
			WHERE csi.session_id = s.id
		) ms ON TRUE
		WHERE s.id = $1
		LIMIT 1
	`, sessionID)
	return HandleNotFound(&runtime, err)
}

func (r *sessionRepo) GetStepTimer(ctx context.Context, sessionID int64, stepNo int) (*model.StepTimer, error) {
	var timer model.StepTimer
	err := r.db.GetContext(ctx, &timer, `
		SELECT step_no, timer_seconds_snapshot
		FROM cook_session_steps
		WHERE session_id = $1
		  AND step_no = $2
		LIMIT 1
	`, sessionID, stepNo)
	return HandleNotFound(&timer, err)
}

func (r *sessionRepo) GetNextStepTimer(ctx context.Context, sessionID int64, stepNo int) (*model.StepTimer, error) {
	var timer model.StepTimer
	err := r.db.GetContext(ctx, &timer, `
		SELECT step_no, timer_seconds_snapshot
		FROM cook_session_steps
		WHERE session_id = $1
		  AND step_no > $2
		ORDER BY step_no ASC
		LIMIT 1
	`, sessionID, stepNo)
	return HandleNotFound(&timer, err)
}

// MarkStepStarted stamps the step as started now and clears prior
// progress markers. Only an unfinished step matches; restarting a
// finished current step leaves the row untouched.
func (r *sessionRepo) MarkStepStarted(ctx context.Context, sessionID int64, stepNo int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE cook_session_steps
		SET
			started_at = NOW(),
			finished_at = NULL,
			elapsed_seconds = NULL,
			reminder_fired = FALSE
		WHERE session_id = $1
		  AND step_no = $2
		  AND finished_at IS NULL
	`, sessionID, stepNo)
	return err
}

func (r *sessionRepo) MarkStepCompleted(ctx context.Context, sessionID int64, stepNo int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE cook_session_steps
		SET
			finished_at = NOW(),
			elapsed_seconds = GREATEST(EXTRACT(EPOCH FROM (NOW() - started_at))::int, 0)
		WHERE session_id = $1
		  AND step_no = $2
		  AND finished_at IS NULL
	`, sessionID, stepNo)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *sessionRepo) UpdateCurrentStep(ctx context.Context, sessionID int64, stepNo int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE cook_sessions
		SET current_step_no = $2
		WHERE id = $1
	`, sessionID, stepNo)
	return err
}

func (r *sessionRepo) RefreshTotalElapsed(ctx context.Context, sessionID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE cook_sessions
		SET total_elapsed_seconds = (
			SELECT COALESCE(SUM(css.elapsed_seconds), 0)
			FROM cook_session_steps css
			WHERE css.session_id = $1
			  AND css.elapsed_seconds IS NOT NULL
		)
		WHERE id = $1
	`, sessionID)
	return err
}

// AbandonStale terminates IN_PROGRESS sessions whose last activity is
// past the cutoff. Activity is the latest step start or finish, falling
// back to the session start for sessions that never touched a step.
// Late completion of a swept session still works: the completion
// transaction never inspects prior status.
func (r *sessionRepo) AbandonStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE cook_sessions s
		SET status = 'ABANDONED',
		    finished_at = NOW()
		WHERE s.status = 'IN_PROGRESS'
		  AND COALESCE((
			SELECT MAX(GREATEST(
				COALESCE(css.started_at, s.started_at),
				COALESCE(css.finished_at, s.started_at)
			))
			FROM cook_session_steps css
			WHERE css.session_id = s.id
		  ), s.started_at) < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
