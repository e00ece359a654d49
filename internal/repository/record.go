package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/chefascend/cook-server-go/internal/database"
	"github.com/chefascend/cook-server-go/internal/model"
)

type RecordRepository interface {
	// FindSessionForUpdate takes the row lock that serializes concurrent
	// completion attempts for one session. Call inside a transaction.
	FindSessionForUpdate(ctx context.Context, sessionID int64) (*model.SessionForComplete, error)
	FindBySessionID(ctx context.Context, sessionID int64) (*model.CookRecord, error)
	MarkSessionFinished(ctx context.Context, sessionID int64, status model.SessionStatus) error
	Insert(ctx context.Context, params model.CompleteSessionParams, session *model.SessionForComplete) (*model.CookRecord, error)
	GetTodayCookCount(ctx context.Context, dishID int64) (int, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]model.UserCookRecord, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) RecordRepository
}

type recordRepo struct {
	db database.DBTX
}

func NewRecordRepository(db *sqlx.DB) RecordRepository {
	return &recordRepo{db: db}
}

func (r *recordRepo) WithTx(tx *sqlx.Tx) RecordRepository {
	return &recordRepo{db: tx}
}

func (r *recordRepo) FindSessionForUpdate(ctx context.Context, sessionID int64) (*model.SessionForComplete, error) {
	var session model.SessionForComplete
	err := r.db.GetContext(ctx, &session, `
		SELECT id, dish_id, user_id
		FROM cook_sessions
		WHERE id = $1
		FOR UPDATE
	`, sessionID)
	return HandleNotFound(&session, err)
}

func (r *recordRepo) FindBySessionID(ctx context.Context, sessionID int64) (*model.CookRecord, error) {
	var record model.CookRecord
	err := r.db.GetContext(ctx, &record, `
		SELECT id, session_id, dish_id, result
		FROM cook_records
		WHERE session_id = $1
		LIMIT 1
	`, sessionID)
	return HandleNotFound(&record, err)
}

func (r *recordRepo) MarkSessionFinished(ctx context.Context, sessionID int64, status model.SessionStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE cook_sessions
		SET
			status = $2,
			finished_at = COALESCE(finished_at, NOW()),
			total_elapsed_seconds = (
				SELECT COALESCE(SUM(css.elapsed_seconds), 0)
				FROM cook_session_steps css
				WHERE css.session_id = $1
				  AND css.elapsed_seconds IS NOT NULL
			)
		WHERE id = $1
	`, sessionID, status)
	return err
}

func (r *recordRepo) Insert(ctx context.Context, params model.CompleteSessionParams, session *model.SessionForComplete) (*model.CookRecord, error) {
	userID := params.UserID
	if userID == nil {
		userID = session.UserID
	}

	var record model.CookRecord
	err := r.db.GetContext(ctx, &record, `
		INSERT INTO cook_records (session_id, user_id, dish_id, result, rating, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, session_id, dish_id, result
	`, params.SessionID, userID, session.DishID, params.Result, params.Rating, params.Note)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetTodayCookCount recomputes the daily counter from the pre-aggregated
// stats table. It is the fallback when the cached counter is unusable.
func (r *recordRepo) GetTodayCookCount(ctx context.Context, dishID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COALESCE(success_count, 0) + COALESCE(failed_count, 0)
		FROM dish_daily_stats
		WHERE stat_date = CURRENT_DATE
		  AND dish_id = $1
		LIMIT 1
	`, dishID)
	result, err := HandleNotFound(&count, err)
	if err != nil {
		return 0, err
	}
	if result == nil {
		return 0, nil
	}
	return *result, nil
}

func (r *recordRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM cook_records WHERE user_id = $1
	`, userID)
	return count, err
}

func (r *recordRepo) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]model.UserCookRecord, error) {
	var records []model.UserCookRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT
			cr.id AS record_id,
			cr.dish_id,
			d.name AS dish_name,
			cr.result,
			cr.rating,
			cr.cooked_at
		FROM cook_records cr
		JOIN dishes d ON d.id = cr.dish_id
		WHERE cr.user_id = $1
		ORDER BY cr.cooked_at DESC, cr.id DESC
		LIMIT $2
		OFFSET $3
	`, userID, limit, offset)
	return records, err
}

func (r *recordRepo) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
	`, userID)
	return exists, err
}
