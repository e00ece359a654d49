package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/chefascend/cook-server-go/internal/audit"
	"github.com/chefascend/cook-server-go/internal/config"
	"github.com/chefascend/cook-server-go/internal/database"
	apperrors "github.com/chefascend/cook-server-go/internal/errors"
	"github.com/chefascend/cook-server-go/internal/model"
	redisclient "github.com/chefascend/cook-server-go/internal/redis"
	"github.com/chefascend/cook-server-go/internal/repository"
)

// incrTodayCountScript increments the per-dish daily counter and sets
// its TTL only when the key has none yet, in one atomic round trip.
// Splitting INCR and EXPIRE would race under concurrent completions.
var incrTodayCountScript = redis.NewScript(`
local key = KEYS[1]
local ttl = tonumber(ARGV[1])
local value = redis.call('INCR', key)
if redis.call('TTL', key) < 0 then
  redis.call('EXPIRE', key, ttl)
end
return value
`)

type CompleteSessionResult struct {
	SessionID      int64            `json:"session_id"`
	RecordID       int64            `json:"record_id"`
	Result         model.CookResult `json:"result"`
	TodayCookCount int              `json:"today_cook_count"`
}

type UserRecordListResult struct {
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	Total    int                    `json:"total"`
	Items    []model.UserCookRecord `json:"items"`
}

// RecordService commits a session's terminal outcome exactly once and
// maintains the approximate daily counter.
type RecordService struct {
	db         database.TxRunner
	recordRepo repository.RecordRepository
	redis      *redisclient.Client
}

func NewRecordService(
	db database.TxRunner,
	recordRepo repository.RecordRepository,
	redis *redisclient.Client,
) *RecordService {
	return &RecordService{
		db:         db,
		recordRepo: recordRepo,
		redis:      redis,
	}
}

// CompleteSession runs the idempotent outcome commit. The row lock on
// the session serializes duplicate attempts; the record existence check
// behind the lock makes the second attempt a no-op read that observes
// the first attempt's record.
func (s *RecordService) CompleteSession(ctx context.Context, params model.CompleteSessionParams) (*CompleteSessionResult, error) {
	var outcome *model.CompletionOutcome

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		records := s.recordRepo.WithTx(tx)

		session, err := records.FindSessionForUpdate(ctx, params.SessionID)
		if err != nil {
			return fmt.Errorf("lock session: %w", err)
		}
		if session == nil {
			return apperrors.NotFound("Session")
		}

		existing, err := records.FindBySessionID(ctx, params.SessionID)
		if err != nil {
			return fmt.Errorf("find existing record: %w", err)
		}
		if existing != nil {
			outcome = &model.CompletionOutcome{
				SessionID:   existing.SessionID,
				RecordID:    existing.ID,
				DishID:      existing.DishID,
				Result:      existing.Result,
				IsNewRecord: false,
			}
			return nil
		}

		if err := records.MarkSessionFinished(ctx, params.SessionID, params.Result.SessionStatus()); err != nil {
			return fmt.Errorf("finish session: %w", err)
		}

		created, err := records.Insert(ctx, params, session)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}

		outcome = &model.CompletionOutcome{
			SessionID:   created.SessionID,
			RecordID:    created.ID,
			DishID:      created.DishID,
			Result:      created.Result,
			IsNewRecord: true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The cached timer snapshot is in-progress state only.
	s.clearSessionState(ctx, outcome.SessionID)

	var todayCount int
	if outcome.IsNewRecord {
		todayCount, err = s.todayCountAfterNewRecord(ctx, outcome.DishID)
	} else {
		todayCount, err = s.todayCount(ctx, outcome.DishID)
	}
	if err != nil {
		return nil, err
	}

	if outcome.IsNewRecord {
		audit.Log(audit.Event{
			Type:      audit.EventSessionComplete,
			SessionID: outcome.SessionID,
			DishID:    outcome.DishID,
			UserID:    params.UserID,
			Details:   map[string]interface{}{"result": string(outcome.Result)},
		})
	}

	log.Info().
		Int64("sessionId", outcome.SessionID).
		Int64("recordId", outcome.RecordID).
		Bool("isNewRecord", outcome.IsNewRecord).
		Msg("cook session completed")

	return &CompleteSessionResult{
		SessionID:      outcome.SessionID,
		RecordID:       outcome.RecordID,
		Result:         outcome.Result,
		TodayCookCount: todayCount,
	}, nil
}

func (s *RecordService) ListUserRecords(ctx context.Context, userID int64, page, pageSize int) (*UserRecordListResult, error) {
	exists, err := s.recordRepo.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound("User")
	}

	total, err := s.recordRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	items, err := s.recordRepo.ListByUserID(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if items == nil {
		items = []model.UserCookRecord{}
	}

	return &UserRecordListResult{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Items:    items,
	}, nil
}

func (s *RecordService) todayCountAfterNewRecord(ctx context.Context, dishID int64) (int, error) {
	if count, ok := s.incrementTodayCount(ctx, dishID); ok {
		return count, nil
	}
	return s.recordRepo.GetTodayCookCount(ctx, dishID)
}

// todayCount serves a re-completion: the counter must not move again,
// so read the cached value and fall back to the DB aggregate.
func (s *RecordService) todayCount(ctx context.Context, dishID int64) (int, error) {
	if count, ok := s.cachedTodayCount(ctx, dishID); ok {
		return count, nil
	}
	return s.recordRepo.GetTodayCookCount(ctx, dishID)
}

func (s *RecordService) incrementTodayCount(ctx context.Context, dishID int64) (int, bool) {
	if s.redis == nil {
		return 0, false
	}

	cctx, cancel := context.WithTimeout(ctx, config.CacheOpTimeout)
	defer cancel()

	key := redisclient.TodayCountKey(dishID, time.Now())
	ttlSeconds := int(config.TodayCountTTL.Seconds())

	count, err := incrTodayCountScript.Run(cctx, s.redis.Client, []string{key}, ttlSeconds).Int()
	if err != nil {
		log.Warn().Err(err).Int64("dishId", dishID).Msg("failed to increment today count in redis")
		return 0, false
	}
	if count < 0 {
		return 0, false
	}
	return count, true
}

func (s *RecordService) cachedTodayCount(ctx context.Context, dishID int64) (int, bool) {
	if s.redis == nil {
		return 0, false
	}

	cctx, cancel := context.WithTimeout(ctx, config.CacheOpTimeout)
	defer cancel()

	value, err := s.redis.Get(cctx, redisclient.TodayCountKey(dishID, time.Now())).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Int64("dishId", dishID).Msg("failed to read today count from redis")
		}
		return 0, false
	}

	count, err := strconv.Atoi(value)
	if err != nil || count < 0 {
		return 0, false
	}
	return count, true
}

func (s *RecordService) clearSessionState(ctx context.Context, sessionID int64) {
	if s.redis == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, config.CacheOpTimeout)
	defer cancel()

	if err := s.redis.Del(cctx, redisclient.SessionStateKey(sessionID)).Err(); err != nil {
		log.Warn().Err(err).Int64("sessionId", sessionID).Msg("failed to clear session state from redis")
	}
}
