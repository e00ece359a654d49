package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/chefascend/cook-server-go/internal/audit"
	"github.com/chefascend/cook-server-go/internal/config"
	"github.com/chefascend/cook-server-go/internal/database"
	apperrors "github.com/chefascend/cook-server-go/internal/errors"
	"github.com/chefascend/cook-server-go/internal/model"
	redisclient "github.com/chefascend/cook-server-go/internal/redis"
	"github.com/chefascend/cook-server-go/internal/repository"
)

type timerAction int

const (
	timerPause timerAction = iota
	timerResume
	timerReset
)

type StartSessionResult struct {
	SessionID     int64               `json:"session_id"`
	DishID        int64               `json:"dish_id"`
	Status        model.SessionStatus `json:"status"`
	CurrentStepNo int                 `json:"current_step_no"`
	StartedAt     time.Time           `json:"started_at"`
}

type SessionStateResult struct {
	SessionID     int64               `json:"session_id"`
	Status        model.SessionStatus `json:"status"`
	CurrentStepNo int                 `json:"current_step_no"`
	Timer         model.TimerState    `json:"timer"`
}

type StepActionResult struct {
	SessionID     int64               `json:"session_id"`
	CurrentStepNo int                 `json:"current_step_no"`
	Status        model.SessionStatus `json:"status"`
}

// SessionService owns the session state machine. The database is
// authoritative; Redis only accelerates the timer view and every cache
// failure degrades to the DB-derived value.
type SessionService struct {
	db          database.TxRunner
	dishRepo    repository.DishRepository
	sessionRepo repository.SessionRepository
	redis       *redisclient.Client
}

func NewSessionService(
	db database.TxRunner,
	dishRepo repository.DishRepository,
	sessionRepo repository.SessionRepository,
	redis *redisclient.Client,
) *SessionService {
	return &SessionService{
		db:          db,
		dishRepo:    dishRepo,
		sessionRepo: sessionRepo,
		redis:       redis,
	}
}

func (s *SessionService) StartSession(ctx context.Context, dishID int64, userID *int64) (*StartSessionResult, error) {
	var created *model.CookSession
	var firstTimerSeconds int

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		dishes := s.dishRepo.WithTx(tx)

		active, err := dishes.ActiveExists(ctx, dishID)
		if err != nil {
			return fmt.Errorf("check dish: %w", err)
		}
		if !active {
			return apperrors.NotFound("Dish")
		}

		summary, err := dishes.GetStepSummary(ctx, dishID)
		if err != nil {
			return fmt.Errorf("dish step summary: %w", err)
		}
		if summary.StepCount == 0 || summary.FirstStepNo == nil {
			return apperrors.Conflict("Dish has no steps")
		}

		sessions := s.sessionRepo.WithTx(tx)
		created, err = sessions.Create(ctx, dishID, userID, *summary.FirstStepNo)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if err := sessions.SnapshotSteps(ctx, created.ID, dishID); err != nil {
			return fmt.Errorf("snapshot steps: %w", err)
		}

		firstTimerSeconds = summary.FirstTimerSeconds
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.saveSessionState(ctx, created.ID, model.SessionStateCache{
		CurrentStepNo:    created.CurrentStepNo,
		RemainingSeconds: firstTimerSeconds,
		IsPaused:         true,
	})

	audit.Log(audit.Event{
		Type:      audit.EventSessionStart,
		SessionID: created.ID,
		DishID:    created.DishID,
		UserID:    userID,
	})

	log.Info().
		Int64("sessionId", created.ID).
		Int64("dishId", created.DishID).
		Int("currentStepNo", created.CurrentStepNo).
		Msg("cook session started")

	return &StartSessionResult{
		SessionID:     created.ID,
		DishID:        created.DishID,
		Status:        created.Status,
		CurrentStepNo: created.CurrentStepNo,
		StartedAt:     created.StartedAt,
	}, nil
}

func (s *SessionService) GetState(ctx context.Context, sessionID int64) (*SessionStateResult, error) {
	runtime, err := s.requireRuntime(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	timer := s.resolveTimer(runtime, s.readSessionState(ctx, sessionID))

	return &SessionStateResult{
		SessionID:     runtime.SessionID,
		Status:        runtime.Status,
		CurrentStepNo: runtime.CurrentStepNo,
		Timer:         timer,
	}, nil
}

func (s *SessionService) StartStep(ctx context.Context, sessionID int64, stepNo int) (*StepActionResult, error) {
	runtime, err := s.requireRuntime(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureMutable(runtime); err != nil {
		return nil, err
	}

	if stepNo != runtime.CurrentStepNo {
		return nil, apperrors.Conflict("Step start must match current step")
	}

	stepTimer, err := s.sessionRepo.GetStepTimer(ctx, sessionID, stepNo)
	if err != nil {
		return nil, fmt.Errorf("get step timer: %w", err)
	}
	if stepTimer == nil {
		return nil, apperrors.Conflict("Step does not exist in session")
	}

	if err := s.sessionRepo.MarkStepStarted(ctx, sessionID, stepNo); err != nil {
		return nil, fmt.Errorf("mark step started: %w", err)
	}

	s.saveSessionState(ctx, sessionID, model.SessionStateCache{
		CurrentStepNo:    stepNo,
		RemainingSeconds: stepTimer.TimerSeconds,
		IsPaused:         false,
	})

	return &StepActionResult{
		SessionID:     runtime.SessionID,
		CurrentStepNo: runtime.CurrentStepNo,
		Status:        runtime.Status,
	}, nil
}

func (s *SessionService) CompleteStep(ctx context.Context, sessionID int64, stepNo int) (*StepActionResult, error) {
	runtime, err := s.requireRuntime(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureMutable(runtime); err != nil {
		return nil, err
	}

	if stepNo != runtime.CurrentStepNo {
		return nil, apperrors.Conflict("Step complete must match current step")
	}

	marked, err := s.sessionRepo.MarkStepCompleted(ctx, sessionID, stepNo)
	if err != nil {
		return nil, fmt.Errorf("mark step completed: %w", err)
	}
	if !marked {
		return nil, apperrors.Conflict("Step does not exist in session")
	}

	nextStep, err := s.sessionRepo.GetNextStepTimer(ctx, sessionID, stepNo)
	if err != nil {
		return nil, fmt.Errorf("get next step timer: %w", err)
	}

	// On the last step the session stays put: currentStepNo == max and
	// remaining 0 is the "ready to finish" signal clients key off.
	nextStepNo := stepNo
	nextTimerSeconds := 0
	if nextStep != nil {
		nextStepNo = nextStep.StepNo
		nextTimerSeconds = nextStep.TimerSeconds
	}

	if err := s.sessionRepo.UpdateCurrentStep(ctx, sessionID, nextStepNo); err != nil {
		return nil, fmt.Errorf("update current step: %w", err)
	}
	if err := s.sessionRepo.RefreshTotalElapsed(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("refresh total elapsed: %w", err)
	}

	s.saveSessionState(ctx, sessionID, model.SessionStateCache{
		CurrentStepNo:    nextStepNo,
		RemainingSeconds: nextTimerSeconds,
		IsPaused:         true,
	})

	return &StepActionResult{
		SessionID:     runtime.SessionID,
		CurrentStepNo: nextStepNo,
		Status:        runtime.Status,
	}, nil
}

func (s *SessionService) PauseTimer(ctx context.Context, sessionID int64) (*SessionStateResult, error) {
	return s.updateTimer(ctx, sessionID, timerPause)
}

func (s *SessionService) ResumeTimer(ctx context.Context, sessionID int64) (*SessionStateResult, error) {
	return s.updateTimer(ctx, sessionID, timerResume)
}

// ResetTimer discards any cached countdown and restarts the current
// step's canonical snapshot, running.
func (s *SessionService) ResetTimer(ctx context.Context, sessionID int64) (*SessionStateResult, error) {
	return s.updateTimer(ctx, sessionID, timerReset)
}

func (s *SessionService) updateTimer(ctx context.Context, sessionID int64, action timerAction) (*SessionStateResult, error) {
	runtime, err := s.requireRuntime(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureMutable(runtime); err != nil {
		return nil, err
	}

	base := s.resolveTimer(runtime, s.readSessionState(ctx, sessionID))

	var next model.TimerState
	switch action {
	case timerPause:
		next = model.TimerState{RemainingSeconds: base.RemainingSeconds, IsPaused: true}
	case timerResume:
		next = model.TimerState{RemainingSeconds: base.RemainingSeconds, IsPaused: false}
	case timerReset:
		next = model.TimerState{RemainingSeconds: runtime.StepTimerSeconds(), IsPaused: false}
	}

	s.saveSessionState(ctx, sessionID, model.SessionStateCache{
		CurrentStepNo:    runtime.CurrentStepNo,
		RemainingSeconds: next.RemainingSeconds,
		IsPaused:         next.IsPaused,
	})

	return &SessionStateResult{
		SessionID:     runtime.SessionID,
		Status:        runtime.Status,
		CurrentStepNo: runtime.CurrentStepNo,
		Timer:         next,
	}, nil
}

func (s *SessionService) requireRuntime(ctx context.Context, sessionID int64) (*model.SessionRuntime, error) {
	runtime, err := s.sessionRepo.FindRuntimeByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find session runtime: %w", err)
	}
	if runtime == nil {
		return nil, apperrors.NotFound("Session")
	}
	return runtime, nil
}

func ensureMutable(runtime *model.SessionRuntime) error {
	if runtime.Status != model.SessionStatusInProgress {
		return apperrors.Conflict("Session is not in progress")
	}
	return nil
}

// resolveTimer is the reconciliation rule: a cached snapshot is trusted
// only while its step number matches the authoritative current step.
// Anything else falls back to the DB snapshot, paused.
func (s *SessionService) resolveTimer(runtime *model.SessionRuntime, cached *model.SessionStateCache) model.TimerState {
	if cached == nil || cached.CurrentStepNo != runtime.CurrentStepNo {
		return model.TimerState{
			RemainingSeconds: runtime.StepTimerSeconds(),
			IsPaused:         true,
		}
	}
	return model.TimerState{
		RemainingSeconds: cached.RemainingSeconds,
		IsPaused:         cached.IsPaused,
	}
}

func (s *SessionService) readSessionState(ctx context.Context, sessionID int64) *model.SessionStateCache {
	if s.redis == nil {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, config.CacheOpTimeout)
	defer cancel()

	values, err := s.redis.HGetAll(cctx, redisclient.SessionStateKey(sessionID)).Result()
	if err != nil {
		log.Warn().Err(err).Int64("sessionId", sessionID).Msg("failed to read session state from redis")
		return nil
	}

	currentStepNo, okStep := parseNonNegativeInt(values["current_step_no"])
	remainingSeconds, okRemaining := parseNonNegativeInt(values["remaining_seconds"])
	pausedRaw := values["is_paused"]
	if !okStep || !okRemaining || (pausedRaw != "0" && pausedRaw != "1") {
		return nil
	}

	return &model.SessionStateCache{
		CurrentStepNo:    currentStepNo,
		RemainingSeconds: remainingSeconds,
		IsPaused:         pausedRaw == "1",
	}
}

func (s *SessionService) saveSessionState(ctx context.Context, sessionID int64, state model.SessionStateCache) {
	if s.redis == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, config.CacheOpTimeout)
	defer cancel()

	isPaused := "0"
	if state.IsPaused {
		isPaused = "1"
	}

	key := redisclient.SessionStateKey(sessionID)
	err := s.redis.HSet(cctx, key, map[string]interface{}{
		"current_step_no":   strconv.Itoa(state.CurrentStepNo),
		"remaining_seconds": strconv.Itoa(state.RemainingSeconds),
		"is_paused":         isPaused,
		"updated_at_epoch":  strconv.FormatInt(time.Now().Unix(), 10),
	}).Err()
	if err != nil {
		log.Warn().Err(err).Int64("sessionId", sessionID).Msg("failed to save session state to redis")
		return
	}

	if err := s.redis.Expire(cctx, key, config.SessionStateTTL).Err(); err != nil {
		log.Warn().Err(err).Int64("sessionId", sessionID).Msg("failed to set session state TTL")
	}
}

func parseNonNegativeInt(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, false
	}
	return parsed, true
}
