package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/chefascend/cook-server-go/internal/model"
	"github.com/chefascend/cook-server-go/internal/repository"
)

type mockSessionRepo struct {
	abandonCount int64
	calls        atomic.Int32
	lastCutoff   atomic.Value
}

func (m *mockSessionRepo) Create(ctx context.Context, dishID int64, userID *int64, firstStepNo int) (*model.CookSession, error) {
	return nil, nil
}

func (m *mockSessionRepo) SnapshotSteps(ctx context.Context, sessionID, dishID int64) error {
	return nil
}

func (m *mockSessionRepo) FindRuntimeByID(ctx context.Context, sessionID int64) (*model.SessionRuntime, error) {
	return nil, nil
}

func (m *mockSessionRepo) GetStepTimer(ctx context.Context, sessionID int64, stepNo int) (*model.StepTimer, error) {
	return nil, nil
}

func (m *mockSessionRepo) GetNextStepTimer(ctx context.Context, sessionID int64, stepNo int) (*model.StepTimer, error) {
	return nil, nil
}

func (m *mockSessionRepo) MarkStepStarted(ctx context.Context, sessionID int64, stepNo int) error {
	return nil
}

func (m *mockSessionRepo) MarkStepCompleted(ctx context.Context, sessionID int64, stepNo int) (bool, error) {
	return false, nil
}

func (m *mockSessionRepo) UpdateCurrentStep(ctx context.Context, sessionID int64, stepNo int) error {
	return nil
}

func (m *mockSessionRepo) RefreshTotalElapsed(ctx context.Context, sessionID int64) error {
	return nil
}

func (m *mockSessionRepo) AbandonStale(ctx context.Context, cutoff time.Time) (int64, error) {
	m.calls.Add(1)
	m.lastCutoff.Store(cutoff)
	return m.abandonCount, nil
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return m
}

func TestSweeperJob(t *testing.T) {
	t.Run("creates job with correct interval and cutoff", func(t *testing.T) {
		job := NewSweeperJob(nil, 15*time.Minute, 48*time.Hour)

		assert.NotNil(t, job)
		assert.Equal(t, 15*time.Minute, job.interval)
		assert.Equal(t, 48*time.Hour, job.cutoff)
	})

	t.Run("sweeps on start and stops cleanly", func(t *testing.T) {
		repo := &mockSessionRepo{abandonCount: 3}
		job := NewSweeperJob(repo, time.Hour, 48*time.Hour)

		job.Start()
		time.Sleep(20 * time.Millisecond)
		job.Stop()

		assert.GreaterOrEqual(t, job.interval, time.Hour)
		assert.EqualValues(t, 1, repo.calls.Load())
	})

	t.Run("passes a cutoff in the past", func(t *testing.T) {
		repo := &mockSessionRepo{}
		job := NewSweeperJob(repo, time.Hour, 48*time.Hour)

		job.sweep()

		cutoff, ok := repo.lastCutoff.Load().(time.Time)
		assert.True(t, ok)
		assert.True(t, cutoff.Before(time.Now().Add(-47*time.Hour)))
	})
}
