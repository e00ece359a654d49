package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/chefascend/cook-server-go/internal/database"
	"github.com/chefascend/cook-server-go/internal/model"
	"github.com/chefascend/cook-server-go/internal/repository"
)

// stubTxRunner runs the transaction body directly with a nil tx. The
// mock repositories return themselves from WithTx, so no real
// transaction is needed.
type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn database.TxFunc) error {
	return fn(nil)
}

var _ database.TxRunner = stubTxRunner{}

type mockDishRepo struct {
	mock.Mock
}

func (m *mockDishRepo) ActiveExists(ctx context.Context, dishID int64) (bool, error) {
	args := m.Called(ctx, dishID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDishRepo) GetStepSummary(ctx context.Context, dishID int64) (*model.StepSummary, error) {
	args := m.Called(ctx, dishID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StepSummary), args.Error(1)
}

func (m *mockDishRepo) ListForCatalog(ctx context.Context, q model.CatalogQuery) ([]model.CatalogDish, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.CatalogDish), args.Int(1), args.Error(2)
}

func (m *mockDishRepo) FindActiveDetailByID(ctx context.Context, dishID int64) (*model.DishDetail, []model.DishStep, error) {
	args := m.Called(ctx, dishID)
	var detail *model.DishDetail
	if args.Get(0) != nil {
		detail = args.Get(0).(*model.DishDetail)
	}
	var steps []model.DishStep
	if args.Get(1) != nil {
		steps = args.Get(1).([]model.DishStep)
	}
	return detail, steps, args.Error(2)
}

func (m *mockDishRepo) WithTx(_ *sqlx.Tx) repository.DishRepository {
	return m
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, dishID int64, userID *int64, firstStepNo int) (*model.CookSession, error) {
	args := m.Called(ctx, dishID, userID, firstStepNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CookSession), args.Error(1)
}

func (m *mockSessionRepo) SnapshotSteps(ctx context.Context, sessionID, dishID int64) error {
	args := m.Called(ctx, sessionID, dishID)
	return args.Error(0)
}

func (m *mockSessionRepo) FindRuntimeByID(ctx context.Context, sessionID int64) (*model.SessionRuntime, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionRuntime), args.Error(1)
}

func (m *mockSessionRepo) GetStepTimer(ctx context.Context, sessionID int64, stepNo int) (*model.StepTimer, error) {
	args := m.Called(ctx, sessionID, stepNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StepTimer), args.Error(1)
}

func (m *mockSessionRepo) GetNextStepTimer(ctx context.Context, sessionID int64, stepNo int) (*model.StepTimer, error) {
	args := m.Called(ctx, sessionID, stepNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StepTimer), args.Error(1)
}

func (m *mockSessionRepo) MarkStepStarted(ctx context.Context, sessionID int64, stepNo int) error {
	args := m.Called(ctx, sessionID, stepNo)
	return args.Error(0)
}

func (m *mockSessionRepo) MarkStepCompleted(ctx context.Context, sessionID int64, stepNo int) (bool, error) {
	args := m.Called(ctx, sessionID, stepNo)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) UpdateCurrentStep(ctx context.Context, sessionID int64, stepNo int) error {
	args := m.Called(ctx, sessionID, stepNo)
	return args.Error(0)
}

func (m *mockSessionRepo) RefreshTotalElapsed(ctx context.Context, sessionID int64) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *mockSessionRepo) AbandonStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) WithTx(_ *sqlx.Tx) repository.SessionRepository {
	return m
}

type mockRecordRepo struct {
	mock.Mock
}

func (m *mockRecordRepo) FindSessionForUpdate(ctx context.Context, sessionID int64) (*model.SessionForComplete, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionForComplete), args.Error(1)
}

func (m *mockRecordRepo) FindBySessionID(ctx context.Context, sessionID int64) (*model.CookRecord, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CookRecord), args.Error(1)
}

func (m *mockRecordRepo) MarkSessionFinished(ctx context.Context, sessionID int64, status model.SessionStatus) error {
	args := m.Called(ctx, sessionID, status)
	return args.Error(0)
}

func (m *mockRecordRepo) Insert(ctx context.Context, params model.CompleteSessionParams, session *model.SessionForComplete) (*model.CookRecord, error) {
	args := m.Called(ctx, params, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CookRecord), args.Error(1)
}

func (m *mockRecordRepo) GetTodayCookCount(ctx context.Context, dishID int64) (int, error) {
	args := m.Called(ctx, dishID)
	return args.Int(0), args.Error(1)
}

func (m *mockRecordRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockRecordRepo) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]model.UserCookRecord, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserCookRecord), args.Error(1)
}

func (m *mockRecordRepo) UserExists(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRecordRepo) WithTx(_ *sqlx.Tx) repository.RecordRepository {
	return m
}

func intPtr(v int) *int {
	return &v
}

func int64Ptr(v int64) *int64 {
	return &v
}
