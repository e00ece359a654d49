package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chefascend/cook-server-go/internal/errors"
	"github.com/chefascend/cook-server-go/internal/model"
)

func newRecordService(records *mockRecordRepo) *RecordService {
	return NewRecordService(stubTxRunner{}, records, nil)
}

func TestCompleteSession(t *testing.T) {
	t.Run("creates the record and completes the session on success", func(t *testing.T) {
		records := new(mockRecordRepo)
		svc := newRecordService(records)

		params := model.CompleteSessionParams{
			SessionID: 101,
			Result:    model.CookResultSuccess,
		}
		session := &model.SessionForComplete{ID: 101, DishID: 10}

		records.On("FindSessionForUpdate", mock.Anything, int64(101)).Return(session, nil)
		records.On("FindBySessionID", mock.Anything, int64(101)).Return(nil, nil)
		records.On("MarkSessionFinished", mock.Anything, int64(101), model.SessionStatusCompleted).Return(nil)
		records.On("Insert", mock.Anything, params, session).Return(&model.CookRecord{
			ID:        501,
			SessionID: 101,
			DishID:    10,
			Result:    model.CookResultSuccess,
		}, nil)
		records.On("GetTodayCookCount", mock.Anything, int64(10)).Return(4, nil)

		result, err := svc.CompleteSession(context.Background(), params)

		require.NoError(t, err)
		assert.Equal(t, int64(501), result.RecordID)
		assert.Equal(t, model.CookResultSuccess, result.Result)
		assert.Equal(t, 4, result.TodayCookCount)
		records.AssertExpectations(t)
	})

	t.Run("a failed cook abandons the session", func(t *testing.T) {
		records := new(mockRecordRepo)
		svc := newRecordService(records)

		params := model.CompleteSessionParams{
			SessionID: 101,
			Result:    model.CookResultFailed,
		}
		session := &model.SessionForComplete{ID: 101, DishID: 10}

		records.On("FindSessionForUpdate", mock.Anything, int64(101)).Return(session, nil)
		records.On("FindBySessionID", mock.Anything, int64(101)).Return(nil, nil)
		records.On("MarkSessionFinished", mock.Anything, int64(101), model.SessionStatusAbandoned).Return(nil)
		records.On("Insert", mock.Anything, params, session).Return(&model.CookRecord{
			ID:        502,
			SessionID: 101,
			DishID:    10,
			Result:    model.CookResultFailed,
		}, nil)
		records.On("GetTodayCookCount", mock.Anything, int64(10)).Return(1, nil)

		result, err := svc.CompleteSession(context.Background(), params)

		require.NoError(t, err)
		assert.Equal(t, model.CookResultFailed, result.Result)
		records.AssertExpectations(t)
	})

	t.Run("repeated completion returns the existing record unchanged", func(t *testing.T) {
		records := new(mockRecordRepo)
		svc := newRecordService(records)

		params := model.CompleteSessionParams{
			SessionID: 101,
			Result:    model.CookResultFailed,
		}
		session := &model.SessionForComplete{ID: 101, DishID: 10}

		records.On("FindSessionForUpdate", mock.Anything, int64(101)).Return(session, nil)
		records.On("FindBySessionID", mock.Anything, int64(101)).Return(&model.CookRecord{
			ID:        501,
			SessionID: 101,
			DishID:    10,
			Result:    model.CookResultSuccess,
		}, nil)
		records.On("GetTodayCookCount", mock.Anything, int64(10)).Return(4, nil)

		result, err := svc.CompleteSession(context.Background(), params)

		require.NoError(t, err)
		assert.Equal(t, int64(501), result.RecordID)
		assert.Equal(t, model.CookResultSuccess, result.Result, "first outcome wins")
		assert.Equal(t, 4, result.TodayCookCount, "counter does not move again")
		records.AssertNotCalled(t, "MarkSessionFinished", mock.Anything, mock.Anything, mock.Anything)
		records.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns not found for an unknown session", func(t *testing.T) {
		records := new(mockRecordRepo)
		svc := newRecordService(records)

		records.On("FindSessionForUpdate", mock.Anything, int64(404)).Return(nil, nil)

		_, err := svc.CompleteSession(context.Background(), model.CompleteSessionParams{
			SessionID: 404,
			Result:    model.CookResultSuccess,
		})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		records.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestListUserRecords(t *testing.T) {
	t.Run("returns the user's records with pagination", func(t *testing.T) {
		records := new(mockRecordRepo)
		svc := newRecordService(records)

		records.On("UserExists", mock.Anything, int64(7)).Return(true, nil)
		records.On("CountByUserID", mock.Anything, int64(7)).Return(35, nil)
		records.On("ListByUserID", mock.Anything, int64(7), 20, 20).Return([]model.UserCookRecord{
			{RecordID: 501, DishID: 10, DishName: "Kimchi Stew", Result: model.CookResultSuccess},
		}, nil)

		result, err := svc.ListUserRecords(context.Background(), 7, 2, 20)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Page)
		assert.Equal(t, 35, result.Total)
		assert.Len(t, result.Items, 1)
		records.AssertExpectations(t)
	})

	t.Run("returns not found for an unknown user", func(t *testing.T) {
		records := new(mockRecordRepo)
		svc := newRecordService(records)

		records.On("UserExists", mock.Anything, int64(99)).Return(false, nil)

		_, err := svc.ListUserRecords(context.Background(), 99, 1, 20)

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		records.AssertNotCalled(t, "ListByUserID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns an empty item list instead of nil", func(t *testing.T) {
		records := new(mockRecordRepo)
		svc := newRecordService(records)

		records.On("UserExists", mock.Anything, int64(7)).Return(true, nil)
		records.On("CountByUserID", mock.Anything, int64(7)).Return(0, nil)
		records.On("ListByUserID", mock.Anything, int64(7), 20, 0).Return(nil, nil)

		result, err := svc.ListUserRecords(context.Background(), 7, 1, 20)

		require.NoError(t, err)
		assert.NotNil(t, result.Items)
		assert.Empty(t, result.Items)
	})
}
