package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/chefascend/cook-server-go/internal/errors"
	"github.com/chefascend/cook-server-go/internal/httputil"
	"github.com/chefascend/cook-server-go/internal/service"
)

type CreateSessionRequest struct {
	DishID int64  `json:"dish_id" validate:"required,gt=0"`
	UserID *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

type SessionHandler struct {
	sessionService *service.SessionService
	recordHandler  *RecordHandler
}

func NewSessionHandler(sessionService *service.SessionService, recordHandler *RecordHandler) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		recordHandler:  recordHandler,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/{sessionID}", h.GetState)
	r.Post("/{sessionID}/steps/{stepNo}/start", h.StartStep)
	r.Post("/{sessionID}/steps/{stepNo}/complete", h.CompleteStep)
	r.Post("/{sessionID}/timer/pause", h.PauseTimer)
	r.Post("/{sessionID}/timer/resume", h.ResumeTimer)
	r.Post("/{sessionID}/timer/reset", h.ResetTimer)
	r.Post("/{sessionID}/complete", h.recordHandler.CompleteSession)

	return r
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.sessionService.StartSession(r.Context(), req.DishID, req.UserID)
	if err != nil {
		if !apperrors.IsAppError(err) {
			log.Error().Err(err).Int64("dishId", req.DishID).Msg("failed to start cook session")
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseIDParam(r, "sessionID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	state, err := h.sessionService.GetState(r.Context(), sessionID)
	if err != nil {
		if !apperrors.IsAppError(err) {
			log.Error().Err(err).Int64("sessionId", sessionID).Msg("failed to get session state")
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, state)
}

func (h *SessionHandler) StartStep(w http.ResponseWriter, r *http.Request) {
	sessionID, stepNo, err := sessionStepParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.sessionService.StartStep(r.Context(), sessionID, stepNo)
	if err != nil {
		if !apperrors.IsAppError(err) {
			log.Error().Err(err).Int64("sessionId", sessionID).Int("stepNo", stepNo).Msg("failed to start step")
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	sessionID, stepNo, err := sessionStepParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.sessionService.CompleteStep(r.Context(), sessionID, stepNo)
	if err != nil {
		if !apperrors.IsAppError(err) {
			log.Error().Err(err).Int64("sessionId", sessionID).Int("stepNo", stepNo).Msg("failed to complete step")
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) PauseTimer(w http.ResponseWriter, r *http.Request) {
	h.timerAction(w, r, h.sessionService.PauseTimer)
}

func (h *SessionHandler) ResumeTimer(w http.ResponseWriter, r *http.Request) {
	h.timerAction(w, r, h.sessionService.ResumeTimer)
}

func (h *SessionHandler) ResetTimer(w http.ResponseWriter, r *http.Request) {
	h.timerAction(w, r, h.sessionService.ResetTimer)
}

func (h *SessionHandler) timerAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, sessionID int64) (*service.SessionStateResult, error),
) {
	sessionID, err := parseIDParam(r, "sessionID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	state, err := action(r.Context(), sessionID)
	if err != nil {
		if !apperrors.IsAppError(err) {
			log.Error().Err(err).Int64("sessionId", sessionID).Msg("failed to update timer")
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, state)
}

func sessionStepParams(r *http.Request) (int64, int, error) {
	sessionID, err := parseIDParam(r, "sessionID")
	if err != nil {
		return 0, 0, err
	}
	stepNo, err := parseIntParam(r, "stepNo")
	if err != nil {
		return 0, 0, err
	}
	return sessionID, stepNo, nil
}
