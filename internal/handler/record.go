package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/chefascend/cook-server-go/internal/errors"
	"github.com/chefascend/cook-server-go/internal/httputil"
	"github.com/chefascend/cook-server-go/internal/model"
	"github.com/chefascend/cook-server-go/internal/service"
)

type CompleteSessionRequest struct {
	UserID *int64  `json:"user_id" validate:"omitempty,gt=0"`
	Result string  `json:"result" validate:"required,oneof=SUCCESS FAILED"`
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Note   *string `json:"note" validate:"omitempty,min=1,max=1000"`
}

type RecordHandler struct {
	recordService *service.RecordService
}

func NewRecordHandler(recordService *service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

// UserRoutes serves the per-user history endpoints, mounted under the
// users resource.
func (h *RecordHandler) UserRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{userID}/cook-records", h.ListUserRecords)

	return r
}

func (h *RecordHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseIDParam(r, "sessionID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req CompleteSessionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.recordService.CompleteSession(r.Context(), model.CompleteSessionParams{
		SessionID: sessionID,
		UserID:    req.UserID,
		Result:    model.CookResult(req.Result),
		Rating:    req.Rating,
		Note:      req.Note,
	})
	if err != nil {
		if !apperrors.IsAppError(err) {
			log.Error().Err(err).Int64("sessionId", sessionID).Msg("failed to complete cook session")
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *RecordHandler) ListUserRecords(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, pageSize := parsePagination(r)

	result, err := h.recordService.ListUserRecords(r.Context(), userID, page, pageSize)
	if err != nil {
		if !apperrors.IsAppError(err) {
			log.Error().Err(err).Int64("userId", userID).Msg("failed to list cook records")
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
