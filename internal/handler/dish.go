package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/chefascend/cook-server-go/internal/errors"
	"github.com/chefascend/cook-server-go/internal/httputil"
	"github.com/chefascend/cook-server-go/internal/model"
	"github.com/chefascend/cook-server-go/internal/service"
)

type DishHandler struct {
	dishService *service.DishService
}

func NewDishHandler(dishService *service.DishService) *DishHandler {
	return &DishHandler{dishService: dishService}
}

func (h *DishHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListCatalog)
	r.Get("/{dishID}", h.GetDetail)

	return r
}

func (h *DishHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	query, err := parseCatalogQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.dishService.ListCatalog(r.Context(), query)
	if err != nil {
		if !apperrors.IsAppError(err) {
			log.Error().Err(err).Msg("failed to list dish catalog")
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *DishHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	dishID, err := parseIDParam(r, "dishID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	detail, err := h.dishService.GetDishDetail(r.Context(), dishID)
	if err != nil {
		if !apperrors.IsAppError(err) {
			log.Error().Err(err).Int64("dishId", dishID).Msg("failed to get dish detail")
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, detail)
}

func parseCatalogQuery(r *http.Request) (model.CatalogQuery, error) {
	page, pageSize := parsePagination(r)
	query := model.CatalogQuery{
		Page:     page,
		PageSize: pageSize,
		Sort:     model.DishSortPopularToday,
	}

	values := r.URL.Query()

	if raw := values.Get("sort"); raw != "" {
		if !model.ValidDishSort(raw) {
			return query, apperrors.InvalidInput("sort", "unknown sort order")
		}
		query.Sort = model.DishSort(raw)
	}

	if raw := values.Get("difficulty"); raw != "" {
		difficulty, err := strconv.Atoi(raw)
		if err != nil || difficulty < 1 || difficulty > 5 {
			return query, apperrors.InvalidInput("difficulty", "must be between 1 and 5")
		}
		query.Difficulty = &difficulty
	}

	if raw := values.Get("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID <= 0 {
			return query, apperrors.InvalidInput("category_id", "must be a positive integer")
		}
		query.CategoryID = &categoryID
	}

	return query, nil
}
