package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chefascend/cook-server-go/internal/config"
	apperrors "github.com/chefascend/cook-server-go/internal/errors"
	"github.com/chefascend/cook-server-go/internal/model"
	redisclient "github.com/chefascend/cook-server-go/internal/redis"
	"github.com/chefascend/cook-server-go/internal/repository"
)

type CatalogResult struct {
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Total    int                 `json:"total"`
	Items    []model.CatalogDish `json:"items"`
}

type DishDetailResult struct {
	ID                    int64              `json:"id"`
	Name                  string             `json:"name"`
	Description           *string            `json:"description"`
	Difficulty            int                `json:"difficulty"`
	EstimatedTotalSeconds int                `json:"estimated_total_seconds"`
	CoverImageURL         *string            `json:"cover_image_url"`
	Ingredients           []model.Ingredient `json:"ingredients"`
	Steps                 []model.DishStep   `json:"steps"`
	TodayCookCount        int                `json:"today_cook_count"`
}

// DishService serves the read side of the catalog. Daily cook counts
// come from the DB aggregate and are overlaid with the live cached
// counters when those are available; the cached value wins because it
// includes completions the aggregate has not absorbed yet.
type DishService struct {
	dishRepo repository.DishRepository
	redis    *redisclient.Client
}

func NewDishService(dishRepo repository.DishRepository, redis *redisclient.Client) *DishService {
	return &DishService{
		dishRepo: dishRepo,
		redis:    redis,
	}
}

func (s *DishService) ListCatalog(ctx context.Context, q model.CatalogQuery) (*CatalogResult, error) {
	dishes, total, err := s.dishRepo.ListForCatalog(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if dishes == nil {
		dishes = []model.CatalogDish{}
	}

	s.overlayCatalogCounts(ctx, dishes)

	return &CatalogResult{
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
		Items:    dishes,
	}, nil
}

func (s *DishService) GetDishDetail(ctx context.Context, dishID int64) (*DishDetailResult, error) {
	detail, steps, err := s.dishRepo.FindActiveDetailByID(ctx, dishID)
	if err != nil {
		return nil, fmt.Errorf("find dish: %w", err)
	}
	if detail == nil {
		return nil, apperrors.NotFound("Dish")
	}
	if steps == nil {
		steps = []model.DishStep{}
	}

	todayCount := detail.TodayCookCount
	if cached, ok := s.cachedCount(ctx, detail.ID); ok {
		todayCount = cached
	}

	return &DishDetailResult{
		ID:                    detail.ID,
		Name:                  detail.Name,
		Description:           detail.Description,
		Difficulty:            detail.Difficulty,
		EstimatedTotalSeconds: detail.EstimatedTotalSeconds,
		CoverImageURL:         detail.CoverImageURL,
		Ingredients:           normalizeIngredients(detail.IngredientsJSON),
		Steps:                 steps,
		TodayCookCount:        todayCount,
	}, nil
}

// overlayCatalogCounts replaces DB counts with cached counters in one
// MGET. A miss or malformed value keeps the DB count for that dish.
func (s *DishService) overlayCatalogCounts(ctx context.Context, dishes []model.CatalogDish) {
	if s.redis == nil || len(dishes) == 0 {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, config.CacheOpTimeout)
	defer cancel()

	now := time.Now()
	keys := make([]string, len(dishes))
	for i, dish := range dishes {
		keys[i] = redisclient.TodayCountKey(dish.ID, now)
	}

	values, err := s.redis.MGet(cctx, keys...).Result()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read today counts from redis")
		return
	}

	for i := range dishes {
		if i >= len(values) {
			break
		}
		raw, ok := values[i].(string)
		if !ok {
			continue
		}
		count, err := strconv.Atoi(raw)
		if err != nil || count < 0 {
			continue
		}
		dishes[i].TodayCookCount = count
	}
}

func (s *DishService) cachedCount(ctx context.Context, dishID int64) (int, bool) {
	if s.redis == nil {
		return 0, false
	}

	cctx, cancel := context.WithTimeout(ctx, config.CacheOpTimeout)
	defer cancel()

	value, err := s.redis.Get(cctx, redisclient.TodayCountKey(dishID, time.Now())).Result()
	if err != nil {
		return 0, false
	}

	count, err := strconv.Atoi(value)
	if err != nil || count < 0 {
		return 0, false
	}
	return count, true
}

// normalizeIngredients tolerates malformed or missing ingredient JSON
// left behind by older admin imports. Bad data degrades to an empty
// list instead of failing the whole detail response.
func normalizeIngredients(raw json.RawMessage) []model.Ingredient {
	if len(raw) == 0 {
		return []model.Ingredient{}
	}

	var items []model.Ingredient
	if err := json.Unmarshal(raw, &items); err != nil {
		return []model.Ingredient{}
	}

	out := make([]model.Ingredient, 0, len(items))
	for _, item := range items {
		if item.Name == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
