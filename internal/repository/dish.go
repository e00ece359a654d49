package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/chefascend/cook-server-go/internal/database"
	"github.com/chefascend/cook-server-go/internal/model"
)

type DishRepository interface {
	ActiveExists(ctx context.Context, dishID int64) (bool, error)
	GetStepSummary(ctx context.Context, dishID int64) (*model.StepSummary, error)
	ListForCatalog(ctx context.Context, q model.CatalogQuery) ([]model.CatalogDish, int, error)
	FindActiveDetailByID(ctx context.Context, dishID int64) (*model.DishDetail, []model.DishStep, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) DishRepository
}

var catalogOrderBy = map[model.DishSort]string{
	model.DishSortPopularToday: "COALESCE(v.today_total_count, 0) DESC, d.created_at DESC",
	model.DishSortLatest:       "d.created_at DESC",
	model.DishSortDurationAsc:  "d.estimated_total_seconds ASC, d.created_at DESC",
	model.DishSortDurationDesc: "d.estimated_total_seconds DESC, d.created_at DESC",
}

type dishRepo struct {
	db database.DBTX
}

func NewDishRepository(db *sqlx.DB) DishRepository {
	return &dishRepo{db: db}
}

func (r *dishRepo) WithTx(tx *sqlx.Tx) DishRepository {
	return &dishRepo{db: tx}
}

func (r *dishRepo) ActiveExists(ctx context.Context, dishID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM dishes WHERE id = $1 AND is_active = TRUE
		)
	`, dishID)
	return exists, err
}

func (r *dishRepo) GetStepSummary(ctx context.Context, dishID int64) (*model.StepSummary, error) {
	var summary model.StepSummary
	err := r.db.GetContext(ctx, &summary, `
		SELECT
			COUNT(*)::int AS step_count,
			MIN(step_no)::int AS first_step_no,
			MAX(step_no)::int AS max_step_no,
			COALESCE((
				SELECT timer_seconds
				FROM dish_steps
				WHERE dish_id = $1
				ORDER BY step_no ASC
				LIMIT 1
			), 0)::int AS first_timer_seconds
		FROM dish_steps
		WHERE dish_id = $1
	`, dishID)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *dishRepo) ListForCatalog(ctx context.Context, q model.CatalogQuery) ([]model.CatalogDish, int, error) {
	whereSQL, params := buildCatalogWhere(q)
	orderSQL, ok := catalogOrderBy[q.Sort]
	if !ok {
		orderSQL = catalogOrderBy[model.DishSortPopularToday]
	}

	var total int
	err := r.db.GetContext(ctx, &total, fmt.Sprintf(`
		SELECT COUNT(*) FROM dishes d WHERE %s
	`, whereSQL), params...)
	if err != nil {
		return nil, 0, err
	}

	pageParams := append(params, q.PageSize, (q.Page-1)*q.PageSize)
	limitIdx := len(params) + 1
	offsetIdx := len(params) + 2

	var dishes []model.CatalogDish
	err = r.db.SelectContext(ctx, &dishes, fmt.Sprintf(`
		SELECT
			d.id,
			d.name,
			d.difficulty,
			d.estimated_total_seconds,
			d.cover_image_url,
			COALESCE(v.today_total_count, 0)::int AS db_today_count
		FROM dishes d
		LEFT JOIN v_dish_today_counts v ON v.dish_id = d.id
		WHERE %s
		ORDER BY %s, d.id ASC
		LIMIT $%d
		OFFSET $%d
	`, whereSQL, orderSQL, limitIdx, offsetIdx), pageParams...)
	if err != nil {
		return nil, 0, err
	}

	return dishes, total, nil
}

func buildCatalogWhere(q model.CatalogQuery) (string, []interface{}) {
	conditions := []string{"d.is_active = TRUE"}
	params := make([]interface{}, 0, 2)

	if q.Difficulty != nil {
		params = append(params, *q.Difficulty)
		conditions = append(conditions, fmt.Sprintf("d.difficulty = $%d", len(params)))
	}

	if q.CategoryID != nil {
		params = append(params, *q.CategoryID)
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
			SELECT 1
			FROM dish_category_links dcl
			WHERE dcl.dish_id = d.id
			  AND dcl.category_id = $%d
		)`, len(params)))
	}

	return strings.Join(conditions, " AND "), params
}

func (r *dishRepo) FindActiveDetailByID(ctx context.Context, dishID int64) (*model.DishDetail, []model.DishStep, error) {
	var dish model.DishDetail
	err := r.db.GetContext(ctx, &dish, `
		SELECT
			d.id,
			d.name,
			d.description,
			d.difficulty,
			d.estimated_total_seconds,
			d.cover_image_url,
			d.ingredients_json,
			COALESCE(v.today_total_count, 0)::int AS db_today_count
		FROM dishes d
		LEFT JOIN v_dish_today_counts v ON v.dish_id = d.id
		WHERE d.id = $1
		  AND d.is_active = TRUE
		LIMIT 1
	`, dishID)
	detail, err := HandleNotFound(&dish, err)
	if err != nil || detail == nil {
		return nil, nil, err
	}

	var steps []model.DishStep
	err = r.db.SelectContext(ctx, &steps, `
		SELECT step_no, title, instruction, timer_seconds, remind_mode
		FROM dish_steps
		WHERE dish_id = $1
		ORDER BY step_no ASC
	`, dishID)
	if err != nil {
		return nil, nil, err
	}

	return detail, steps, nil
}
