package model

import "encoding/json"

type CatalogDish struct {
	ID                    int64   `db:"id" json:"id"`
	Name                  string  `db:"name" json:"name"`
	Difficulty            int     `db:"difficulty" json:"difficulty"`
	EstimatedTotalSeconds int     `db:"estimated_total_seconds" json:"estimated_total_seconds"`
	CoverImageURL         *string `db:"cover_image_url" json:"cover_image_url"`
	TodayCookCount        int     `db:"db_today_count" json:"today_cook_count"`
}

type DishDetail struct {
	ID                    int64           `db:"id" json:"id"`
	Name                  string          `db:"name" json:"name"`
	Description           *string         `db:"description" json:"description"`
	Difficulty            int             `db:"difficulty" json:"difficulty"`
	EstimatedTotalSeconds int             `db:"estimated_total_seconds" json:"estimated_total_seconds"`
	CoverImageURL         *string         `db:"cover_image_url" json:"cover_image_url"`
	IngredientsJSON       json.RawMessage `db:"ingredients_json" json:"-"`
	TodayCookCount        int             `db:"db_today_count" json:"today_cook_count"`
}

type DishStep struct {
	StepNo       int    `db:"step_no" json:"step_no"`
	Title        string `db:"title" json:"title"`
	Instruction  string `db:"instruction" json:"instruction"`
	TimerSeconds int    `db:"timer_seconds" json:"timer_seconds"`
	RemindMode   string `db:"remind_mode" json:"remind_mode"`
}

type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// StepSummary aggregates a dish's step definitions at session start.
// FirstStepNo and MaxStepNo are nil for a stepless dish.
type StepSummary struct {
	StepCount         int  `db:"step_count"`
	FirstStepNo       *int `db:"first_step_no"`
	MaxStepNo         *int `db:"max_step_no"`
	FirstTimerSeconds int  `db:"first_timer_seconds"`
}

type CatalogQuery struct {
	Page       int
	PageSize   int
	CategoryID *int64
	Difficulty *int
	Sort       DishSort
}
