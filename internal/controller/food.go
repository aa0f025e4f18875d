package controller

import (
	"context"

	"pantry/internal/database"
	"pantry/internal/model"
)

// FoodController exposes read access to the imported food database.
type FoodController interface {
	ListFoods(ctx context.Context, limit, offset int) ([]model.FoodRecord, error)
	CountFoods(ctx context.Context) (int64, error)
}

type foodController struct {
	db database.Database
}

func NewFoodController(db database.Database) FoodController {
	return &foodController{db: db}
}

func (c *foodController) ListFoods(ctx context.Context, limit, offset int) ([]model.FoodRecord, error) {
	return c.db.ListFoods(ctx, limit, offset)
}

func (c *foodController) CountFoods(ctx context.Context) (int64, error) {
	return c.db.CountFoods(ctx)
}
