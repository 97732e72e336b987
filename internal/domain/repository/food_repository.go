package repository

import (
	"context"

	"healthtrack/internal/domain/entity"
)

// FoodFilter narrows a catalog search. Nil fields do not constrain the result.
type FoodFilter struct {
	Name        *string // Case-insensitive substring of name or nameVietnamese.
	Category    *string // Case-insensitive exact category.
	Vietnamese  *bool
	Verified    *bool
	MinCalories *float64 // Inclusive, per NutrientBasis.
	MaxCalories *float64 // Inclusive, per NutrientBasis.
	Limit       int
	Offset      int
}

// FoodRepository defines the persistence operations of the food catalog.
// Lookups by ID return domainerrors.ErrFoodNotFound when no row matches.
type FoodRepository interface {
	FindByID(ctx context.Context, id uint64) (*entity.Food, error)

	// FindByIDs returns the foods that exist among ids, keyed by ID.
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*entity.Food, error)

	// FindByName matches name or nameVietnamese exactly, ignoring case.
	FindByName(ctx context.Context, name string) ([]*entity.Food, error)

	// Search returns one page of foods ordered by ID, plus the total match count.
	Search(ctx context.Context, filter FoodFilter) ([]*entity.Food, int64, error)

	// Create persists a new food; the generated ID and timestamps are written back.
	Create(ctx context.Context, food *entity.Food) error

	// Save overwrites every column of an existing food.
	Save(ctx context.Context, food *entity.Food) error
}
