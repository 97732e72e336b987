package usecase

import (
	"context"

	"healthtrack/internal/domain/entity"
)

// CreateFoodInput describes a new catalog entry. Calories is required; the
// other nutrients default to 0 when omitted. Fiber, Sugar and Sodium may be
// sent as null to record that the value is unknown.
type CreateFoodInput struct {
	Name           string                   `json:"name" validate:"required,notblank,max=255"`
	NameVietnamese *string                  `json:"nameVietnamese" validate:"omitempty,max=255"`
	Description    *string                  `json:"description"`
	Category       *string                  `json:"category" validate:"omitempty,max=100"`
	Calories       *float64                 `json:"calories" validate:"required,gte=0"`
	Protein        *float64                 `json:"protein" validate:"omitempty,gte=0"`
	Carbs          *float64                 `json:"carbs" validate:"omitempty,gte=0"`
	Fat            *float64                 `json:"fat" validate:"omitempty,gte=0"`
	Fiber          entity.Nullable[float64] `json:"fiber" validate:"omitempty,gte=0"`
	Sugar          entity.Nullable[float64] `json:"sugar" validate:"omitempty,gte=0"`
	Sodium         entity.Nullable[float64] `json:"sodium" validate:"omitempty,gte=0"`
	ServingSize    *float64                 `json:"servingSize" validate:"omitempty,gt=0"`
	ServingUnit    *string                  `json:"servingUnit" validate:"omitempty,notblank,max=50"`
	ImageURL       *string                  `json:"imageUrl" validate:"omitempty,max=500"`
	IsVietnamese   *bool                    `json:"isVietnamese"`
	IsVerified     *bool                    `json:"isVerified"`
	Source         *string                  `json:"source" validate:"omitempty,max=255"`
	Tags           []string                 `json:"tags"`
}

// FoodPatch lists the catalog fields to change. Nil pointers and unset Nullable
// fields are left alone; an explicit null clears an optional field.
type FoodPatch struct {
	Name           *string                   `json:"name"`
	NameVietnamese entity.Nullable[string]   `json:"nameVietnamese"`
	Description    entity.Nullable[string]   `json:"description"`
	Category       entity.Nullable[string]   `json:"category"`
	Calories       *float64                  `json:"calories"`
	Protein        *float64                  `json:"protein"`
	Carbs          *float64                  `json:"carbs"`
	Fat            *float64                  `json:"fat"`
	Fiber          entity.Nullable[float64]  `json:"fiber"`
	Sugar          entity.Nullable[float64]  `json:"sugar"`
	Sodium         entity.Nullable[float64]  `json:"sodium"`
	ServingSize    *float64                  `json:"servingSize"`
	ServingUnit    *string                   `json:"servingUnit"`
	ImageURL       entity.Nullable[string]   `json:"imageUrl"`
	IsVietnamese   *bool                     `json:"isVietnamese"`
	IsVerified     *bool                     `json:"isVerified"`
	Source         entity.Nullable[string]   `json:"source"`
	Tags           entity.Nullable[[]string] `json:"tags"`
}

// SearchFoodsInput narrows a catalog search. A zero Limit means the configured default page size.
type SearchFoodsInput struct {
	Name       *string `query:"name"`
	Category   *string `query:"category"`
	Vietnamese *bool   `query:"vietnamese"`
	Verified   *bool   `query:"verified"`
	Limit      int     `query:"limit" validate:"gte=0"`
	Offset     int     `query:"offset" validate:"gte=0"`
}

// FoodPage is one page of search results.
type FoodPage struct {
	Foods  []*entity.Food `json:"foods"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// FoodUsecase defines the food catalog operations.
type FoodUsecase interface {
	// Create validates input, applies defaults and stores the new entry.
	Create(ctx context.Context, input *CreateFoodInput) (*entity.Food, error)

	// Update merges patch into the stored entry and re-validates the result.
	Update(ctx context.Context, id uint64, patch *FoodPatch) (*entity.Food, error)

	FindByID(ctx context.Context, id uint64) (*entity.Food, error)

	// FindByName matches name or nameVietnamese exactly, ignoring case.
	FindByName(ctx context.Context, name string) ([]*entity.Food, error)

	Search(ctx context.Context, input *SearchFoodsInput) (*FoodPage, error)
}
