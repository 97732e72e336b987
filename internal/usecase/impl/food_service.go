package impl

import (
	"context"
	"log/slog"

	"healthtrack/config"
	deliverycontext "healthtrack/internal/delivery/context"
	"healthtrack/internal/domain/entity"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/domain/repository"
	"healthtrack/internal/errors"
	"healthtrack/internal/usecase"
	"healthtrack/internal/validation"

	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
)

const (
	defaultFoodPageSize = 20
	maxFoodPageSize     = 100
)

// foodService implements the FoodUsecase interface.
type foodService struct {
	txManager       repository.TransactionManager
	foodRepo        repository.FoodRepository
	validate        *validator.Validate
	defaultPageSize int
	maxPageSize     int
	logger          *slog.Logger
}

// FoodServiceParams holds dependencies for FoodService, injected by Fx.
type FoodServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	FoodRepo  repository.FoodRepository
	Validate  *validator.Validate
	Config    *config.Config
	Logger    *slog.Logger
}

// NewFoodService creates a new food catalog service.
func NewFoodService(params FoodServiceParams) usecase.FoodUsecase {
	validate := params.Validate
	if validate == nil {
		validate = validation.New()
	}

	defaultPageSize, maxPageSize := defaultFoodPageSize, maxFoodPageSize
	if params.Config != nil && params.Config.Food != nil {
		if params.Config.Food.MaxPageSize > 0 {
			maxPageSize = params.Config.Food.MaxPageSize
		}
		if params.Config.Food.DefaultPageSize > 0 {
			defaultPageSize = min(params.Config.Food.DefaultPageSize, maxPageSize)
		}
	}

	return &foodService{
		txManager:       params.TxManager,
		foodRepo:        params.FoodRepo,
		validate:        validate,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (s *foodService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, s.logger)
}

// Create validates the input, fills in defaults and stores the new entry.
func (s *foodService) Create(ctx context.Context, input *usecase.CreateFoodInput) (*entity.Food, error) {
	if input == nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("request body is required")
	}
	if err := validation.Struct(s.validate, input); err != nil {
		return nil, err
	}

	food := buildNewFood(input)
	if err := validation.Struct(s.validate, food); err != nil {
		return nil, err
	}

	err := s.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.FoodRepo().Create(ctx, food)
	})
	if err != nil {
		s.log(ctx).Error("Failed to create food", slog.String("name", food.Name), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create food")
	}

	s.log(ctx).Info("Food created", slog.Uint64("foodID", food.ID), slog.String("name", food.Name))

	return food, nil
}

// buildNewFood applies the catalog defaults: 100 g servings, Vietnamese and
// unverified entries, and 0 for every omitted nutrient. A nutrient sent as
// null stays nil.
func buildNewFood(input *usecase.CreateFoodInput) *entity.Food {
	return &entity.Food{
		Name:           input.Name,
		NameVietnamese: input.NameVietnamese,
		Description:    input.Description,
		Category:       input.Category,
		Calories:       *input.Calories,
		Protein:        valueOr(input.Protein, 0),
		Carbs:          valueOr(input.Carbs, 0),
		Fat:            valueOr(input.Fat, 0),
		Fiber:          nutrientOrZero(input.Fiber),
		Sugar:          nutrientOrZero(input.Sugar),
		Sodium:         nutrientOrZero(input.Sodium),
		ServingSize:    valueOr(input.ServingSize, entity.DefaultServingSize),
		ServingUnit:    valueOr(input.ServingUnit, entity.DefaultServingUnit),
		ImageURL:       input.ImageURL,
		IsVietnamese:   valueOr(input.IsVietnamese, true),
		IsVerified:     valueOr(input.IsVerified, false),
		Source:         input.Source,
		Tags:           input.Tags,
	}
}

// nutrientOrZero maps an omitted value to 0 and an explicit null to nil.
func nutrientOrZero(n entity.Nullable[float64]) *float64 {
	if !n.Set {
		zero := 0.0

		return &zero
	}

	return n.Ptr()
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}

	return *v
}

// Update merges the present fields of patch into the stored entry, re-validates
// the merged entry and writes it back.
func (s *foodService) Update(ctx context.Context, id uint64, patch *usecase.FoodPatch) (*entity.Food, error) {
	if patch == nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("request body is required")
	}

	var updated *entity.Food
	err := s.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		foodRepo := repoFactory.FoodRepo()
		food, err := foodRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		applyFoodPatch(food, patch)
		if err := validation.Struct(s.validate, food); err != nil {
			return err
		}
		if err := foodRepo.Save(ctx, food); err != nil {
			return err
		}
		updated = food

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to update food")
	}

	s.log(ctx).Info("Food updated", slog.Uint64("foodID", id))

	return updated, nil
}

func applyFoodPatch(food *entity.Food, patch *usecase.FoodPatch) {
	if patch.Name != nil {
		food.Name = *patch.Name
	}
	applyNullable(&food.NameVietnamese, patch.NameVietnamese)
	applyNullable(&food.Description, patch.Description)
	applyNullable(&food.Category, patch.Category)
	if patch.Calories != nil {
		food.Calories = *patch.Calories
	}
	if patch.Protein != nil {
		food.Protein = *patch.Protein
	}
	if patch.Carbs != nil {
		food.Carbs = *patch.Carbs
	}
	if patch.Fat != nil {
		food.Fat = *patch.Fat
	}
	applyNullable(&food.Fiber, patch.Fiber)
	applyNullable(&food.Sugar, patch.Sugar)
	applyNullable(&food.Sodium, patch.Sodium)
	if patch.ServingSize != nil {
		food.ServingSize = *patch.ServingSize
	}
	if patch.ServingUnit != nil {
		food.ServingUnit = *patch.ServingUnit
	}
	applyNullable(&food.ImageURL, patch.ImageURL)
	if patch.IsVietnamese != nil {
		food.IsVietnamese = *patch.IsVietnamese
	}
	if patch.IsVerified != nil {
		food.IsVerified = *patch.IsVerified
	}
	applyNullable(&food.Source, patch.Source)
	if patch.Tags.Set {
		food.Tags = patch.Tags.Value
		if !patch.Tags.Valid {
			food.Tags = nil
		}
	}
}

func applyNullable[T any](dst **T, n entity.Nullable[T]) {
	if n.Set {
		*dst = n.Ptr()
	}
}

// FindByID loads one catalog entry.
func (s *foodService) FindByID(ctx context.Context, id uint64) (*entity.Food, error) {
	food, err := s.foodRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find food")
	}

	return food, nil
}

// FindByName matches name or nameVietnamese exactly, ignoring case.
func (s *foodService) FindByName(ctx context.Context, name string) ([]*entity.Food, error) {
	foods, err := s.foodRepo.FindByName(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find foods by name")
	}

	return foods, nil
}

// Search returns one page of the catalog ordered by ID.
func (s *foodService) Search(ctx context.Context, input *usecase.SearchFoodsInput) (*usecase.FoodPage, error) {
	if input == nil {
		input = &usecase.SearchFoodsInput{}
	}
	if err := validation.Struct(s.validate, input); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit == 0 {
		limit = s.defaultPageSize
	}
	limit = min(limit, s.maxPageSize)

	foods, total, err := s.foodRepo.Search(ctx, repository.FoodFilter{
		Name:       input.Name,
		Category:   input.Category,
		Vietnamese: input.Vietnamese,
		Verified:   input.Verified,
		Limit:      limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search foods")
	}

	return &usecase.FoodPage{
		Foods:  foods,
		Total:  total,
		Limit:  limit,
		Offset: input.Offset,
	}, nil
}
