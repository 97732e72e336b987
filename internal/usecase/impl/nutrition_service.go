package impl

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"time"

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

// Daily intake thresholds and their effect on the health score.
const (
	baseHealthScore     = 80.0
	minDailyCalories    = 1200.0
	maxDailyCalories    = 2500.0
	minDailyProtein     = 50.0
	maxDailyFat         = 80.0
	lowCaloriesPenalty  = 10.0
	highCaloriesPenalty = 5.0
	lowProteinPenalty   = 8.0
	highFatPenalty      = 5.0
	balancedBonus       = 5.0
)

// Recommendation codes.
const (
	RecommendationLowCalories  = "LOW_CALORIES"
	RecommendationHighCalories = "HIGH_CALORIES"
	RecommendationLowProtein   = "LOW_PROTEIN"
	RecommendationHighFat      = "HIGH_FAT"
	RecommendationBalanced     = "BALANCED"
)

type nutritionService struct {
	foodRepo repository.FoodRepository
	userRepo repository.UserRepository
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NutritionServiceParams holds dependencies for NutritionService, injected by Fx.
type NutritionServiceParams struct {
	fx.In

	FoodRepo repository.FoodRepository
	UserRepo repository.UserRepository
	Validate *validator.Validate
	Logger   *slog.Logger
}

// NewNutritionService creates a new meal analysis service.
func NewNutritionService(params NutritionServiceParams) usecase.NutritionUsecase {
	validate := params.Validate
	if validate == nil {
		validate = validation.New()
	}

	return &nutritionService{
		foodRepo: params.FoodRepo,
		userRepo: params.UserRepo,
		validate: validate,
		logger:   params.Logger,
		now:      time.Now,
	}
}

// Analyze scales every portion from the per-100 g catalog values, totals the
// intake and scores it against the daily thresholds.
func (s *nutritionService) Analyze(ctx context.Context, input *usecase.AnalyzeNutritionInput) (*usecase.NutritionAnalysis, error) {
	if input == nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("request body is required")
	}
	if err := validation.Struct(s.validate, input); err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.FoodID)
	}

	foods, err := s.foodRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load foods")
	}

	analysis := &usecase.NutritionAnalysis{
		Items: make([]usecase.AnalyzedItem, 0, len(input.Items)),
	}
	fiber, sugar, sodium := newOptionalSum(), newOptionalSum(), newOptionalSum()
	for _, item := range input.Items {
		food, ok := foods[item.FoodID]
		if !ok {
			return nil, domainerrors.ErrFoodNotFound.WithDetails("food " + strconv.FormatUint(item.FoodID, 10))
		}

		nutrients := food.ForQuantity(item.Grams)
		analysis.Items = append(analysis.Items, usecase.AnalyzedItem{
			FoodID:    food.ID,
			Name:      food.Name,
			Grams:     item.Grams,
			Nutrients: nutrients,
		})

		analysis.Totals.Calories += nutrients.Calories
		analysis.Totals.Protein += nutrients.Protein
		analysis.Totals.Carbs += nutrients.Carbs
		analysis.Totals.Fat += nutrients.Fat
		fiber.add(nutrients.Fiber)
		sugar.add(nutrients.Sugar)
		sodium.add(nutrients.Sodium)
	}

	analysis.Totals.Fiber = fiber.total()
	analysis.Totals.Sugar = sugar.total()
	analysis.Totals.Sodium = sodium.total()
	for name, sum := range map[string]*optionalSum{"fiber": fiber, "sugar": sugar, "sodium": sodium} {
		if sum.unknown {
			analysis.Incomplete = append(analysis.Incomplete, name)
		}
	}
	slices.Sort(analysis.Incomplete)

	analysis.Recommendations, analysis.HealthScore = scoreIntake(analysis.Totals)

	deliverycontext.GetLoggerOrDefault(ctx, s.logger).Debug("Nutrition analysed",
		slog.Int("items", len(analysis.Items)),
		slog.Float64("calories", analysis.Totals.Calories),
		slog.Float64("healthScore", analysis.HealthScore),
	)

	return analysis, nil
}

// scoreIntake derives the findings and the 0-100 health score for a day of intake.
func scoreIntake(totals entity.Nutrients) ([]usecase.Recommendation, float64) {
	var recs []usecase.Recommendation
	score := baseHealthScore

	switch {
	case totals.Calories < minDailyCalories:
		recs = append(recs, usecase.Recommendation{
			Code:    RecommendationLowCalories,
			Message: "Calorie intake is low. Add healthy snacks between meals.",
		})
		score -= lowCaloriesPenalty
	case totals.Calories > maxDailyCalories:
		recs = append(recs, usecase.Recommendation{
			Code:    RecommendationHighCalories,
			Message: "Calorie intake is high. Consider smaller portions.",
		})
		score -= highCaloriesPenalty
	}

	if totals.Protein < minDailyProtein {
		recs = append(recs, usecase.Recommendation{
			Code:    RecommendationLowProtein,
			Message: "Protein intake is low. Add meat, fish, eggs or beans.",
		})
		score -= lowProteinPenalty
	}

	if totals.Fat > maxDailyFat {
		recs = append(recs, usecase.Recommendation{
			Code:    RecommendationHighFat,
			Message: "Fat intake is high. Prefer leaner foods.",
		})
		score -= highFatPenalty
	}

	if len(recs) == 0 {
		recs = append(recs, usecase.Recommendation{
			Code:    RecommendationBalanced,
			Message: "Your intake is well balanced. Keep it up.",
		})
		score += balancedBonus
	}

	return recs, math.Max(0, math.Min(100, score))
}

// optionalSum totals a nutrient that may be unknown for some foods.
type optionalSum struct {
	sum     float64
	unknown bool
}

func newOptionalSum() *optionalSum {
	return &optionalSum{}
}

func (o *optionalSum) add(v *float64) {
	if v == nil {
		o.unknown = true

		return
	}
	o.sum += *v
}

// total is nil once any contribution was unknown.
func (o *optionalSum) total() *float64 {
	if o.unknown {
		return nil
	}
	sum := o.sum

	return &sum
}
