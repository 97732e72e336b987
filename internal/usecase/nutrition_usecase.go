package usecase

import (
	"context"

	"healthtrack/internal/domain/entity"
)

// MealItem is one eaten portion: a catalog food and the amount in grams (or ml).
type MealItem struct {
	FoodID uint64  `json:"foodId" validate:"required"`
	Grams  float64 `json:"grams" validate:"gt=0"`
}

// AnalyzeNutritionInput is a set of portions analysed together, typically one day of meals.
type AnalyzeNutritionInput struct {
	Items []MealItem `json:"items" validate:"required,min=1,max=100,dive"`
}

// AnalyzedItem is the nutrient contribution of one portion.
type AnalyzedItem struct {
	FoodID    uint64           `json:"foodId"`
	Name      string           `json:"name"`
	Grams     float64          `json:"grams"`
	Nutrients entity.Nutrients `json:"nutrients"`
}

// Recommendation is a dietary finding with a stable code for clients.
type Recommendation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NutritionAnalysis totals the portions and scores the intake from 0 to 100.
// Fiber, Sugar and Sodium totals are nil when any contributing food lacks the value;
// the affected nutrients are listed in Incomplete.
type NutritionAnalysis struct {
	Items           []AnalyzedItem   `json:"items"`
	Totals          entity.Nutrients `json:"totals"`
	Incomplete      []string         `json:"incomplete,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
	HealthScore     float64          `json:"healthScore"`
}

// MealSuggestion is a catalog food that fits the calorie band of a goal.
// Calories is the energy of one serving.
type MealSuggestion struct {
	FoodID         uint64  `json:"foodId"`
	Name           string  `json:"name"`
	NameVietnamese *string `json:"nameVietnamese,omitempty"`
	ServingSize    float64 `json:"servingSize"`
	ServingUnit    string  `json:"servingUnit"`
	Calories       float64 `json:"calories"`
}

// ExerciseSuggestion is an activity with its approximate energy cost.
type ExerciseSuggestion struct {
	Name            string  `json:"name"`
	DurationMinutes int     `json:"durationMinutes"`
	CaloriesBurned  float64 `json:"caloriesBurned"`
}

// RecommendationPlan is the personalised advice for one account. DailyCalories
// is nil when the profile lacks the data needed to estimate it.
type RecommendationPlan struct {
	Goal          entity.Goal          `json:"goal"`
	ActivityLevel entity.ActivityLevel `json:"activityLevel"`
	DailyCalories *float64             `json:"dailyCalories,omitempty"`
	Meals         []MealSuggestion     `json:"meals"`
	Exercises     []ExerciseSuggestion `json:"exercises"`
	HealthTips    []string             `json:"healthTips"`
}

// NutritionUsecase analyses meals against the food catalog.
type NutritionUsecase interface {
	Analyze(ctx context.Context, input *AnalyzeNutritionInput) (*NutritionAnalysis, error)

	// Recommend builds meal, exercise and habit suggestions from the goal and
	// activity level of an active account.
	Recommend(ctx context.Context, userID uint64) (*RecommendationPlan, error)
}
