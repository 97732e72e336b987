package impl

import (
	"context"
	"log/slog"
	"math"
	"time"

	deliverycontext "healthtrack/internal/delivery/context"
	"healthtrack/internal/domain/entity"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/domain/repository"
	"healthtrack/internal/errors"
	"healthtrack/internal/usecase"
)

const (
	maxMealSuggestions = 5
	// goalCalorieDelta is the daily surplus or deficit applied for a weight goal.
	goalCalorieDelta = 500.0
)

// calorieBand bounds the per-100 g energy of foods suggested for a goal.
type calorieBand struct {
	min *float64
	max *float64
}

func bandFor(goal entity.Goal) calorieBand {
	switch goal {
	case entity.GoalLoseWeight:
		return calorieBand{max: ptrTo(150.0)}
	case entity.GoalGainWeight:
		return calorieBand{min: ptrTo(200.0)}
	default:
		return calorieBand{min: ptrTo(100.0), max: ptrTo(250.0)}
	}
}

var activityMultipliers = map[entity.ActivityLevel]float64{
	entity.ActivitySedentary:        1.2,
	entity.ActivityLightlyActive:    1.375,
	entity.ActivityModeratelyActive: 1.55,
	entity.ActivityVeryActive:       1.725,
	entity.ActivityExtremelyActive:  1.9,
}

var exercisesByActivity = map[entity.ActivityLevel][]usecase.ExerciseSuggestion{
	entity.ActivitySedentary: {
		{Name: "Brisk walking", DurationMinutes: 30, CaloriesBurned: 150},
		{Name: "Yoga", DurationMinutes: 45, CaloriesBurned: 120},
	},
	entity.ActivityLightlyActive: {
		{Name: "Brisk walking", DurationMinutes: 30, CaloriesBurned: 150},
		{Name: "Yoga", DurationMinutes: 45, CaloriesBurned: 120},
	},
	entity.ActivityModeratelyActive: {
		{Name: "Jogging", DurationMinutes: 30, CaloriesBurned: 300},
		{Name: "Cycling", DurationMinutes: 45, CaloriesBurned: 400},
	},
	entity.ActivityVeryActive: {
		{Name: "Interval running", DurationMinutes: 30, CaloriesBurned: 400},
		{Name: "Swimming", DurationMinutes: 45, CaloriesBurned: 450},
	},
	entity.ActivityExtremelyActive: {
		{Name: "Interval running", DurationMinutes: 30, CaloriesBurned: 400},
		{Name: "Swimming", DurationMinutes: 45, CaloriesBurned: 450},
	},
}

var strengthTraining = usecase.ExerciseSuggestion{Name: "Strength training", DurationMinutes: 45, CaloriesBurned: 250}

var commonHealthTips = []string{
	"Drink 2 to 3 litres of water a day.",
	"Eat 5 to 6 small meals instead of 3 large ones.",
	"Sleep 7 to 8 hours a night.",
	"Limit fast food and sweets.",
}

var goalHealthTips = map[entity.Goal]string{
	entity.GoalLoseWeight:     "Fill half the plate with vegetables to stay full on fewer calories.",
	entity.GoalMaintainWeight: "Weigh yourself weekly and adjust portions when the trend drifts.",
	entity.GoalGainWeight:     "Add a protein-rich snack after training.",
}

// Recommend picks catalog foods in the calorie band of the account's goal and
// pairs them with exercises for its activity level.
func (s *nutritionService) Recommend(ctx context.Context, userID uint64) (*usecase.RecommendationPlan, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	if !user.IsActive {
		return nil, domainerrors.ErrUserInactive
	}

	band := bandFor(user.Goal)
	foods, _, err := s.foodRepo.Search(ctx, repository.FoodFilter{
		MinCalories: band.min,
		MaxCalories: band.max,
		Limit:       maxMealSuggestions,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search foods")
	}

	meals := make([]usecase.MealSuggestion, 0, len(foods))
	for _, food := range foods {
		meals = append(meals, usecase.MealSuggestion{
			FoodID:         food.ID,
			Name:           food.Name,
			NameVietnamese: food.NameVietnamese,
			ServingSize:    food.ServingSize,
			ServingUnit:    food.ServingUnit,
			Calories:       math.Round(food.ForQuantity(food.ServingSize).Calories),
		})
	}

	exercises := append([]usecase.ExerciseSuggestion{}, exercisesByActivity[user.ActivityLevel]...)
	if len(exercises) == 0 {
		exercises = append(exercises, exercisesByActivity[entity.DefaultActivityLevel]...)
	}
	if user.Goal == entity.GoalGainWeight {
		exercises = append(exercises, strengthTraining)
	}

	tips := append([]string{}, commonHealthTips...)
	if tip, ok := goalHealthTips[user.Goal]; ok {
		tips = append(tips, tip)
	}

	plan := &usecase.RecommendationPlan{
		Goal:          user.Goal,
		ActivityLevel: user.ActivityLevel,
		DailyCalories: dailyCalorieTarget(user, s.now()),
		Meals:         meals,
		Exercises:     exercises,
		HealthTips:    tips,
	}

	deliverycontext.GetLoggerOrDefault(ctx, s.logger).Debug("Recommendations built",
		slog.Uint64("userID", userID),
		slog.String("goal", user.Goal.String()),
		slog.Int("meals", len(meals)),
	)

	return plan, nil
}

// dailyCalorieTarget prefers the target set on the profile. Otherwise it
// estimates expenditure with the Mifflin-St Jeor equation and shifts it by the
// goal; nil when weight, height, birth date or gender is missing.
func dailyCalorieTarget(user *entity.User, now time.Time) *float64 {
	if user.TargetCalories != nil {
		target := float64(*user.TargetCalories)

		return &target
	}
	if user.Weight == nil || user.Height == nil || user.DateOfBirth == nil || user.Gender == nil {
		return nil
	}

	bmr := 10*(*user.Weight) + 6.25*(*user.Height) - 5*float64(ageAt(*user.DateOfBirth, now))
	switch *user.Gender {
	case entity.GenderMale:
		bmr += 5
	case entity.GenderFemale:
		bmr -= 161
	default:
		bmr -= 78
	}

	multiplier, ok := activityMultipliers[user.ActivityLevel]
	if !ok {
		multiplier = activityMultipliers[entity.DefaultActivityLevel]
	}
	target := bmr * multiplier

	switch user.Goal {
	case entity.GoalLoseWeight:
		target = math.Max(target-goalCalorieDelta, minDailyCalories)
	case entity.GoalGainWeight:
		target += goalCalorieDelta
	}
	target = math.Round(target)

	return &target
}

// ageAt counts completed years between birth and now.
func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}

	return max(age, 0)
}

func ptrTo[T any](v T) *T {
	return &v
}
