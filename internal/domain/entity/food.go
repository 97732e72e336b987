package entity

import "time"

const (
	// DefaultServingSize is the serving size applied when a food is created without one.
	DefaultServingSize = 100.0
	// DefaultServingUnit is the serving unit applied when a food is created without one.
	DefaultServingUnit = "g"
	// NutrientBasis is the quantity (grams or millilitres) every nutrient value refers to.
	NutrientBasis = 100.0
)

// Food is a catalog entry describing the nutritional profile of one food item.
// All nutrient values are per NutrientBasis grams (or millilitres): energy in
// kcal, sodium in mg, everything else in g. A nil Fiber, Sugar or Sodium means
// the value is unknown, which is not the same as zero. ID is system-assigned,
// sequential and immutable; IsVerified marks nutritional data reviewed by an
// expert.
type Food struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name" validate:"required,notblank,max=255"`
	NameVietnamese *string   `json:"nameVietnamese,omitempty" validate:"omitempty,max=255"`
	Description    *string   `json:"description,omitempty"`
	Category       *string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Calories       float64   `json:"calories" validate:"gte=0"`
	Protein        float64   `json:"protein" validate:"gte=0"`
	Carbs          float64   `json:"carbs" validate:"gte=0"`
	Fat            float64   `json:"fat" validate:"gte=0"`
	Fiber          *float64  `json:"fiber" validate:"omitempty,gte=0"`
	Sugar          *float64  `json:"sugar" validate:"omitempty,gte=0"`
	Sodium         *float64  `json:"sodium" validate:"omitempty,gte=0"`
	ServingSize    float64   `json:"servingSize" validate:"gt=0"`
	ServingUnit    string    `json:"servingUnit" validate:"required,notblank,max=50"`
	ImageURL       *string   `json:"imageUrl,omitempty" validate:"omitempty,max=500"`
	IsVietnamese   bool      `json:"isVietnamese"`
	IsVerified     bool      `json:"isVerified"`
	Source         *string   `json:"source,omitempty" validate:"omitempty,max=255"`
	Tags           []string  `json:"tags,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Nutrients is an absolute nutrient amount for a given quantity of food.
// Fiber, Sugar and Sodium stay nil when the underlying value is unknown.
type Nutrients struct {
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Fiber    *float64 `json:"fiber"`
	Sugar    *float64 `json:"sugar"`
	Sodium   *float64 `json:"sodium"`
}

// ForQuantity scales the per-basis values to the given amount in grams (or ml).
func (f *Food) ForQuantity(amount float64) Nutrients {
	factor := amount / NutrientBasis

	return Nutrients{
		Calories: f.Calories * factor,
		Protein:  f.Protein * factor,
		Carbs:    f.Carbs * factor,
		Fat:      f.Fat * factor,
		Fiber:    scaleOptional(f.Fiber, factor),
		Sugar:    scaleOptional(f.Sugar, factor),
		Sodium:   scaleOptional(f.Sodium, factor),
	}
}

// PerServing returns the nutrients of one default serving.
func (f *Food) PerServing() Nutrients {
	return f.ForQuantity(f.ServingSize)
}

func scaleOptional(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * factor

	return &scaled
}
