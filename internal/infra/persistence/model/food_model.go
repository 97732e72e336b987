package model

import (
	"time"

	"gorm.io/datatypes"
)

// FoodModel mirrors the 'foods' table. Nutrient columns hold values per 100 g (or ml).
// Fiber, Sugar and Sodium are nullable on purpose: NULL means unknown, 0 means none.
type FoodModel struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement"`
	Name           string  `gorm:"type:varchar(255);not null;index:idx_foods_name"`
	NameVietnamese *string `gorm:"type:varchar(255);index:idx_foods_name_vietnamese"`
	Description    *string `gorm:"type:text"`
	Category       *string `gorm:"type:varchar(100);index:idx_foods_category"`
	Calories       float64 `gorm:"not null"`
	Protein        float64 `gorm:"not null;default:0"`
	Carbs          float64 `gorm:"not null;default:0"`
	Fat            float64 `gorm:"not null;default:0"`
	Fiber          *float64
	Sugar          *float64
	Sodium         *float64
	ServingSize    float64 `gorm:"not null;default:100"`
	ServingUnit    string  `gorm:"type:varchar(50);not null;default:'g'"`
	ImageURL       *string `gorm:"column:image_url;type:varchar(500)"`
	IsVietnamese   *bool   `gorm:"not null;default:true;index:idx_foods_is_vietnamese"`
	IsVerified     *bool   `gorm:"not null;default:false"`
	Source         *string `gorm:"type:varchar(255)"`
	Tags           datatypes.JSONSlice[string]
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (FoodModel) TableName() string {
	return "foods"
}
