package model

import (
	"time"

	"gorm.io/datatypes"
)

// UserModel mirrors the 'users' table. Email is stored normalized, so the unique
// index makes addresses unique regardless of case.
type UserModel struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement"`
	Email          string          `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null"`
	Password       string          `gorm:"type:varchar(255);not null"`
	FullName       string          `gorm:"type:varchar(255);not null"`
	DateOfBirth    *datatypes.Date `gorm:"type:date"`
	Gender         *string         `gorm:"type:varchar(10)"`
	Height         *float64
	Weight         *float64
	ActivityLevel  string `gorm:"type:varchar(20);not null;default:'moderately_active'"`
	Goal           string `gorm:"type:varchar(20);not null;default:'maintain_weight'"`
	Role           string `gorm:"type:varchar(20);not null;default:'user'"`
	TargetWeight   *float64
	TargetCalories *int
	Avatar         *string `gorm:"type:varchar(500)"`
	IsActive       *bool   `gorm:"not null;default:true"`
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
