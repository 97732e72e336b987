// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"healthtrack/internal/domain/entity"
)

// UserRepository defines the standard operations for user persistence.
// Lookups return domainerrors.ErrUserNotFound when no row matches.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uint64) (*entity.User, error)

	// FindByEmail retrieves a single user by their normalized email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Create persists a new user; the generated ID and timestamps are written back.
	// A duplicate email yields domainerrors.ErrUserAlreadyExists.
	Create(ctx context.Context, user *entity.User) error

	// UpdateFields writes only the given columns of one user.
	// Columns absent from fields are left untouched in storage.
	UpdateFields(ctx context.Context, id uint64, fields UserFields) error
}

// UserFields is a column-name to value set for a partial user update.
type UserFields map[string]any

// Column names accepted by UserRepository.UpdateFields.
const (
	UserColumnEmail          = "email"
	UserColumnPassword       = "password"
	UserColumnFullName       = "full_name"
	UserColumnDateOfBirth    = "date_of_birth"
	UserColumnGender         = "gender"
	UserColumnHeight         = "height"
	UserColumnWeight         = "weight"
	UserColumnActivityLevel  = "activity_level"
	UserColumnGoal           = "goal"
	UserColumnRole           = "role"
	UserColumnTargetWeight   = "target_weight"
	UserColumnTargetCalories = "target_calories"
	UserColumnAvatar         = "avatar"
	UserColumnIsActive       = "is_active"
	UserColumnLastLogin      = "last_login"
)
