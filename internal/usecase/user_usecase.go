// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"healthtrack/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterUserInput defines the data required to register a new account.
// Optional profile fields left nil take their defaults.
type RegisterUserInput struct {
	Email          string                `json:"email" validate:"required,email,max=255"`
	Password       string                `json:"password" validate:"required,min=6,max=255"`
	FullName       string                `json:"fullName" validate:"required,notblank,max=255"`
	DateOfBirth    *time.Time            `json:"dateOfBirth"`
	Gender         *entity.Gender        `json:"gender" validate:"omitempty,enum"`
	Height         *float64              `json:"height" validate:"omitempty,gt=0"`
	Weight         *float64              `json:"weight" validate:"omitempty,gt=0"`
	ActivityLevel  *entity.ActivityLevel `json:"activityLevel" validate:"omitempty,enum"`
	Goal           *entity.Goal          `json:"goal" validate:"omitempty,enum"`
	TargetWeight   *float64              `json:"targetWeight" validate:"omitempty,gt=0"`
	TargetCalories *int                  `json:"targetCalories" validate:"omitempty,gt=0"`
	Avatar         *string               `json:"avatar" validate:"omitempty,max=500"`
}

// UserPatch lists the account fields to change. Nil pointers and unset
// Nullable fields are left alone; an explicit null clears an optional field.
type UserPatch struct {
	Email          *string                        `json:"email" validate:"omitempty,email,max=255"`
	Password       *string                        `json:"password" validate:"omitempty,min=6,max=255"`
	FullName       *string                        `json:"fullName" validate:"omitempty,notblank,max=255"`
	DateOfBirth    entity.Nullable[time.Time]     `json:"dateOfBirth"`
	Gender         entity.Nullable[entity.Gender] `json:"gender" validate:"omitempty,enum"`
	Height         entity.Nullable[float64]       `json:"height" validate:"omitempty,gt=0"`
	Weight         entity.Nullable[float64]       `json:"weight" validate:"omitempty,gt=0"`
	ActivityLevel  *entity.ActivityLevel          `json:"activityLevel" validate:"omitempty,enum"`
	Goal           *entity.Goal                   `json:"goal" validate:"omitempty,enum"`
	TargetWeight   entity.Nullable[float64]       `json:"targetWeight" validate:"omitempty,gt=0"`
	TargetCalories entity.Nullable[int]           `json:"targetCalories" validate:"omitempty,gt=0"`
	Avatar         entity.Nullable[string]        `json:"avatar" validate:"omitempty,max=500"`
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// --- Output DTOs ---

// LoginOutput carries the access token issued after a successful login.
type LoginOutput struct {
	AccessToken string             `json:"accessToken"`
	TokenType   string             `json:"tokenType"`
	ExpiresIn   int64              `json:"expiresIn"`
	User        *entity.PublicUser `json:"user"`
}

// UserUsecase defines the account and credential operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	// Register creates an account with a freshly hashed password.
	Register(ctx context.Context, input *RegisterUserInput) (*entity.User, error)

	// GetByID loads one active account. A deactivated account yields
	// domainerrors.ErrUserInactive.
	GetByID(ctx context.Context, id uint64) (*entity.User, error)

	// UpdateProfile writes only the fields present in patch. The stored hash is
	// untouched unless patch carries a new password.
	UpdateProfile(ctx context.Context, id uint64, patch *UserPatch) (*entity.User, error)

	// VerifyCredential reports whether candidate matches the password of the
	// account registered under email.
	VerifyCredential(ctx context.Context, email, candidate string) (bool, error)

	// Login verifies the credential of an active account and issues an access token.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// Deactivate disables an account without deleting it.
	Deactivate(ctx context.Context, id uint64) error

	// AssignRole sets the role of the account registered under email. It takes
	// effect on the caller's next request; tokens are not reissued.
	AssignRole(ctx context.Context, email string, role entity.Role) (*entity.User, error)

	// ToPublicView returns the representation of user that is safe to expose.
	ToPublicView(user *entity.User) *entity.PublicUser
}
