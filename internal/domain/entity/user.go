package entity

import (
	"log/slog"
	"strings"
	"time"
)

// User is a registered account: profile, goals and the password credential.
// PasswordHash never leaves the process; use Public for anything external.
type User struct {
	ID             uint64        // System-assigned, sequential.
	Email          string        // Normalized with NormalizeEmail; globally unique.
	PasswordHash   string        `json:"-"` // bcrypt hash; the raw password is never stored.
	FullName       string        // Display name.
	DateOfBirth    *time.Time    // Calendar date only.
	Gender         *Gender       // Optional.
	Height         *float64      // Centimetres.
	Weight         *float64      // Kilograms.
	ActivityLevel  ActivityLevel // Defaults to DefaultActivityLevel.
	Goal           Goal          // Defaults to DefaultGoal.
	Role           Role          // RoleUser unless promoted.
	TargetWeight   *float64      // Kilograms.
	TargetCalories *int          // kcal per day.
	Avatar         *string       // Image reference.
	IsActive       bool          // Deactivation clears this flag instead of deleting the row.
	LastLogin      *time.Time    // Set on each successful login.
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PublicUser is the external representation of a User. It has no password field.
type PublicUser struct {
	ID             uint64        `json:"id"`
	Email          string        `json:"email"`
	FullName       string        `json:"fullName"`
	DateOfBirth    *string       `json:"dateOfBirth,omitempty"`
	Gender         *Gender       `json:"gender,omitempty"`
	Height         *float64      `json:"height,omitempty"`
	Weight         *float64      `json:"weight,omitempty"`
	ActivityLevel  ActivityLevel `json:"activityLevel"`
	Goal           Goal          `json:"goal"`
	Role           Role          `json:"role"`
	TargetWeight   *float64      `json:"targetWeight,omitempty"`
	TargetCalories *int          `json:"targetCalories,omitempty"`
	Avatar         *string       `json:"avatar,omitempty"`
	IsActive       bool          `json:"isActive"`
	LastLogin      *time.Time    `json:"lastLogin,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// DateLayout is the wire format of DateOfBirth.
const DateLayout = time.DateOnly

// Public strips the credential from the account.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}

	var dob *string
	if u.DateOfBirth != nil {
		s := u.DateOfBirth.Format(DateLayout)
		dob = &s
	}

	return &PublicUser{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		DateOfBirth:    dob,
		Gender:         u.Gender,
		Height:         u.Height,
		Weight:         u.Weight,
		ActivityLevel:  u.ActivityLevel,
		Goal:           u.Goal,
		Role:           u.Role,
		TargetWeight:   u.TargetWeight,
		TargetCalories: u.TargetCalories,
		Avatar:         u.Avatar,
		IsActive:       u.IsActive,
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// LogValue keeps the hash out of structured logs when a User is logged directly.
func (u *User) LogValue() slog.Value {
	if u == nil {
		return slog.AnyValue(nil)
	}

	return slog.GroupValue(
		slog.Uint64("id", u.ID),
		slog.String("email", u.Email),
		slog.String("role", u.Role.String()),
		slog.Bool("isActive", u.IsActive),
	)
}

// NormalizeEmail is the canonical stored form of an email: trimmed and lower-cased,
// which makes uniqueness case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
