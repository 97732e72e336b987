// Package entity contains the core business objects of the project.
package entity

import "github.com/pkg/errors"

// Gender is the self-reported gender on a user profile.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// String returns the string representation of the Gender.
func (g Gender) String() string {
	return string(g)
}

// IsValid checks if the Gender is one of the allowed values.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// UnmarshalText rejects anything outside the closed set.
func (g *Gender) UnmarshalText(text []byte) error {
	v := Gender(text)
	if !v.IsValid() {
		return errors.Errorf("invalid gender %q", text)
	}
	*g = v

	return nil
}

// ActivityLevel describes how physically active a user is day to day.
type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "sedentary"
	ActivityLightlyActive    ActivityLevel = "lightly_active"
	ActivityModeratelyActive ActivityLevel = "moderately_active"
	ActivityVeryActive       ActivityLevel = "very_active"
	ActivityExtremelyActive  ActivityLevel = "extremely_active"

	// DefaultActivityLevel is assigned at registration when none is given.
	DefaultActivityLevel = ActivityModeratelyActive
)

// String returns the string representation of the ActivityLevel.
func (a ActivityLevel) String() string {
	return string(a)
}

// IsValid checks if the ActivityLevel is one of the allowed values.
func (a ActivityLevel) IsValid() bool {
	switch a {
	case ActivitySedentary, ActivityLightlyActive, ActivityModeratelyActive, ActivityVeryActive, ActivityExtremelyActive:
		return true
	default:
		return false
	}
}

// UnmarshalText rejects anything outside the closed set.
func (a *ActivityLevel) UnmarshalText(text []byte) error {
	v := ActivityLevel(text)
	if !v.IsValid() {
		return errors.Errorf("invalid activity level %q", text)
	}
	*a = v

	return nil
}

// Goal is the body-weight goal a user is working towards.
type Goal string

const (
	GoalLoseWeight     Goal = "lose_weight"
	GoalMaintainWeight Goal = "maintain_weight"
	GoalGainWeight     Goal = "gain_weight"

	// DefaultGoal is assigned at registration when none is given.
	DefaultGoal = GoalMaintainWeight
)

// String returns the string representation of the Goal.
func (g Goal) String() string {
	return string(g)
}

// IsValid checks if the Goal is one of the allowed values.
func (g Goal) IsValid() bool {
	switch g {
	case GoalLoseWeight, GoalMaintainWeight, GoalGainWeight:
		return true
	default:
		return false
	}
}

// UnmarshalText rejects anything outside the closed set.
func (g *Goal) UnmarshalText(text []byte) error {
	v := Goal(text)
	if !v.IsValid() {
		return errors.Errorf("invalid goal %q", text)
	}
	*g = v

	return nil
}
