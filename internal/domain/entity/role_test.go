package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, Role("").IsValid())
	assert.False(t, Role("Admin").IsValid())
}

func TestRoleOrDefault(t *testing.T) {
	tests := []struct {
		stored string
		want   Role
	}{
		{stored: "admin", want: RoleAdmin},
		{stored: "user", want: RoleUser},
		{stored: "", want: RoleUser},
		{stored: "superuser", want: RoleUser},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoleOrDefault(tt.stored), "stored %q", tt.stored)
	}
}
