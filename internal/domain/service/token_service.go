package service

import (
	"time"

	"healthtrack/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the custom claims carried by an access token.
type Claims struct {
	UserID uint64      `json:"uid"`
	Email  string      `json:"email"`
	Role   entity.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates access tokens.
type TokenService interface {
	// GenerateAccessToken signs a token for the given user. The role claim is a
	// hint for routing decisions; the stored role stays authoritative.
	GenerateAccessToken(userID uint64, email string, role entity.Role) (string, error)

	// ValidateToken parses a token string and returns its claims.
	ValidateToken(tokenString string) (*Claims, error)

	// AccessTokenTTL returns how long an issued token stays valid.
	AccessTokenTTL() time.Duration
}
