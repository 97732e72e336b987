// Package middleware holds the echo middleware specific to the JSON API.
package middleware

import (
	"strings"

	"healthtrack/internal/delivery/api/response"
	deliverycontext "healthtrack/internal/delivery/context"
	"healthtrack/internal/domain/entity"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/domain/service"
	"healthtrack/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const bearerPrefix = "Bearer "

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	TokenService service.TokenService
	UserUC       usecase.UserUsecase
}

// AuthMiddleware checks the bearer access token of protected routes
type AuthMiddleware struct {
	tokenService service.TokenService
	userUC       usecase.UserUsecase
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: params.TokenService,
		userUC:       params.UserUC,
	}
}

// Authenticate rejects requests without a valid access token and records the
// caller's user ID and claimed role on the echo context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return response.Unauthorized(c, "MISSING_TOKEN", "Authorization header must carry a bearer token")
		}

		claims, err := m.tokenService.ValidateToken(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil || claims.UserID == 0 {
			return response.Unauthorized(c, "TOKEN_INVALID", "invalid or expired token")
		}

		deliverycontext.SetUserID(c, claims.UserID)
		deliverycontext.SetRole(c, claims.Role.String())

		return next(c)
	}
}

// RequireRole admits callers holding the given role. It must be used AFTER
// Authenticate. The token claim is checked first; the stored account then has
// to be active and still hold the role, so a demotion or deactivation takes
// effect before the token expires.
func (m *AuthMiddleware) RequireRole(requiredRole entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := deliverycontext.GetUserID(c)
			if !ok {
				return response.Unauthorized(c, "MISSING_TOKEN", "Authorization header must carry a bearer token")
			}
			if deliverycontext.GetRole(c) != requiredRole.String() {
				return response.HandleAppError(c, domainerrors.ErrForbidden)
			}

			user, err := m.userUC.GetByID(c.Request().Context(), userID)
			if err != nil {
				return response.HandleAppError(c, err)
			}
			if user.Role != requiredRole {
				return response.HandleAppError(c, domainerrors.ErrForbidden)
			}

			return next(c)
		}
	}
}

// GetUserID returns the authenticated caller.
func GetUserID(c echo.Context) (uint64, bool) {
	return deliverycontext.GetUserID(c)
}
