// Package handler implements the HTTP endpoints on top of the use cases.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"healthtrack/internal/delivery/api/middleware"
	"healthtrack/internal/delivery/api/response"
	deliverycontext "healthtrack/internal/delivery/context"
	"healthtrack/internal/domain/entity"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// UserHandlerParams holds dependencies for UserHandler, injected by Fx.
type UserHandlerParams struct {
	fx.In

	UserUC usecase.UserUsecase
	Logger *slog.Logger
}

// UserHandler holds dependencies for account-related handlers
type UserHandler struct {
	userUC usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler
func NewUserHandler(params UserHandlerParams) *UserHandler {
	return &UserHandler{
		userUC: params.UserUC,
		logger: params.Logger,
	}
}

// RegisterRequest is the registration body. DateOfBirth is a YYYY-MM-DD string.
type RegisterRequest struct {
	usecase.RegisterUserInput

	DateOfBirth *string `json:"dateOfBirth"`
}

// UpdateProfileRequest is the profile patch body. DateOfBirth is a YYYY-MM-DD
// string, or null to clear it.
type UpdateProfileRequest struct {
	usecase.UserPatch

	DateOfBirth entity.Nullable[string] `json:"dateOfBirth"`
}

// Register handles account creation
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}

	input := req.RegisterUserInput
	if req.DateOfBirth != nil {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			return response.HandleAppError(c, err)
		}
		input.DateOfBirth = &dob
	}

	user, err := h.userUC.Register(c.Request().Context(), &input)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).
		Info("User registered", slog.Uint64("user_id", user.ID))

	return response.Success(c, http.StatusCreated, h.userUC.ToPublicView(user))
}

// Login handles credential verification and token issuance
func (h *UserHandler) Login(c echo.Context) error {
	var input usecase.LoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}

	output, err := h.userUC.Login(c.Request().Context(), &input)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, output)
}

// GetProfile returns the caller's account
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_INVALID", "Invalid user ID in token")
	}

	user, err := h.userUC.GetByID(c.Request().Context(), userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, h.userUC.ToPublicView(user))
}

// UpdateProfile applies a partial update to the caller's account
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_INVALID", "Invalid user ID in token")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}

	patch := req.UserPatch
	switch {
	case !req.DateOfBirth.Set:
	case !req.DateOfBirth.Valid:
		patch.DateOfBirth = entity.Null[time.Time]()
	default:
		dob, err := parseDate(req.DateOfBirth.Value)
		if err != nil {
			return response.HandleAppError(c, err)
		}
		patch.DateOfBirth = entity.Some(dob)
	}

	user, err := h.userUC.UpdateProfile(c.Request().Context(), userID, &patch)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, h.userUC.ToPublicView(user))
}

// Deactivate disables the caller's account
func (h *UserHandler) Deactivate(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_INVALID", "Invalid user ID in token")
	}

	if err := h.userUC.Deactivate(c.Request().Context(), userID); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.NoContent(c)
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return time.Time{}, domainerrors.ErrValidationFailed.WithDetails("dateOfBirth: must be a date in YYYY-MM-DD format")
	}

	return t, nil
}
