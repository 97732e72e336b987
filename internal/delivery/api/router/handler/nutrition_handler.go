package handler

import (
	"net/http"

	"healthtrack/internal/delivery/api/middleware"
	"healthtrack/internal/delivery/api/response"
	"healthtrack/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// NutritionHandlerParams holds dependencies for NutritionHandler, injected by Fx.
type NutritionHandlerParams struct {
	fx.In

	NutritionUC usecase.NutritionUsecase
}

// NutritionHandler serves meal analysis and personal recommendations
type NutritionHandler struct {
	nutritionUC usecase.NutritionUsecase
}

// NewNutritionHandler is the constructor for NutritionHandler
func NewNutritionHandler(params NutritionHandlerParams) *NutritionHandler {
	return &NutritionHandler{nutritionUC: params.NutritionUC}
}

// Analyze totals the posted portions and scores the intake
func (h *NutritionHandler) Analyze(c echo.Context) error {
	var input usecase.AnalyzeNutritionInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid nutrition input")
	}

	analysis, err := h.nutritionUC.Analyze(c.Request().Context(), &input)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, analysis)
}

// Recommend returns meal, exercise and habit suggestions for the caller
func (h *NutritionHandler) Recommend(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_INVALID", "Invalid user ID in token")
	}

	plan, err := h.nutritionUC.Recommend(c.Request().Context(), userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, plan)
}
