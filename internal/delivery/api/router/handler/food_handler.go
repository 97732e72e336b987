package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"healthtrack/internal/delivery/api/response"
	deliverycontext "healthtrack/internal/delivery/context"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// FoodHandlerParams holds dependencies for FoodHandler, injected by Fx.
type FoodHandlerParams struct {
	fx.In

	FoodUC usecase.FoodUsecase
	Logger *slog.Logger
}

// FoodHandler holds dependencies for catalog handlers
type FoodHandler struct {
	foodUC usecase.FoodUsecase
	logger *slog.Logger
}

// NewFoodHandler is the constructor for FoodHandler
func NewFoodHandler(params FoodHandlerParams) *FoodHandler {
	return &FoodHandler{
		foodUC: params.FoodUC,
		logger: params.Logger,
	}
}

// CreateFood adds a catalog entry
func (h *FoodHandler) CreateFood(c echo.Context) error {
	var input usecase.CreateFoodInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid food input")
	}

	food, err := h.foodUC.Create(c.Request().Context(), &input)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).
		Info("Food created", slog.Uint64("food_id", food.ID))

	return response.Success(c, http.StatusCreated, food)
}

// UpdateFood merges a partial update into a catalog entry
func (h *FoodHandler) UpdateFood(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid food ID")
	}

	var patch usecase.FoodPatch
	if err := c.Bind(&patch); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid food input")
	}

	food, err := h.foodUC.Update(c.Request().Context(), id, &patch)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, food)
}

// GetFood returns one catalog entry
func (h *FoodHandler) GetFood(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid food ID")
	}

	food, err := h.foodUC.FindByID(c.Request().Context(), id)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, food)
}

// LookupFood matches the exact name or Vietnamese name, ignoring case
func (h *FoodHandler) LookupFood(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return response.BadRequestWithDetails(c, domainerrors.ErrValidationFailed.ErrorCode(),
			domainerrors.ErrValidationFailed.Message(), "name: is required")
	}

	foods, err := h.foodUC.FindByName(c.Request().Context(), name)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, foods)
}

// SearchFoods pages through the catalog
func (h *FoodHandler) SearchFoods(c echo.Context) error {
	input, err := searchInputFromQuery(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}
	if err := c.Validate(input); err != nil {
		return response.HandleAppError(c, err)
	}

	page, err := h.foodUC.Search(c.Request().Context(), input)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, page)
}

// searchInputFromQuery reads the optional filters; absent parameters stay nil.
func searchInputFromQuery(c echo.Context) (*usecase.SearchFoodsInput, error) {
	input := &usecase.SearchFoodsInput{}

	if v := strings.TrimSpace(c.QueryParam("name")); v != "" {
		input.Name = &v
	}
	if v := strings.TrimSpace(c.QueryParam("category")); v != "" {
		input.Category = &v
	}

	var err error
	if input.Vietnamese, err = optionalBool(c, "vietnamese"); err != nil {
		return nil, err
	}
	if input.Verified, err = optionalBool(c, "verified"); err != nil {
		return nil, err
	}
	if input.Limit, err = optionalInt(c, "limit"); err != nil {
		return nil, err
	}
	if input.Offset, err = optionalInt(c, "offset"); err != nil {
		return nil, err
	}

	return input, nil
}

func optionalBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails(name + ": must be true or false")
	}

	return &v, nil
}

func optionalInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domainerrors.ErrValidationFailed.WithDetails(name + ": must be an integer")
	}

	return v, nil
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, domainerrors.ErrValidationFailed.WithDetails("id: must be a positive integer")
	}

	return id, nil
}
