// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"healthtrack/internal/delivery/api/middleware"
	"healthtrack/internal/delivery/api/router/handler"
	"healthtrack/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler      *handler.UserHandler
	FoodHandler      *handler.FoodHandler
	NutritionHandler *handler.NutritionHandler
	AuthMiddleware   *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler      *handler.UserHandler
	foodHandler      *handler.FoodHandler
	nutritionHandler *handler.NutritionHandler
	authMiddleware   *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:      params.UserHandler,
		foodHandler:      params.FoodHandler,
		nutritionHandler: params.NutritionHandler,
		authMiddleware:   params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.userHandler.Register)
		authGroup.POST("/login", r.userHandler.Login)
	}

	// Account routes that require authentication
	userGroup := e.Group("/users")
	userGroup.Use(r.authMiddleware.Authenticate)
	{
		userGroup.GET("/me", r.userHandler.GetProfile)
		userGroup.PATCH("/me", r.userHandler.UpdateProfile)
		userGroup.DELETE("/me", r.userHandler.Deactivate)
		userGroup.GET("/me/recommendations", r.nutritionHandler.Recommend)
	}

	// Food catalog routes; writes are reserved to admins
	requireAdmin := r.authMiddleware.RequireRole(entity.RoleAdmin)
	foodsGroup := e.Group("/foods")
	{
		foodsGroup.POST("", r.foodHandler.CreateFood, r.authMiddleware.Authenticate, requireAdmin)
		foodsGroup.GET("", r.foodHandler.SearchFoods)
		foodsGroup.GET("/lookup", r.foodHandler.LookupFood)
		foodsGroup.GET("/:id", r.foodHandler.GetFood)
		foodsGroup.PATCH("/:id", r.foodHandler.UpdateFood, r.authMiddleware.Authenticate, requireAdmin)
	}

	// Meal analysis
	e.POST("/nutrition/analyze", r.nutritionHandler.Analyze)
}
