package main

import (
	"context"
	"log/slog"
	"os"

	"healthtrack/config"
	"healthtrack/internal/delivery"
	"healthtrack/internal/delivery/api"
	"healthtrack/internal/delivery/api/middleware"
	"healthtrack/internal/delivery/api/router/handler"
	"healthtrack/internal/domain/repository"
	"healthtrack/internal/infra/auth"
	logs "healthtrack/internal/infra/log"
	"healthtrack/internal/infra/persistence/postgres"
	"healthtrack/internal/usecase/impl"
	"healthtrack/internal/validation"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		validation.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			newUserRepository,
			newFoodRepository,
			postgres.NewTransactionManager,
		),
	)
}

func newUserRepository(db *gorm.DB, cfg *config.Config) repository.UserRepository {
	return postgres.NewUserRepository(db, cfg.Storage.Timeout)
}

func newFoodRepository(db *gorm.DB, cfg *config.Config) repository.FoodRepository {
	return postgres.NewFoodRepository(db, cfg.Storage.Timeout)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewUserService,
			impl.NewFoodService,
			impl.NewNutritionService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewUserHandler,
			handler.NewFoodHandler,
			handler.NewNutritionHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
