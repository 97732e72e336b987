// Command migrate creates or updates the database schema and exits.
package main

import (
	"context"
	"log/slog"
	"os"

	"healthtrack/config"
	"healthtrack/internal/domain/lifecycle"
	logs "healthtrack/internal/infra/log"
	"healthtrack/internal/infra/persistence/postgres"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type migrateParams struct {
	fx.In
	fx.Lifecycle

	DB     *gorm.DB
	Logger *slog.Logger
}

func main() {
	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			config.New,
			logs.New,
			postgres.New,
		),
		fx.Invoke(registerMigration),
	)

	if err := run(app); err != nil {
		slog.Error("Migration failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(app *fx.App) error {
	startCtx, cancel := context.WithTimeout(context.Background(), 5*lifecycle.DefaultTimeout)
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		return err
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancelStop()

	return app.Stop(stopCtx)
}

// registerMigration runs after the database hook has pinged the primary.
func registerMigration(params migrateParams) {
	params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return postgres.Migrate(ctx, params.DB, params.Logger)
		},
	})
}
