// Command promote changes the role of a registered account and exits.
// It is the only way to create the first admin, which the catalog write
// endpoints require.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"healthtrack/config"
	"healthtrack/internal/domain/entity"
	"healthtrack/internal/domain/lifecycle"
	"healthtrack/internal/domain/repository"
	"healthtrack/internal/infra/auth"
	logs "healthtrack/internal/infra/log"
	"healthtrack/internal/infra/persistence/postgres"
	"healthtrack/internal/usecase"
	"healthtrack/internal/usecase/impl"
	"healthtrack/internal/validation"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type promoteParams struct {
	fx.In
	fx.Lifecycle

	UserUC usecase.UserUsecase
	Logger *slog.Logger
}

type promoteFlags struct {
	email string
	role  entity.Role
}

func main() {
	email := flag.String("email", "", "Email of the account to change")
	role := flag.String("role", entity.RoleAdmin.String(), "Role to assign (user, admin)")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "Usage: promote -email <address> [-role admin|user]")
		os.Exit(2)
	}

	app := fx.New(
		fx.NopLogger,
		fx.Supply(promoteFlags{email: *email, role: entity.Role(*role)}),
		fx.Provide(
			config.New,
			logs.New,
			postgres.New,
			validation.New,
			newUserRepository,
			postgres.NewTransactionManager,
			auth.NewBcryptHasher,
			auth.NewJWTService,
			impl.NewUserService,
		),
		fx.Invoke(registerPromotion),
	)

	if err := run(app); err != nil {
		slog.Error("Role change failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newUserRepository(db *gorm.DB, cfg *config.Config) repository.UserRepository {
	return postgres.NewUserRepository(db, cfg.Storage.Timeout)
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

// registerPromotion runs after the database hook has pinged the primary.
func registerPromotion(params promoteParams, flags promoteFlags) {
	params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			user, err := params.UserUC.AssignRole(ctx, flags.email, flags.role)
			if err != nil {
				return errors.Wrapf(err, "failed to assign role %q to %s", flags.role, flags.email)
			}

			params.Logger.Info("Role changed",
				slog.Uint64("userID", user.ID),
				slog.String("email", user.Email),
				slog.String("role", user.Role.String()),
			)

			return nil
		},
	})
}
