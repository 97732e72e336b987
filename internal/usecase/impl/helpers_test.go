package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"healthtrack/config"
	"healthtrack/internal/domain/repository"
	"healthtrack/internal/domain/service"
	"healthtrack/internal/infra/auth"
	"healthtrack/internal/infra/persistence/postgres"
	"healthtrack/internal/infra/persistence/sqlitetest"
	mockRepo "healthtrack/internal/mocks/repository"
	"healthtrack/internal/usecase"
	"healthtrack/internal/validation"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Storage: &config.StorageConfig{Timeout: 2 * time.Second},
		Auth: &config.AuthConfig{
			BcryptCost:     bcrypt.MinCost,
			HashTimeout:    2 * time.Second,
			AccessTokenTTL: time.Hour,
		},
		Food: &config.FoodConfig{DefaultPageSize: 20, MaxPageSize: 100},
	}
	cfg.SecretKey.Access = "test_access_secret_key_very_long_for_testing"

	return cfg
}

// stack is a fully wired set of use cases over one in-memory database.
type stack struct {
	db        *gorm.DB
	cfg       *config.Config
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	foodRepo  repository.FoodRepository
	hasher    service.PasswordHasher
	tokens    service.TokenService
	users     usecase.UserUsecase
	foods     usecase.FoodUsecase
	nutrition usecase.NutritionUsecase
}

func newStack(t *testing.T) *stack {
	t.Helper()

	cfg := newTestConfig()
	db := sqlitetest.Open(t)
	hasher, err := auth.NewBcryptHasher(cfg)
	require.NoError(t, err)
	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	return newStackWith(t, db, cfg, hasher, tokens)
}

func newStackWith(t *testing.T, db *gorm.DB, cfg *config.Config, hasher service.PasswordHasher, tokens service.TokenService) *stack {
	t.Helper()

	logger := newDiscardLogger()
	validate := validation.New()
	txManager := postgres.NewTransactionManager(db, cfg)
	userRepo := postgres.NewUserRepository(db, cfg.Storage.Timeout)
	foodRepo := postgres.NewFoodRepository(db, cfg.Storage.Timeout)

	return &stack{
		db:        db,
		cfg:       cfg,
		txManager: txManager,
		userRepo:  userRepo,
		foodRepo:  foodRepo,
		hasher:    hasher,
		tokens:    tokens,
		users: NewUserService(UserServiceParams{
			TxManager:    txManager,
			UserRepo:     userRepo,
			Hasher:       hasher,
			TokenService: tokens,
			Validate:     validate,
			Logger:       logger,
		}),
		foods: NewFoodService(FoodServiceParams{
			TxManager: txManager,
			FoodRepo:  foodRepo,
			Validate:  validate,
			Config:    cfg,
			Logger:    logger,
		}),
		nutrition: NewNutritionService(NutritionServiceParams{
			FoodRepo: foodRepo,
			UserRepo: userRepo,
			Validate: validate,
			Logger:   logger,
		}),
	}
}

func ptr[T any](v T) *T {
	return &v
}

// expectExecute expects one transaction. setup prepares the factory handed to
// the callback; the transaction then reports the callback's error, or
// commitErr when the callback succeeds. A nil setup models a transaction that
// fails to begin: the callback never runs and commitErr is returned.
func expectExecute(ctx context.Context, t *testing.T, txManager *mockRepo.MockTransactionManager, commitErr error, setup func(factory *mockRepo.MockRepositoryFactory)) {
	t.Helper()

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			if setup == nil {
				return commitErr
			}

			factory := mockRepo.NewMockRepositoryFactory(t)
			setup(factory)
			if err := fn(factory); err != nil {
				return err
			}

			return commitErr
		}).
		Once()
}
