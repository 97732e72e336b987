package postgres

import (
	"context"
	"testing"
	"time"

	"healthtrack/config"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/domain/repository"
	"healthtrack/internal/infra/persistence/sqlitetest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionManager_CommitAndRollback(t *testing.T) {
	db := sqlitetest.Open(t)
	txManager := NewTransactionManager(db, &config.Config{Storage: &config.StorageConfig{Timeout: time.Second}})
	ctx := context.Background()

	err := txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
		return f.UserRepo().Create(ctx, newTestUser("kept@example.com"))
	})
	require.NoError(t, err)

	sentinel := errors.New("abort")
	err = txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
		if err := f.FoodRepo().Create(ctx, newTestFood("rolled back")); err != nil {
			return err
		}

		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	users := NewUserRepository(db, time.Second)
	_, err = users.FindByEmail(ctx, "kept@example.com")
	require.NoError(t, err)

	foods, total, err := NewFoodRepository(db, time.Second).Search(ctx, repository.FoodFilter{})
	require.NoError(t, err)
	assert.Empty(t, foods)
	assert.Zero(t, total)
}

func TestTransactionManager_RollsBackOnPanic(t *testing.T) {
	db := sqlitetest.Open(t)
	txManager := NewTransactionManager(db, nil)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = txManager.Execute(ctx, func(f repository.RepositoryFactory) error {
			_ = f.UserRepo().Create(ctx, newTestUser("panic@example.com"))
			panic("boom")
		})
	})

	_, err := NewUserRepository(db, time.Second).FindByEmail(ctx, "panic@example.com")
	assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))
}

func TestStoreTimeout(t *testing.T) {
	assert.Equal(t, defaultStoreTimeout, storeTimeout(nil))
	assert.Equal(t, defaultStoreTimeout, storeTimeout(&config.Config{}))
	assert.Equal(t, time.Second, storeTimeout(&config.Config{Storage: &config.StorageConfig{Timeout: time.Second}}))
}
