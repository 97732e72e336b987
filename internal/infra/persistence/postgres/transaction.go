// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"healthtrack/config"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/domain/repository"
	"healthtrack/internal/errors"

	"gorm.io/gorm"
)

// gormTransactionManager implements the domain's TransactionManager interface using GORM.
type gormTransactionManager struct {
	db      *gorm.DB
	timeout time.Duration
}

// gormRepositoryFactory hands out repositories bound to one transaction.
// In GORM a transaction is also a *gorm.DB.
type gormRepositoryFactory struct {
	tx      *gorm.DB
	timeout time.Duration
}

// UserRepo returns a user repository bound to the transaction.
func (f *gormRepositoryFactory) UserRepo() repository.UserRepository {
	return NewUserRepository(f.tx, f.timeout)
}

// FoodRepo returns a food repository bound to the transaction.
func (f *gormRepositoryFactory) FoodRepo() repository.FoodRepository {
	return NewFoodRepository(f.tx, f.timeout)
}

// NewTransactionManager is the constructor for gormTransactionManager.
// This function will be used as an Fx provider.
func NewTransactionManager(db *gorm.DB, cfg *config.Config) repository.TransactionManager {
	return &gormTransactionManager{db: db, timeout: storeTimeout(cfg)}
}

// Execute runs the given function within a single database transaction.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		if errors.IsDeadline(tx.Error) {
			return domainerrors.ErrTimeout.WrapMessage("begin transaction")
		}

		return domainerrors.ErrTransactionFailed.WrapMessage(tx.Error.Error())
	}

	// A panic inside fn must not leave the transaction open.
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	factory := &gormRepositoryFactory{tx: tx, timeout: tm.timeout}

	if err := fn(factory); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return errors.Wrapf(err, "transaction rollback failed: %v", rbErr)
		}

		return err
	}

	if err := tx.Commit().Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("commit rejected by unique constraint")
		}

		return domainerrors.ErrTransactionFailed.WrapMessage(err.Error())
	}

	return nil
}
