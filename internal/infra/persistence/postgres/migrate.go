package postgres

import (
	"context"
	"log/slog"

	"healthtrack/internal/errors"
	"healthtrack/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// Migrate creates or updates the users and foods tables with their indexes.
func Migrate(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	for _, m := range model.All() {
		if err := db.WithContext(ctx).AutoMigrate(m); err != nil {
			return errors.Wrapf(err, "auto-migrate %T", m)
		}
	}

	if logger != nil {
		logger.InfoContext(ctx, "Schema migration completed", slog.Int("models", len(model.All())))
	}

	return nil
}
