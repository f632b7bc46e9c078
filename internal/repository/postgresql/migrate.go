package postgresql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/qr-attendance-go/migrations"
)

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *database.DB) error {
	scripts, err := migrations.Up()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	for i, script := range scripts {
		if _, err := db.Exec(ctx, script); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
	}

	slog.Info("Database schema up to date", "migrations", len(scripts))
	return nil
}
