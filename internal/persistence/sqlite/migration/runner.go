package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
)

// Run applies every pending migration found under dir in fsys and returns the
// number applied. Applied migrations whose checksum changed are reported as
// ErrChecksumMismatch rather than re-run.
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, dir string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "migration")

	executor := NewExecutor(db)
	if err := executor.InitializeVersionTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to initialize version table: %w", err)
	}

	available, err := Scan(fsys, dir)
	if err != nil {
		return 0, err
	}
	applied, err := executor.Applied(ctx)
	if err != nil {
		return 0, err
	}

	checksums := make(map[string]string, len(applied))
	for _, record := range applied {
		checksums[record.Version] = record.Checksum
	}

	count := 0
	for _, migration := range available {
		if sum, done := checksums[migration.Version]; done {
			if sum != "" && sum != migration.Checksum {
				return count, NewMigrationError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
			}
			continue
		}

		logger.DebugContext(ctx, "applying migration", "version", migration.Version, "description", migration.Description)
		if err := executor.Apply(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "version", migration.Version, "error", err)
			return count, NewMigrationError(migration.Version, migration.FilePath,
				"execute migration", fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}
		count++
	}

	if count > 0 {
		logger.InfoContext(ctx, "migrations applied", "count", count, "version", available[len(available)-1].Version)
	}
	return count, nil
}
