// Package migration applies versioned schema changes to the client state
// database.
//
// Migration files are read from an fs.FS (normally an embedded directory) and
// follow the naming convention {version}_{description}.sql, for example
// "001_create_client_state.sql". Each file runs in its own transaction and is
// recorded in the schema_migrations table so it is applied exactly once.
//
// Example usage:
//
//	applied, err := migration.Run(ctx, db, migrationFiles, "migrations", logger)
//	if err != nil {
//		return fmt.Errorf("migrate client state: %w", err)
//	}
package migration
