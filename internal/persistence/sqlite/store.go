package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/attendance-client/internal/persistence"
	"github.com/example/attendance-client/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Sealer encrypts values before they are written to disk.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// Store persists client state in a SQLite file.
type Store struct {
	db     *sql.DB
	sealer Sealer
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithSealer seals the stored credential with s.
func WithSealer(s Sealer) Option {
	return func(store *Store) { store.sealer = s }
}

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(store *Store) {
		if logger != nil {
			store.logger = logger
		}
	}
}

// WithClock overrides the clock used for updated_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(store *Store) {
		if now != nil {
			store.now = now
		}
	}
}

var (
	_ persistence.StateRepository      = (*Store)(nil)
	_ persistence.CredentialRepository = (*Store)(nil)
)

// Open opens (creating if needed) the state file at path and applies pending
// migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	store := &Store{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(store)
	}

	db, err := migration.Open(migration.DefaultSQLiteConfig(path))
	if err != nil {
		return nil, err
	}
	if _, err := migration.Run(ctx, db, migrationFiles, "migrations", store.logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate client state: %w", err)
	}
	store.db = db
	return store, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetState returns the entry stored under key.
func (s *Store) GetState(ctx context.Context, key string) (persistence.StateEntry, error) {
	var (
		entry     persistence.StateEntry
		sealed    int
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, sealed, updated_at FROM client_state WHERE key = ?`, key,
	).Scan(&entry.Key, &entry.Value, &sealed, &updatedAt)
	if err != nil {
		return persistence.StateEntry{}, mapError(err)
	}
	entry.Sealed = sealed != 0
	if parsed, parseErr := time.Parse(time.RFC3339Nano, updatedAt); parseErr == nil {
		entry.UpdatedAt = parsed
	}
	return entry, nil
}

// PutState inserts or replaces the entry for entry.Key.
func (s *Store) PutState(ctx context.Context, entry persistence.StateEntry) error {
	if strings.TrimSpace(entry.Key) == "" {
		return fmt.Errorf("sqlite: state key is required")
	}
	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}
	sealed := 0
	if entry.Sealed {
		sealed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_state (key, value, sealed, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, sealed = excluded.sealed, updated_at = excluded.updated_at
	`, entry.Key, entry.Value, sealed, updatedAt.UTC().Format(time.RFC3339Nano))
	return mapError(err)
}

// DeleteState removes the entry for key, returning ErrNotFound when absent.
func (s *Store) DeleteState(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM client_state WHERE key = ?`, key)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// LoadCredential returns the stored credential, opening it when sealed.
func (s *Store) LoadCredential(ctx context.Context) (string, error) {
	entry, err := s.GetState(ctx, persistence.CredentialKey)
	if err != nil {
		return "", err
	}
	if !entry.Sealed {
		return string(entry.Value), nil
	}
	if s.sealer == nil {
		return "", fmt.Errorf("%w: no secret configured", persistence.ErrSealed)
	}
	plaintext, err := s.sealer.Open(entry.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", persistence.ErrSealed, err)
	}
	return string(plaintext), nil
}

// SaveCredential stores credential, sealing it when a sealer is configured.
func (s *Store) SaveCredential(ctx context.Context, credential string) error {
	entry := persistence.StateEntry{Key: persistence.CredentialKey, Value: []byte(credential)}
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(entry.Value)
		if err != nil {
			return fmt.Errorf("seal credential: %w", err)
		}
		entry.Value = sealed
		entry.Sealed = true
	}
	if err := s.PutState(ctx, entry); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "credential stored", "sealed", entry.Sealed)
	return nil
}

// DeleteCredential removes the stored credential.
func (s *Store) DeleteCredential(ctx context.Context) error {
	return s.DeleteState(ctx, persistence.CredentialKey)
}
