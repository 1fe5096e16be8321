package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/attendance-client/internal/persistence"
)

// mapError maps SQLite errors to persistence layer errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	if containsAny(err.Error(), "database is locked", "database locked", "SQLITE_BUSY") {
		return fmt.Errorf("%w: %v", persistence.ErrLocked, err)
	}
	return err
}

func containsAny(s string, substrings ...string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
