package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrLocked is returned when the state file is held by another process.
	ErrLocked = errors.New("persistence: database locked")
	// ErrSealed is returned when a sealed value cannot be opened with the configured secret.
	ErrSealed = errors.New("persistence: sealed value cannot be opened")
)
