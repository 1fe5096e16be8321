package persistence

import "time"

// CredentialKey is the single well-known key under which the session
// credential is stored.
const CredentialKey = "authToken"

// StateEntry is one row of persisted client state.
type StateEntry struct {
	Key       string
	Value     []byte
	Sealed    bool
	UpdatedAt time.Time
}
