package persistence

import "context"

// StateRepository stores small keyed values that must survive restarts.
type StateRepository interface {
	GetState(ctx context.Context, key string) (StateEntry, error)
	PutState(ctx context.Context, entry StateEntry) error
	DeleteState(ctx context.Context, key string) error
}

// CredentialRepository persists the session credential under CredentialKey.
// LoadCredential returns ErrNotFound when nothing is stored.
type CredentialRepository interface {
	LoadCredential(ctx context.Context) (string, error)
	SaveCredential(ctx context.Context, credential string) error
	DeleteCredential(ctx context.Context) error
}
