package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Session owns the credential and the profile resolved for it. It is the only
// shared mutable state across controllers; writes replace whole values.
type Session struct {
	mu         sync.RWMutex
	store      CredentialStore
	identity   IdentityService
	credential string
	profile    *UserProfile
	logger     *slog.Logger
}

// NewSession constructs a Session backed by the provided store and identity service.
func NewSession(store CredentialStore, identity IdentityService) *Session {
	return NewSessionWithLogger(store, identity, nil)
}

// NewSessionWithLogger constructs a Session with a specified logger.
func NewSessionWithLogger(store CredentialStore, identity IdentityService, logger *slog.Logger) *Session {
	return &Session{
		store:    store,
		identity: identity,
		logger:   defaultLogger(logger),
	}
}

func (s *Session) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return controllerLogger(ctx, s.logger, "Session", operation, attrs...)
}

// Init loads the persisted credential, if any, and reports whether one was found.
func (s *Session) Init(ctx context.Context) (found bool, err error) {
	if s == nil {
		return false, fmt.Errorf("Session is nil")
	}
	logger := s.loggerWith(ctx, "Init")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load credential", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "session initialised", "credential_found", found)
	}()

	if s.store == nil {
		return false, nil
	}

	credential, loadErr := s.store.LoadCredential(ctx)
	if loadErr != nil {
		if errors.Is(loadErr, ErrNotFound) {
			return false, nil
		}
		return false, loadErr
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return false, nil
	}

	s.mu.Lock()
	s.credential = credential
	s.profile = nil
	s.mu.Unlock()
	return true, nil
}

// Set persists and activates a new credential, dropping any cached profile.
func (s *Session) Set(ctx context.Context, credential string) error {
	if s == nil {
		return fmt.Errorf("Session is nil")
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return ErrUnauthenticated
	}
	if s.store != nil {
		if err := s.store.SaveCredential(ctx, credential); err != nil {
			s.loggerWith(ctx, "Set").ErrorContext(ctx, "failed to persist credential", "error", err)
			return err
		}
	}

	s.mu.Lock()
	s.credential = credential
	s.profile = nil
	s.mu.Unlock()
	return nil
}

// Clear removes the credential from memory and storage and drops the profile.
// The in-memory state is always cleared, even when the store fails.
func (s *Session) Clear(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("Session is nil")
	}
	s.mu.Lock()
	s.credential = ""
	s.profile = nil
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.DeleteCredential(ctx); err != nil && !errors.Is(err, ErrNotFound) {
		s.loggerWith(ctx, "Clear").ErrorContext(ctx, "failed to delete credential", "error", err)
		return err
	}
	return nil
}

// Validate resolves the profile for the active credential. Any failure clears
// the session and reports ErrUnauthenticated; there is no retry. Without a
// credential no remote call is made.
func (s *Session) Validate(ctx context.Context) (profile UserProfile, err error) {
	if s == nil {
		err = fmt.Errorf("Session is nil")
		return
	}
	if s.identity == nil {
		err = fmt.Errorf("identity service not configured")
		return
	}

	logger := s.loggerWith(ctx, "Validate")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("office_id", profile.OfficeID, "role", profile.Role).InfoContext(ctx, "session validated")
	}()

	if !s.Authenticated() {
		err = ErrUnauthenticated
		return
	}

	profile, err = s.identity.Me(ctx)
	if err != nil {
		cause := err
		if clearErr := s.Clear(ctx); clearErr != nil {
			logger.ErrorContext(ctx, "failed to clear rejected credential", "error", clearErr)
		}
		profile = UserProfile{}
		err = fmt.Errorf("%w: %w", ErrUnauthenticated, cause)
		return
	}

	s.mu.Lock()
	snapshot := profile
	s.profile = &snapshot
	s.mu.Unlock()
	return
}

// Close tears down the in-memory session. The persisted credential is kept.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.credential = ""
	s.profile = nil
	s.mu.Unlock()
}

// Credential returns the active credential or an empty string.
func (s *Session) Credential() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Authenticated reports whether a credential is active.
func (s *Session) Authenticated() bool {
	return s.Credential() != ""
}

// Profile returns the cached profile, if one was validated.
func (s *Session) Profile() (UserProfile, bool) {
	if s == nil {
		return UserProfile{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return UserProfile{}, false
	}
	return *s.profile, true
}
