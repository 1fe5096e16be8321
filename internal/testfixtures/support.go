package testfixtures

import (
	"context"
	"strings"
	"sync"

	"github.com/example/attendance-client/internal/application"
)

// LocationStep is one scripted answer of a LocationSequence.
type LocationStep struct {
	Coordinate application.Coordinate
	Err        error
}

// At is shorthand for a successful LocationStep.
func At(lat, lng float64) LocationStep {
	return LocationStep{Coordinate: application.Coordinate{Lat: lat, Lng: lng}}
}

// Failing is shorthand for a LocationStep failing with kind.
func Failing(kind error) LocationStep {
	return LocationStep{Err: &application.LocationError{Kind: kind}}
}

// LocationSequence answers Locate calls from a script. Once the script is
// exhausted the last step repeats; an empty script is unsupported.
type LocationSequence struct {
	mu    sync.Mutex
	steps []LocationStep
	calls int
}

// NewLocationSequence constructs a LocationSequence.
func NewLocationSequence(steps ...LocationStep) *LocationSequence {
	return &LocationSequence{steps: steps}
}

// Locate implements application.LocationProvider.
func (l *LocationSequence) Locate(ctx context.Context) (application.Coordinate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if len(l.steps) == 0 {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationUnsupported}
	}
	idx := l.calls - 1
	if idx >= len(l.steps) {
		idx = len(l.steps) - 1
	}
	step := l.steps[idx]
	return step.Coordinate, step.Err
}

// Calls reports how many samples were requested.
func (l *LocationSequence) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// NoticeRecorder collects notices in delivery order.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices []application.Notice
}

// Notify implements application.Notifier.
func (r *NoticeRecorder) Notify(ctx context.Context, notice application.Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, notice)
	r.mu.Unlock()
}

// Notices returns every notice received so far.
func (r *NoticeRecorder) Notices() []application.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]application.Notice(nil), r.notices...)
}

// Last returns the most recent notice.
func (r *NoticeRecorder) Last() (application.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return application.Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// Contains reports whether any notice message contains substr.
func (r *NoticeRecorder) Contains(substr string) bool {
	for _, notice := range r.Notices() {
		if strings.Contains(notice.Message, substr) {
			return true
		}
	}
	return false
}

// MemoryCredentialStore is an in-memory application.CredentialStore.
type MemoryCredentialStore struct {
	mu         sync.Mutex
	credential string
	saves      int
	deletes    int
}

// NewMemoryCredentialStore returns a store preloaded with credential, which
// may be empty.
func NewMemoryCredentialStore(credential string) *MemoryCredentialStore {
	return &MemoryCredentialStore{credential: credential}
}

// LoadCredential implements application.CredentialStore.
func (m *MemoryCredentialStore) LoadCredential(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.credential == "" {
		return "", application.ErrNotFound
	}
	return m.credential, nil
}

// SaveCredential implements application.CredentialStore.
func (m *MemoryCredentialStore) SaveCredential(ctx context.Context, credential string) error {
	m.mu.Lock()
	m.credential = credential
	m.saves++
	m.mu.Unlock()
	return nil
}

// DeleteCredential implements application.CredentialStore.
func (m *MemoryCredentialStore) DeleteCredential(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.credential == "" {
		return application.ErrNotFound
	}
	m.credential = ""
	return nil
}

// Stored returns the persisted credential.
func (m *MemoryCredentialStore) Stored() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential
}
