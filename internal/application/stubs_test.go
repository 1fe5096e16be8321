package application

import (
	"context"
	"sync"
	"testing"
)

type credentialStoreStub struct {
	mu        sync.Mutex
	value     string
	loadErr   error
	saveErr   error
	deleteErr error
	saves     []string
	deletes   int
}

func (s *credentialStoreStub) LoadCredential(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return "", s.loadErr
	}
	if s.value == "" {
		return "", ErrNotFound
	}
	return s.value, nil
}

func (s *credentialStoreStub) SaveCredential(ctx context.Context, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.value = credential
	s.saves = append(s.saves, credential)
	return nil
}

func (s *credentialStoreStub) DeleteCredential(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if s.value == "" {
		return ErrNotFound
	}
	s.value = ""
	return nil
}

func (s *credentialStoreStub) stored() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// remoteStub implements RemoteService with overridable behaviour and call counters.
type remoteStub struct {
	mu sync.Mutex

	profile UserProfile
	meErr   error

	loginResult LoginResult
	loginErr    error
	registerErr error

	checkInFn  func(ctx context.Context, location Coordinate) (CheckInOutcome, error)
	lateFn     func(ctx context.Context, request LateRequest) (LateRequestReceipt, error)
	historyFn  func(ctx context.Context) ([]AttendanceRecord, error)
	usersFn    func(ctx context.Context) ([]UserProfile, error)
	pendingFn  func(ctx context.Context) ([]AttendanceRecord, error)
	decisionFn func(ctx context.Context, decision ApprovalDecision) (ApprovalReceipt, error)
	registerFn func(ctx context.Context, registration Registration) error

	calls         map[string]int
	registrations []Registration
	lateRequests  []LateRequest
	decisions     []ApprovalDecision
	checkIns      []Coordinate
}

func newRemoteStub(profile UserProfile) *remoteStub {
	return &remoteStub{profile: profile, calls: make(map[string]int)}
}

func (r *remoteStub) record(name string) {
	r.mu.Lock()
	r.calls[name]++
	r.mu.Unlock()
}

func (r *remoteStub) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *remoteStub) Me(ctx context.Context) (UserProfile, error) {
	r.record("me")
	if r.meErr != nil {
		return UserProfile{}, r.meErr
	}
	return r.profile, nil
}

func (r *remoteStub) Login(ctx context.Context, officeID, password string) (LoginResult, error) {
	r.record("login")
	if r.loginErr != nil {
		return LoginResult{}, r.loginErr
	}
	return r.loginResult, nil
}

func (r *remoteStub) Register(ctx context.Context, registration Registration) error {
	r.record("register")
	r.mu.Lock()
	r.registrations = append(r.registrations, registration)
	r.mu.Unlock()
	if r.registerFn != nil {
		return r.registerFn(ctx, registration)
	}
	return r.registerErr
}

func (r *remoteStub) CheckIn(ctx context.Context, location Coordinate) (CheckInOutcome, error) {
	r.record("checkin")
	r.mu.Lock()
	r.checkIns = append(r.checkIns, location)
	r.mu.Unlock()
	if r.checkInFn != nil {
		return r.checkInFn(ctx, location)
	}
	return CheckInOutcome{Status: StatusPresent, Message: "Checked in", CheckInEnabled: true}, nil
}

func (r *remoteStub) SubmitLateRequest(ctx context.Context, request LateRequest) (LateRequestReceipt, error) {
	r.record("late")
	r.mu.Lock()
	r.lateRequests = append(r.lateRequests, request)
	r.mu.Unlock()
	if r.lateFn != nil {
		return r.lateFn(ctx, request)
	}
	return LateRequestReceipt{Message: "Late request submitted", RequestID: 1, Status: StatusPending}, nil
}

func (r *remoteStub) History(ctx context.Context) ([]AttendanceRecord, error) {
	r.record("history")
	if r.historyFn != nil {
		return r.historyFn(ctx)
	}
	return nil, nil
}

func (r *remoteStub) Users(ctx context.Context) ([]UserProfile, error) {
	r.record("users")
	if r.usersFn != nil {
		return r.usersFn(ctx)
	}
	return nil, nil
}

func (r *remoteStub) PendingApprovals(ctx context.Context) ([]AttendanceRecord, error) {
	r.record("pending")
	if r.pendingFn != nil {
		return r.pendingFn(ctx)
	}
	return nil, nil
}

func (r *remoteStub) DecideApproval(ctx context.Context, decision ApprovalDecision) (ApprovalReceipt, error) {
	r.record("decide")
	r.mu.Lock()
	r.decisions = append(r.decisions, decision)
	r.mu.Unlock()
	if r.decisionFn != nil {
		return r.decisionFn(ctx, decision)
	}
	status := StatusAbsent
	if decision.Approve {
		status = StatusPresent
	}
	return ApprovalReceipt{Message: "ok", AttendanceID: decision.AttendanceID, Status: status}, nil
}

type locatorStub struct {
	mu      sync.Mutex
	results []locateResult
	calls   int
}

type locateResult struct {
	location Coordinate
	err      error
}

func (l *locatorStub) Locate(ctx context.Context) (Coordinate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if len(l.results) == 0 {
		return Coordinate{}, ErrLocationUnavailable
	}
	next := l.results[0]
	if len(l.results) > 1 {
		l.results = l.results[1:]
	}
	return next.location, next.err
}

func (l *locatorStub) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func fixedLocator(lat, lng float64) *locatorStub {
	return &locatorStub{results: []locateResult{{location: Coordinate{Lat: lat, Lng: lng}}}}
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeLog) Notify(ctx context.Context, notice Notice) {
	n.mu.Lock()
	n.notices = append(n.notices, notice)
	n.mu.Unlock()
}

func (n *noticeLog) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notices))
	for _, notice := range n.notices {
		out = append(out, notice.Message)
	}
	return out
}

func (n *noticeLog) last() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return Notice{}
	}
	return n.notices[len(n.notices)-1]
}

func (n *noticeLog) contains(message string) bool {
	for _, m := range n.messages() {
		if m == message {
			return true
		}
	}
	return false
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

// authenticatedApp returns an App already logged in as profile.
func authenticatedApp(t testing.TB, remote *remoteStub, locator LocationProvider) (*App, *credentialStoreStub, *noticeLog) {
	t.Helper()
	store := &credentialStoreStub{value: "token-1"}
	notices := &noticeLog{}
	app := NewApp(remote, store, locator, notices, nil)
	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return app, store, notices
}
