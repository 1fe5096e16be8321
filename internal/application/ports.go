package application

import "context"

// CredentialStore persists the single session credential across restarts.
// LoadCredential returns ErrNotFound when nothing is stored.
type CredentialStore interface {
	LoadCredential(ctx context.Context) (string, error)
	SaveCredential(ctx context.Context, credential string) error
	DeleteCredential(ctx context.Context) error
}

// IdentityService resolves the profile behind the active credential.
type IdentityService interface {
	Me(ctx context.Context) (UserProfile, error)
}

// AuthGateway covers the unauthenticated account endpoints.
type AuthGateway interface {
	Login(ctx context.Context, officeID, password string) (LoginResult, error)
	Register(ctx context.Context, registration Registration) error
}

// CheckInService submits check-ins and late requests.
type CheckInService interface {
	CheckIn(ctx context.Context, location Coordinate) (CheckInOutcome, error)
	SubmitLateRequest(ctx context.Context, request LateRequest) (LateRequestReceipt, error)
}

// HistorySource lists the caller's attendance records.
type HistorySource interface {
	History(ctx context.Context) ([]AttendanceRecord, error)
}

// DirectorySource lists every registered user.
type DirectorySource interface {
	Users(ctx context.Context) ([]UserProfile, error)
}

// ApprovalService lists and decides pending late requests.
type ApprovalService interface {
	PendingApprovals(ctx context.Context) ([]AttendanceRecord, error)
	DecideApproval(ctx context.Context, decision ApprovalDecision) (ApprovalReceipt, error)
}

// RemoteService is the full attendance service surface used by App.
type RemoteService interface {
	IdentityService
	AuthGateway
	CheckInService
	HistorySource
	DirectorySource
	ApprovalService
}

// LocationProvider acquires a single location sample. Each call is independent.
type LocationProvider interface {
	Locate(ctx context.Context) (Coordinate, error)
}

// NoticeLevel classifies a user-facing notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message for the user, the equivalent of a toast.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier delivers notices to whatever front-end is attached.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, notice Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, notice Notice) {
	if f != nil {
		f(ctx, notice)
	}
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, Notice) {}

func defaultNotifier(n Notifier) Notifier {
	if n != nil {
		return n
	}
	return discardNotifier{}
}
