package application

import (
	"context"
	"log/slog"
)

// App wires the session, navigator and section controllers into one unit for a
// front-end to drive.
type App struct {
	Session   *Session
	Navigator *Navigator
	Auth      *AuthController
	CheckIn   *CheckInController
	History   *HistoryController
	Approvals *ApprovalController
	Directory *DirectoryController
}

// NewApp constructs the controllers over remote and registers them with a new
// navigator.
func NewApp(remote RemoteService, store CredentialStore, locator LocationProvider, notifier Notifier, logger *slog.Logger) *App {
	logger = defaultLogger(logger)
	notifier = defaultNotifier(notifier)

	session := NewSessionWithLogger(store, remote, logger)
	navigator := NewNavigator(session, logger)

	app := &App{
		Session:   session,
		Navigator: navigator,
		Auth:      NewAuthController(remote, session, navigator, locator, notifier, logger),
		CheckIn:   NewCheckInController(remote, locator, notifier, logger),
		History:   NewHistoryController(remote, notifier, logger),
		Approvals: NewApprovalController(remote, notifier, logger),
		Directory: NewDirectoryController(remote, notifier, logger),
	}

	navigator.Register(SectionCheckIn, app.CheckIn)
	navigator.Register(SectionHistory, app.History)
	navigator.Register(SectionApprovals, app.Approvals)
	navigator.Register(SectionEmployees, app.Directory)
	navigator.AddResetter(app.Auth)
	return app
}

// Start restores the persisted session.
func (a *App) Start(ctx context.Context) error {
	return a.Navigator.Start(ctx)
}

// Refresh re-activates the current section, reloading its data.
func (a *App) Refresh(ctx context.Context) bool {
	section := a.Navigator.Current()
	if section == SectionNone {
		return false
	}
	return a.Navigator.Goto(ctx, section)
}

// Close releases the in-memory session. The persisted credential is kept.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.Session.Close()
}
