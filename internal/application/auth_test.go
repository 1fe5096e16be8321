package application

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestAuthController_LoginScenario(t *testing.T) {
	t.Parallel()

	remote := newRemoteStub(UserProfile{ID: 1, OfficeID: "E001", Role: RoleEmployee})
	remote.loginResult = LoginResult{AccessToken: "token-e001", TokenType: "bearer", UserID: 1, OfficeID: "E001", Role: RoleEmployee}
	store := &credentialStoreStub{}
	notices := &noticeLog{}
	app := NewApp(remote, store, fixedLocator(1, 2), notices, nil)
	ctx := context.Background()

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if app.Navigator.Current() != SectionNone {
		t.Fatalf("expected unauthenticated start")
	}

	profile, err := app.Auth.Login(ctx, LoginForm{OfficeID: " E001 ", Password: "secret"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if profile.Role != RoleEmployee {
		t.Fatalf("expected employee profile, got %s", profile.Role)
	}
	if store.stored() != "token-e001" {
		t.Fatalf("expected credential to be persisted, got %q", store.stored())
	}
	if app.Navigator.Current() != SectionCheckIn {
		t.Fatalf("expected check-in section, got %q", app.Navigator.Current())
	}
	want := []Section{SectionCheckIn, SectionHistory}
	if got := VisibleSections(profile.Role); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected sidebar %v, got %v", want, got)
	}
	if app.Navigator.Goto(ctx, SectionApprovals) {
		t.Fatalf("expected approvals to stay hidden from employees")
	}
}

func TestAuthController_LoginFailures(t *testing.T) {
	t.Parallel()

	t.Run("validation never calls the service", func(t *testing.T) {
		t.Parallel()

		remote := newRemoteStub(UserProfile{})
		notices := &noticeLog{}
		app := NewApp(remote, &credentialStoreStub{}, nil, notices, nil)

		_, err := app.Auth.Login(context.Background(), LoginForm{OfficeID: "  ", Password: ""})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if vErr.FieldErrors["office_id"] == "" || vErr.FieldErrors["password"] == "" {
			t.Fatalf("expected both fields to be reported, got %#v", vErr.FieldErrors)
		}
		if remote.count("login") != 0 {
			t.Fatalf("expected no login call")
		}
	})

	t.Run("server detail is surfaced", func(t *testing.T) {
		t.Parallel()

		remote := newRemoteStub(UserProfile{})
		remote.loginErr = &RemoteError{Kind: ErrRequestFailed, StatusCode: 401, Detail: "Incorrect office ID or password"}
		notices := &noticeLog{}
		app := NewApp(remote, &credentialStoreStub{}, nil, notices, nil)

		if _, err := app.Auth.Login(context.Background(), LoginForm{OfficeID: "E001", Password: "bad"}); err == nil {
			t.Fatalf("expected login failure")
		}
		if notices.last().Message != "Incorrect office ID or password" {
			t.Fatalf("expected server detail, got %q", notices.last().Message)
		}
		if app.Navigator.Current() != SectionNone {
			t.Fatalf("expected to stay unauthenticated")
		}
	})

	t.Run("transport failure uses generic message", func(t *testing.T) {
		t.Parallel()

		remote := newRemoteStub(UserProfile{})
		remote.loginErr = &RemoteError{Kind: ErrTransport, Cause: errors.New("dial tcp: refused")}
		notices := &noticeLog{}
		app := NewApp(remote, &credentialStoreStub{}, nil, notices, nil)

		if _, err := app.Auth.Login(context.Background(), LoginForm{OfficeID: "E001", Password: "pw"}); !errors.Is(err, ErrTransport) {
			t.Fatalf("expected transport error, got %v", err)
		}
		if notices.last().Message != "Login failed" {
			t.Fatalf("expected generic message, got %q", notices.last().Message)
		}
	})

	t.Run("profile failure after login clears the credential", func(t *testing.T) {
		t.Parallel()

		remote := newRemoteStub(UserProfile{})
		remote.loginResult = LoginResult{AccessToken: "token"}
		remote.meErr = &RemoteError{Kind: ErrRequestFailed, StatusCode: 401}
		store := &credentialStoreStub{}
		app := NewApp(remote, store, nil, nil, nil)

		if _, err := app.Auth.Login(context.Background(), LoginForm{OfficeID: "E001", Password: "pw"}); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
		if store.stored() != "" || app.Navigator.Current() != SectionNone {
			t.Fatalf("expected credential to be discarded")
		}
	})
}

func TestApp_StartWithRejectedCredential(t *testing.T) {
	t.Parallel()

	remote := newRemoteStub(UserProfile{})
	remote.meErr = &RemoteError{Kind: ErrRequestFailed, Endpoint: "/auth/me", StatusCode: 401, Detail: "Could not validate credentials"}
	store := &credentialStoreStub{value: "expired-token"}
	app := NewApp(remote, store, nil, nil, nil)

	err := app.Start(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if app.Navigator.Current() != SectionNone || app.Session.Authenticated() || store.stored() != "" {
		t.Fatalf("expected unauthenticated state with cleared storage")
	}
	if remote.count("me") != 1 {
		t.Fatalf("expected a single validation attempt, got %d", remote.count("me"))
	}
}

func TestAuthController_Registration(t *testing.T) {
	t.Parallel()

	t.Run("requires a captured location", func(t *testing.T) {
		t.Parallel()

		remote := newRemoteStub(UserProfile{})
		notices := &noticeLog{}
		app := NewApp(remote, &credentialStoreStub{}, fixedLocator(1, 2), notices, nil)

		err := app.Auth.SubmitRegistration(context.Background(), RegistrationForm{OfficeID: "E002", Password: "pw"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["location"] != "Location required" {
			t.Fatalf("expected location validation error, got %v", err)
		}
		if remote.count("register") != 0 {
			t.Fatalf("expected no registration call")
		}
	})

	t.Run("submits captured location", func(t *testing.T) {
		t.Parallel()

		remote := newRemoteStub(UserProfile{})
		notices := &noticeLog{}
		app := NewApp(remote, &credentialStoreStub{}, fixedLocator(35.6812, 139.7671), notices, nil)
		ctx := context.Background()

		if _, err := app.Auth.CaptureRegistrationLocation(ctx); err != nil {
			t.Fatalf("CaptureRegistrationLocation failed: %v", err)
		}
		if !notices.contains("Location captured: 35.6812, 139.7671") {
			t.Fatalf("expected capture notice, got %v", notices.messages())
		}
		if err := app.Auth.SubmitRegistration(ctx, RegistrationForm{OfficeID: "E002", Password: "pw", Email: "e002@example.com"}); err != nil {
			t.Fatalf("SubmitRegistration failed: %v", err)
		}
		if len(remote.registrations) != 1 || remote.registrations[0].Location.Lat != 35.6812 {
			t.Fatalf("expected registration with location, got %#v", remote.registrations)
		}
		if app.Auth.RegistrationView().Location != nil {
			t.Fatalf("expected captured location to be cleared")
		}
		if notices.last().Message != "Registration successful" {
			t.Fatalf("expected success notice, got %q", notices.last().Message)
		}
		if app.Session.Authenticated() {
			t.Fatalf("expected registration not to log in")
		}
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		t.Parallel()

		remote := newRemoteStub(UserProfile{})
		app := NewApp(remote, &credentialStoreStub{}, fixedLocator(1, 2), nil, nil)
		ctx := context.Background()

		if _, err := app.Auth.CaptureRegistrationLocation(ctx); err != nil {
			t.Fatalf("CaptureRegistrationLocation failed: %v", err)
		}
		err := app.Auth.SubmitRegistration(ctx, RegistrationForm{OfficeID: "E002", Password: "pw", Email: "not-an-email"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["email"] == "" {
			t.Fatalf("expected email validation error, got %v", err)
		}
	})

	t.Run("second submission while in flight is busy", func(t *testing.T) {
		t.Parallel()

		remote := newRemoteStub(UserProfile{})
		entered := make(chan struct{})
		release := make(chan struct{})
		remote.registerFn = func(context.Context, Registration) error {
			close(entered)
			<-release
			return nil
		}
		app := NewApp(remote, &credentialStoreStub{}, fixedLocator(1, 2), nil, nil)
		ctx := context.Background()

		if _, err := app.Auth.CaptureRegistrationLocation(ctx); err != nil {
			t.Fatalf("CaptureRegistrationLocation failed: %v", err)
		}
		form := RegistrationForm{OfficeID: "E002", Password: "pw"}
		done := make(chan error, 1)
		go func() { done <- app.Auth.SubmitRegistration(ctx, form) }()
		<-entered

		if !app.Auth.RegistrationView().Submitting {
			t.Fatalf("expected registration to be marked as submitting")
		}
		if err := app.Auth.SubmitRegistration(ctx, form); !errors.Is(err, ErrBusy) {
			t.Fatalf("expected ErrBusy, got %v", err)
		}
		close(release)
		if err := <-done; err != nil {
			t.Fatalf("first SubmitRegistration failed: %v", err)
		}
		if remote.count("register") != 1 {
			t.Fatalf("expected one registration call, got %d", remote.count("register"))
		}
	})

	t.Run("reports capture failure", func(t *testing.T) {
		t.Parallel()

		notices := &noticeLog{}
		locator := &locatorStub{results: []locateResult{{err: &LocationError{Kind: ErrLocationDenied}}}}
		app := NewApp(newRemoteStub(UserProfile{}), &credentialStoreStub{}, locator, notices, nil)

		if _, err := app.Auth.CaptureRegistrationLocation(context.Background()); !errors.Is(err, ErrLocationDenied) {
			t.Fatalf("expected ErrLocationDenied, got %v", err)
		}
		if notices.last().Message != "Location capture failed: Location permission denied" {
			t.Fatalf("unexpected notice %q", notices.last().Message)
		}
	})
}
