package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/attendance-client/internal/api"
	"github.com/example/attendance-client/internal/application"
	"github.com/example/attendance-client/internal/testfixtures"
)

func newRemoteApp(t *testing.T, server *testfixtures.RemoteServer, store *testfixtures.MemoryCredentialStore) (*application.App, *testfixtures.NoticeRecorder) {
	t.Helper()
	notices := &testfixtures.NoticeRecorder{}
	var session *application.Session
	client := api.NewClient(server.URL(), api.CredentialFunc(func() string { return session.Credential() }))
	app := application.NewApp(client, store, testfixtures.NewLocationSequence(testfixtures.At(35.6812, 139.7671)), notices, nil)
	session = app.Session
	t.Cleanup(app.Close)
	return app, notices
}

func TestApp_RemoteSessionLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	server := testfixtures.NewRemoteServer(t)
	profile := testfixtures.NewProfile(testfixtures.WithOfficeID("EMP500"))
	server.AddUser(profile, "secret1")

	store := testfixtures.NewMemoryCredentialStore("")
	app, notices := newRemoteApp(t, server, store)

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if app.Session.Authenticated() {
		t.Fatalf("expected no session without a stored credential")
	}

	if _, err := app.Auth.Login(ctx, application.LoginForm{OfficeID: "EMP500", Password: "secret1"}); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	token := store.Stored()
	if token == "" {
		t.Fatalf("expected credential to be persisted after login")
	}
	if !notices.Contains("Welcome, EMP500") {
		t.Fatalf("expected welcome notice, got %#v", notices.Notices())
	}

	first := server.Clock().Now()
	if _, err := app.CheckIn.PerformCheckIn(ctx); err != nil {
		t.Fatalf("first PerformCheckIn returned error: %v", err)
	}
	second := server.Clock().Advance(2 * time.Hour)
	if _, err := app.CheckIn.PerformCheckIn(ctx); err != nil {
		t.Fatalf("second PerformCheckIn returned error: %v", err)
	}

	if !app.Navigator.Goto(ctx, application.SectionHistory) {
		t.Fatalf("expected history to be reachable")
	}
	view := app.History.View()
	if view.Phase != application.LoadLoaded || len(view.Items) != 2 {
		t.Fatalf("expected two loaded records, got %#v", view)
	}
	if !view.Items[0].CreatedAt.Equal(second) || !view.Items[1].CreatedAt.Equal(first) {
		t.Fatalf("expected newest record first, got %s then %s", view.Items[0].CreatedAt, view.Items[1].CreatedAt)
	}

	if err := app.Navigator.Logout(ctx); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if store.Stored() != "" {
		t.Fatalf("expected credential to be removed on logout")
	}

	restored := testfixtures.NewMemoryCredentialStore(token)
	again, _ := newRemoteApp(t, server, restored)
	if err := again.Start(ctx); err != nil {
		t.Fatalf("Start with stored credential returned error: %v", err)
	}
	if again.Navigator.Current() != application.SectionCheckIn {
		t.Fatalf("expected restored session to land on check-in, got %q", again.Navigator.Current())
	}
	if got, _ := again.Session.Profile(); got.OfficeID != "EMP500" {
		t.Fatalf("expected restored profile EMP500, got %q", got.OfficeID)
	}
}
