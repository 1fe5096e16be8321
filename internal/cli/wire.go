package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/attendance-client/internal/api"
	"github.com/example/attendance-client/internal/application"
	"github.com/example/attendance-client/internal/config"
	"github.com/example/attendance-client/internal/geolocation"
	"github.com/example/attendance-client/internal/logging"
	"github.com/example/attendance-client/internal/persistence"
	"github.com/example/attendance-client/internal/persistence/sqlite"
	"github.com/example/attendance-client/internal/security"
)

// runtime holds the wired client for one invocation.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
	store  *sqlite.Store
	client *api.Client
	app    *application.App
	in     *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

// Option adjusts the runtime built by Run.
type Option func(*runtimeOptions)

type runtimeOptions struct {
	httpClient *http.Client
	requestID  func() string
	locator    application.LocationProvider
	now        func() time.Time
}

// WithHTTPClient replaces the HTTP client used for the attendance service.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *runtimeOptions) { o.httpClient = hc }
}

// WithRequestIDGenerator overrides the X-Request-ID generator.
func WithRequestIDGenerator(next func() string) Option {
	return func(o *runtimeOptions) { o.requestID = next }
}

// WithLocator replaces the configured location provider.
func WithLocator(locator application.LocationProvider) Option {
	return func(o *runtimeOptions) { o.locator = locator }
}

// WithClock overrides the clock used for credential expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *runtimeOptions) { o.now = now }
}

func newRuntime(ctx context.Context, cfg config.Config, stdin io.Reader, stdout, stderr io.Writer, opts ...Option) (*runtime, error) {
	var options runtimeOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.now == nil {
		options.now = time.Now
	}

	logger := logging.New(stderr, cfg.LogFormat, cfg.LogLevel)
	in := bufio.NewReader(stdin)

	storeOpts := []sqlite.Option{sqlite.WithLogger(logger)}
	if cfg.StateSecret != "" {
		sealer, err := security.NewSealer(cfg.StateSecret)
		if err != nil {
			return nil, fmt.Errorf("configure state secret: %w", err)
		}
		storeOpts = append(storeOpts, sqlite.WithSealer(sealer))
	}
	store, err := sqlite.Open(ctx, cfg.StatePath, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("open client state: %w", err)
	}

	locator := options.locator
	if locator == nil {
		if cfg.Location != nil {
			locator = geolocation.NewStatic(application.Coordinate{Lat: cfg.Location.Latitude, Lng: cfg.Location.Longitude})
		} else {
			locator = geolocation.NewPrompt(in, stdout)
		}
	}

	// The client reads the credential through the session, which does not
	// exist until the app is built.
	var session *application.Session
	clientOpts := []api.Option{api.WithLogger(logger)}
	if options.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(options.httpClient))
	}
	if options.requestID != nil {
		clientOpts = append(clientOpts, api.WithRequestIDGenerator(options.requestID))
	}
	client := api.NewClient(cfg.APIBaseURL, api.CredentialFunc(func() string { return session.Credential() }), clientOpts...)

	app := application.NewApp(client, newCredentialStoreAdapter(store, logger), locator, newConsoleNotifier(stdout), logger)
	session = app.Session

	return &runtime{
		cfg:    cfg,
		logger: logger,
		store:  store,
		client: client,
		app:    app,
		in:     in,
		out:    stdout,
		now:    options.now,
	}, nil
}

// start restores the persisted session. A rejected credential is not fatal:
// the client simply starts logged out.
func (r *runtime) start(ctx context.Context) error {
	r.logCredential(ctx)
	err := r.app.Start(ctx)
	if err != nil && !errors.Is(err, application.ErrUnauthenticated) {
		return err
	}
	return nil
}

func (r *runtime) logCredential(ctx context.Context) {
	credential, err := r.store.LoadCredential(ctx)
	if err != nil {
		return
	}
	info, err := security.InspectCredential(credential)
	if err != nil {
		r.logger.DebugContext(ctx, "stored credential is opaque")
		return
	}
	attrs := []any{"subject", info.Subject}
	if info.ExpiresAt != nil {
		attrs = append(attrs, "expires_at", info.ExpiresAt.Format(time.RFC3339), "expired", info.Expired(r.now()))
	}
	r.logger.InfoContext(ctx, "stored credential found", attrs...)
}

func (r *runtime) close() {
	r.app.Close()
	if err := r.store.Close(); err != nil {
		r.logger.Error("failed to close client state", "error", err)
	}
}

type credentialStoreAdapter struct {
	repo   persistence.CredentialRepository
	logger *slog.Logger
}

func newCredentialStoreAdapter(repo persistence.CredentialRepository, logger *slog.Logger) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo, logger: logger}
}

func (a *credentialStoreAdapter) LoadCredential(ctx context.Context) (string, error) {
	credential, err := a.repo.LoadCredential(ctx)
	switch {
	case err == nil:
		return credential, nil
	case errors.Is(err, persistence.ErrNotFound):
		return "", application.ErrNotFound
	case errors.Is(err, persistence.ErrSealed):
		a.logger.WarnContext(ctx, "stored credential cannot be opened; starting logged out", "error", err)
		return "", application.ErrNotFound
	}
	return "", err
}

func (a *credentialStoreAdapter) SaveCredential(ctx context.Context, credential string) error {
	return a.repo.SaveCredential(ctx, credential)
}

func (a *credentialStoreAdapter) DeleteCredential(ctx context.Context) error {
	if err := a.repo.DeleteCredential(ctx); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return application.ErrNotFound
		}
		return err
	}
	return nil
}

type consoleNotifier struct {
	out io.Writer
}

func newConsoleNotifier(out io.Writer) consoleNotifier {
	return consoleNotifier{out: out}
}

func (n consoleNotifier) Notify(ctx context.Context, notice application.Notice) {
	marker := "i"
	switch notice.Level {
	case application.NoticeSuccess:
		marker = "+"
	case application.NoticeError:
		marker = "!"
	}
	fmt.Fprintf(n.out, "[%s] %s\n", marker, notice.Message)
}
