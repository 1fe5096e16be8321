package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// RegistrationView is a snapshot of the registration form state.
type RegistrationView struct {
	Location   *Coordinate
	Submitting bool
}

// AuthController handles login and self-registration.
type AuthController struct {
	mu         sync.Mutex
	gateway    AuthGateway
	session    *Session
	navigator  *Navigator
	locator    LocationProvider
	notifier   Notifier
	logger     *slog.Logger
	location   *Coordinate
	submitting bool
}

// NewAuthController constructs an AuthController.
func NewAuthController(gateway AuthGateway, session *Session, navigator *Navigator, locator LocationProvider, notifier Notifier, logger *slog.Logger) *AuthController {
	return &AuthController{
		gateway:   gateway,
		session:   session,
		navigator: navigator,
		locator:   locator,
		notifier:  defaultNotifier(notifier),
		logger:    defaultLogger(logger),
	}
}

func (c *AuthController) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return controllerLogger(ctx, c.logger, "AuthController", operation, attrs...)
}

// Login exchanges office credentials for a session credential, persists it and
// enters the authenticated state.
func (c *AuthController) Login(ctx context.Context, form LoginForm) (profile UserProfile, err error) {
	if c == nil || c.gateway == nil || c.session == nil || c.navigator == nil {
		err = fmt.Errorf("auth controller not configured")
		return
	}
	form = form.normalized()
	logger := c.loggerWith(ctx, "Login", "office_id", form.OfficeID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("role", profile.Role).InfoContext(ctx, "login succeeded")
	}()

	if vErr := validateForm(form); vErr != nil {
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: vErr.Message()})
		err = vErr
		return
	}

	result, loginErr := c.gateway.Login(ctx, form.OfficeID, form.Password)
	if loginErr != nil {
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: DisplayMessage(loginErr, "Login failed")})
		err = loginErr
		return
	}
	if strings.TrimSpace(result.AccessToken) == "" {
		err = fmt.Errorf("%w: login returned no access token", ErrUnauthenticated)
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: "Login failed"})
		return
	}

	if err = c.session.Set(ctx, result.AccessToken); err != nil {
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: "Login failed"})
		return
	}
	if err = c.navigator.Enter(ctx); err != nil {
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: DisplayMessage(err, "Login failed")})
		return
	}

	profile, _ = c.session.Profile()
	c.notifier.Notify(ctx, Notice{Level: NoticeSuccess, Message: fmt.Sprintf("Welcome, %s", profile.OfficeID)})
	return
}

// CaptureRegistrationLocation samples the current location as the home
// coordinate for a pending registration.
func (c *AuthController) CaptureRegistrationLocation(ctx context.Context) (Coordinate, error) {
	if c == nil || c.locator == nil {
		return Coordinate{}, ErrLocationUnsupported
	}
	logger := c.loggerWith(ctx, "CaptureRegistrationLocation")

	location, err := c.locator.Locate(ctx)
	if err != nil {
		logger.WarnContext(ctx, "location capture failed", "error", err, "error_kind", ErrorKind(err))
		c.notifier.Notify(ctx, Notice{
			Level:   NoticeError,
			Message: "Location capture failed: " + DisplayMessage(err, "Location unavailable"),
		})
		return Coordinate{}, err
	}

	c.mu.Lock()
	captured := location
	c.location = &captured
	c.mu.Unlock()

	logger.DebugContext(ctx, "location captured")
	c.notifier.Notify(ctx, Notice{Level: NoticeSuccess, Message: "Location captured: " + location.String()})
	return location, nil
}

// SubmitRegistration creates an account using the captured home location.
// Registration does not log the user in.
func (c *AuthController) SubmitRegistration(ctx context.Context, form RegistrationForm) (err error) {
	if c == nil || c.gateway == nil {
		return fmt.Errorf("auth controller not configured")
	}
	form = form.normalized()
	logger := c.loggerWith(ctx, "SubmitRegistration", "office_id", form.OfficeID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "registration succeeded")
	}()

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	vErr := &ValidationError{}
	vErr.merge(validateForm(form))
	if c.location == nil {
		vErr.add("location", "Location required")
	}
	if vErr.HasErrors() {
		c.mu.Unlock()
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: vErr.Message()})
		return vErr
	}
	location := *c.location
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	err = c.gateway.Register(ctx, Registration{
		OfficeID: form.OfficeID,
		Password: form.Password,
		Email:    form.Email,
		Location: location,
	})
	if err != nil {
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: DisplayMessage(err, "Registration failed")})
		return err
	}

	c.mu.Lock()
	c.location = nil
	c.mu.Unlock()
	c.notifier.Notify(ctx, Notice{Level: NoticeSuccess, Message: "Registration successful"})
	return nil
}

// RegistrationView returns the pending registration state.
func (c *AuthController) RegistrationView() RegistrationView {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := RegistrationView{Submitting: c.submitting}
	if c.location != nil {
		location := *c.location
		view.Location = &location
	}
	return view
}

// Reset implements Resetter.
func (c *AuthController) Reset() {
	c.mu.Lock()
	c.location = nil
	c.mu.Unlock()
}
