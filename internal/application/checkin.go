package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// CheckInPhase is the state of the check-in workflow.
type CheckInPhase string

const (
	CheckInIdle            CheckInPhase = "idle"
	CheckInLocating        CheckInPhase = "locating"
	CheckInSubmitting      CheckInPhase = "submitting"
	CheckInResolvedPresent CheckInPhase = "resolved-present"
	CheckInResolvedOther   CheckInPhase = "resolved-other"
)

// LateFormState is the state of the late-request sub-form.
type LateFormState string

const (
	LateFormClosed     LateFormState = "closed"
	LateFormOpen       LateFormState = "open"
	LateFormSubmitting LateFormState = "submitting"
)

// LateResult records how the last late-request submission ended.
type LateResult string

const (
	LateResultNone    LateResult = ""
	LateResultSuccess LateResult = "success"
	LateResultFailure LateResult = "failure"
)

// CheckInView is a snapshot of the check-in section.
type CheckInView struct {
	Phase         CheckInPhase
	Outcome       *CheckInOutcome
	LateForm      LateFormState
	LateResult    LateResult
	LateMessage   string
	ButtonEnabled bool
}

func idleCheckInView() CheckInView {
	return CheckInView{Phase: CheckInIdle, LateForm: LateFormClosed, ButtonEnabled: true}
}

// CheckInController drives the check-in and late-request workflow.
type CheckInController struct {
	mu         sync.Mutex
	service    CheckInService
	locator    LocationProvider
	notifier   Notifier
	logger     *slog.Logger
	activation Activation
	view       CheckInView
}

// NewCheckInController constructs a CheckInController.
func NewCheckInController(service CheckInService, locator LocationProvider, notifier Notifier, logger *slog.Logger) *CheckInController {
	return &CheckInController{
		service:  service,
		locator:  locator,
		notifier: defaultNotifier(notifier),
		logger:   defaultLogger(logger),
		view:     idleCheckInView(),
	}
}

func (c *CheckInController) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return controllerLogger(ctx, c.logger, "CheckInController", operation, attrs...)
}

// Activate resets the section to idle; no outcome or open form survives.
func (c *CheckInController) Activate(ctx context.Context, activation Activation) {
	c.mu.Lock()
	c.activation = activation
	c.view = idleCheckInView()
	c.mu.Unlock()
}

// Reset implements Resetter.
func (c *CheckInController) Reset() {
	c.mu.Lock()
	c.activation = Activation{}
	c.view = idleCheckInView()
	c.mu.Unlock()
}

// View returns the current check-in state.
func (c *CheckInController) View() CheckInView {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := c.view
	if c.view.Outcome != nil {
		outcome := *c.view.Outcome
		view.Outcome = &outcome
	}
	return view
}

// apply mutates the view only while the activation that started the work is
// still the controller's and the navigator's current one.
func (c *CheckInController) apply(activation Activation, mutate func(v *CheckInView)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activation.Generation != activation.Generation || !activation.Current() {
		return false
	}
	mutate(&c.view)
	return true
}

// PerformCheckIn acquires a location and submits a check-in. Re-entry while an
// attempt is in flight returns ErrBusy.
func (c *CheckInController) PerformCheckIn(ctx context.Context) (outcome CheckInOutcome, err error) {
	if c == nil {
		err = fmt.Errorf("CheckInController is nil")
		return
	}
	logger := c.loggerWith(ctx, "PerformCheckIn")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "check-in failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"status", outcome.Status,
			"can_request_present", outcome.CanRequestPresent,
		).InfoContext(ctx, "check-in resolved")
	}()

	c.mu.Lock()
	if c.view.Phase == CheckInLocating || c.view.Phase == CheckInSubmitting {
		c.mu.Unlock()
		err = ErrBusy
		return
	}
	activation := c.activation
	c.view.Phase = CheckInLocating
	c.view.ButtonEnabled = false
	c.view.LateResult = LateResultNone
	c.view.LateMessage = ""
	c.mu.Unlock()

	c.notifier.Notify(ctx, Notice{Level: NoticeInfo, Message: "Getting location..."})

	location, locErr := c.locator.Locate(ctx)
	if locErr != nil {
		err = locErr
		if !c.apply(activation, func(v *CheckInView) {
			v.Phase = CheckInIdle
			v.ButtonEnabled = true
		}) {
			err = ErrStaleResult
			return
		}
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: DisplayMessage(locErr, "Could not get location")})
		return
	}

	if !c.apply(activation, func(v *CheckInView) { v.Phase = CheckInSubmitting }) {
		err = ErrStaleResult
		return
	}

	result, callErr := c.service.CheckIn(ctx, location)
	if callErr != nil {
		err = callErr
		if !c.apply(activation, func(v *CheckInView) {
			v.Phase = CheckInIdle
			v.ButtonEnabled = true
		}) {
			err = ErrStaleResult
			return
		}
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: DisplayMessage(callErr, "Check-in failed")})
		return
	}

	if !c.apply(activation, func(v *CheckInView) {
		resolved := result
		v.Outcome = &resolved
		v.ButtonEnabled = true
		if result.Status == StatusPresent {
			v.Phase = CheckInResolvedPresent
		} else {
			v.Phase = CheckInResolvedOther
		}
		if result.CanRequestPresent {
			v.LateForm = LateFormOpen
		} else {
			v.LateForm = LateFormClosed
		}
	}) {
		err = ErrStaleResult
		return
	}

	level := NoticeError
	if result.Status == StatusPresent {
		level = NoticeSuccess
	}
	c.notifier.Notify(ctx, Notice{
		Level:   level,
		Message: fmt.Sprintf("%s: %s (distance: %s)", result.Status, result.Message, FormatDistance(result.DistanceFromHome)),
	})
	outcome = result
	return
}

// SubmitLateRequest sends a justification for the last check-in. A blank
// reason is rejected locally. The location is sampled again rather than reused.
func (c *CheckInController) SubmitLateRequest(ctx context.Context, reason string) (receipt LateRequestReceipt, err error) {
	if c == nil {
		err = fmt.Errorf("CheckInController is nil")
		return
	}
	logger := c.loggerWith(ctx, "SubmitLateRequest")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "late request failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("request_id", receipt.RequestID, "status", receipt.Status).InfoContext(ctx, "late request submitted")
	}()

	form := LateRequestForm{Reason: reason}.normalized()
	if vErr := validateForm(form); vErr != nil {
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: vErr.Message()})
		err = vErr
		return
	}

	c.mu.Lock()
	switch c.view.LateForm {
	case LateFormSubmitting:
		c.mu.Unlock()
		err = ErrBusy
		return
	case LateFormClosed:
		c.mu.Unlock()
		err = ErrLateRequestNotOffered
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: DisplayMessage(err, "")})
		return
	}
	activation := c.activation
	c.view.LateForm = LateFormSubmitting
	c.view.LateResult = LateResultNone
	c.view.LateMessage = ""
	c.mu.Unlock()

	c.notifier.Notify(ctx, Notice{Level: NoticeInfo, Message: "Submitting..."})

	fail := func(cause error, fallback string) {
		message := DisplayMessage(cause, fallback)
		if !c.apply(activation, func(v *CheckInView) {
			v.LateForm = LateFormOpen
			v.LateResult = LateResultFailure
			v.LateMessage = message
		}) {
			err = ErrStaleResult
			return
		}
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: message})
		err = cause
	}

	location, locErr := c.locator.Locate(ctx)
	if locErr != nil {
		fail(locErr, "Could not get location")
		return
	}

	result, callErr := c.service.SubmitLateRequest(ctx, LateRequest{Location: location, Reason: form.Reason})
	if callErr != nil {
		fail(callErr, "Late request failed")
		return
	}

	const success = "Request submitted successfully"
	if !c.apply(activation, func(v *CheckInView) {
		v.LateForm = LateFormClosed
		v.LateResult = LateResultSuccess
		v.LateMessage = success
	}) {
		err = ErrStaleResult
		return
	}
	c.notifier.Notify(ctx, Notice{Level: NoticeSuccess, Message: success})
	receipt = result
	return
}
