package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// RejectionDialog is open between choosing to reject a request and confirming
// or cancelling the comment.
type RejectionDialog struct {
	AttendanceID int64
}

// ApprovalView is a snapshot of the approvals section.
type ApprovalView struct {
	List       ListView[AttendanceRecord]
	Dialog     *RejectionDialog
	Submitting bool
}

// ApprovalController lists pending late requests and records decisions. After
// every successful decision the list is reloaded from the service.
type ApprovalController struct {
	mu         sync.Mutex
	service    ApprovalService
	notifier   Notifier
	logger     *slog.Logger
	loader     *listLoader[AttendanceRecord]
	activation Activation
	dialog     *RejectionDialog
	submitting bool
}

// NewApprovalController constructs an ApprovalController.
func NewApprovalController(service ApprovalService, notifier Notifier, logger *slog.Logger) *ApprovalController {
	c := &ApprovalController{
		service:  service,
		notifier: defaultNotifier(notifier),
		logger:   defaultLogger(logger),
	}
	c.loader = newListLoader("ApprovalController", c.fetch, "No pending approvals.", "Could not load pending approvals", notifier, logger)
	return c
}

func (c *ApprovalController) fetch(ctx context.Context) ([]AttendanceRecord, error) {
	return c.service.PendingApprovals(ctx)
}

func (c *ApprovalController) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return controllerLogger(ctx, c.logger, "ApprovalController", operation, attrs...)
}

// Activate closes any open dialog and reloads the pending list.
func (c *ApprovalController) Activate(ctx context.Context, activation Activation) {
	c.mu.Lock()
	c.activation = activation
	c.dialog = nil
	c.mu.Unlock()
	_ = c.loader.load(ctx, activation)
}

// Reset implements Resetter.
func (c *ApprovalController) Reset() {
	c.mu.Lock()
	c.activation = Activation{}
	c.dialog = nil
	c.mu.Unlock()
	c.loader.reset()
}

// View returns the current approvals state.
func (c *ApprovalController) View() ApprovalView {
	view := ApprovalView{List: c.loader.snapshot()}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dialog != nil {
		dialog := *c.dialog
		view.Dialog = &dialog
	}
	view.Submitting = c.submitting
	return view
}

// HandleApproval approves attendanceID immediately, or opens the rejection
// dialog when approve is false. Opening the dialog makes no remote call.
func (c *ApprovalController) HandleApproval(ctx context.Context, attendanceID int64, approve bool) (ApprovalReceipt, error) {
	if c == nil {
		return ApprovalReceipt{}, fmt.Errorf("ApprovalController is nil")
	}
	if approve {
		return c.submit(ctx, ApprovalDecision{AttendanceID: attendanceID, Approve: true})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ApprovalReceipt{}, ErrBusy
	}
	c.dialog = &RejectionDialog{AttendanceID: attendanceID}
	c.loggerWith(ctx, "HandleApproval", "attendance_id", attendanceID).DebugContext(ctx, "rejection dialog opened")
	return ApprovalReceipt{}, nil
}

// ConfirmRejection submits the pending rejection. A blank comment is omitted
// from the request.
func (c *ApprovalController) ConfirmRejection(ctx context.Context, comment string) (ApprovalReceipt, error) {
	if c == nil {
		return ApprovalReceipt{}, fmt.Errorf("ApprovalController is nil")
	}
	form := RejectionForm{Comment: comment}.normalized()

	c.mu.Lock()
	dialog := c.dialog
	if dialog == nil {
		c.mu.Unlock()
		return ApprovalReceipt{}, ErrNoPendingRejection
	}
	if vErr := validateForm(form); vErr != nil {
		c.mu.Unlock()
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: vErr.Message()})
		return ApprovalReceipt{}, vErr
	}
	c.dialog = nil
	c.mu.Unlock()

	decision := ApprovalDecision{AttendanceID: dialog.AttendanceID}
	if form.Comment != "" {
		decision.Comment = &form.Comment
	}
	return c.submit(ctx, decision)
}

// CancelRejection closes the rejection dialog without any remote call.
func (c *ApprovalController) CancelRejection() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	open := c.dialog != nil
	c.dialog = nil
	return open
}

func (c *ApprovalController) submit(ctx context.Context, decision ApprovalDecision) (receipt ApprovalReceipt, err error) {
	logger := c.loggerWith(ctx, "Submit", "attendance_id", decision.AttendanceID, "approve", decision.Approve)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "approval decision failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", receipt.Status).InfoContext(ctx, "approval decision recorded")
	}()

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		err = ErrBusy
		return
	}
	c.submitting = true
	activation := c.activation
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	receipt, err = c.service.DecideApproval(ctx, decision)
	if err != nil {
		receipt = ApprovalReceipt{}
		c.notifier.Notify(ctx, Notice{Level: NoticeError, Message: DisplayMessage(err, "Action failed")})
		return
	}

	message := "Request Rejected"
	if decision.Approve {
		message = "Request Approved"
	}
	c.notifier.Notify(ctx, Notice{Level: NoticeSuccess, Message: message})

	if reloadErr := c.loader.load(ctx, activation); reloadErr != nil && !errors.Is(reloadErr, ErrStaleResult) {
		logger.WarnContext(ctx, "reload after decision failed", "error", reloadErr)
	}
	return
}
