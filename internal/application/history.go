package application

import (
	"context"
	"log/slog"
)

// HistoryController loads the caller's attendance history on every activation.
type HistoryController struct {
	source HistorySource
	loader *listLoader[AttendanceRecord]
}

// NewHistoryController constructs a HistoryController.
func NewHistoryController(source HistorySource, notifier Notifier, logger *slog.Logger) *HistoryController {
	c := &HistoryController{source: source}
	c.loader = newListLoader("HistoryController", c.fetch, "No records found.", "Could not load history", notifier, logger)
	return c
}

func (c *HistoryController) fetch(ctx context.Context) ([]AttendanceRecord, error) {
	return c.source.History(ctx)
}

// Activate re-fetches the full history.
func (c *HistoryController) Activate(ctx context.Context, activation Activation) {
	_ = c.loader.load(ctx, activation)
}

// View returns the current history list.
func (c *HistoryController) View() ListView[AttendanceRecord] {
	return c.loader.snapshot()
}

// Reset implements Resetter.
func (c *HistoryController) Reset() {
	c.loader.reset()
}
