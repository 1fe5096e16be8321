package application

import (
	"context"
	"log/slog"
)

// DirectoryController lists every registered user for administrators.
type DirectoryController struct {
	source DirectorySource
	loader *listLoader[DirectoryEntry]
}

// NewDirectoryController constructs a DirectoryController.
func NewDirectoryController(source DirectorySource, notifier Notifier, logger *slog.Logger) *DirectoryController {
	c := &DirectoryController{source: source}
	c.loader = newListLoader("DirectoryController", c.fetch, "No employees found.", "Could not load employees", notifier, logger)
	return c
}

func (c *DirectoryController) fetch(ctx context.Context) ([]DirectoryEntry, error) {
	users, err := c.source.Users(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]DirectoryEntry, 0, len(users))
	for _, user := range users {
		entries = append(entries, DirectoryEntry{Profile: user, LocationSet: user.HomeLatitude != nil})
	}
	return entries, nil
}

// Activate re-fetches the directory.
func (c *DirectoryController) Activate(ctx context.Context, activation Activation) {
	_ = c.loader.load(ctx, activation)
}

// View returns the current directory list.
func (c *DirectoryController) View() ListView[DirectoryEntry] {
	return c.loader.snapshot()
}

// Reset implements Resetter.
func (c *DirectoryController) Reset() {
	c.loader.reset()
}
