package application

import (
	"context"
	"log/slog"
	"sync"
)

// LoadPhase is the state of a fetch-and-render cycle.
type LoadPhase string

const (
	LoadIdle    LoadPhase = "idle"
	LoadLoading LoadPhase = "loading"
	LoadLoaded  LoadPhase = "loaded"
	LoadFailed  LoadPhase = "failed"
)

// ListView is a snapshot of a loaded list. EmptyMessage is set only when a
// load succeeded with zero items. A failed load keeps the previous items.
type ListView[T any] struct {
	Phase        LoadPhase
	Items        []T
	EmptyMessage string
	Error        string
}

// listLoader runs the shared load cycle: loading, then loaded or failed.
type listLoader[T any] struct {
	mu             sync.Mutex
	name           string
	fetch          func(ctx context.Context) ([]T, error)
	emptyMessage   string
	failureMessage string
	notifier       Notifier
	logger         *slog.Logger
	view           ListView[T]
	// seq identifies the most recent load or reset; older loads never touch the view.
	seq uint64
}

func newListLoader[T any](name string, fetch func(ctx context.Context) ([]T, error), emptyMessage, failureMessage string, notifier Notifier, logger *slog.Logger) *listLoader[T] {
	return &listLoader[T]{
		name:           name,
		fetch:          fetch,
		emptyMessage:   emptyMessage,
		failureMessage: failureMessage,
		notifier:       defaultNotifier(notifier),
		logger:         defaultLogger(logger),
		view:           ListView[T]{Phase: LoadIdle},
	}
}

// load performs a full fetch. Results for an activation that is no longer
// current are dropped with ErrStaleResult.
func (l *listLoader[T]) load(ctx context.Context, activation Activation) (err error) {
	logger := controllerLogger(ctx, l.logger, l.name, "Load", "generation", activation.Generation)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "list load failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "list loaded")
	}()

	l.mu.Lock()
	l.seq++
	seq := l.seq
	previous := l.view.Phase
	l.view.Phase = LoadLoading
	l.view.Error = ""
	l.view.EmptyMessage = ""
	l.mu.Unlock()

	items, fetchErr := l.fetch(ctx)

	l.mu.Lock()
	if !activation.Current() || l.seq != seq {
		if l.seq == seq && l.view.Phase == LoadLoading {
			l.view.Phase = previous
		}
		l.mu.Unlock()
		return ErrStaleResult
	}
	if fetchErr != nil {
		message := DisplayMessage(fetchErr, l.failureMessage)
		l.view.Phase = LoadFailed
		l.view.Error = message
		l.mu.Unlock()
		l.notifier.Notify(ctx, Notice{Level: NoticeError, Message: message})
		return fetchErr
	}
	l.view.Phase = LoadLoaded
	l.view.Items = append([]T(nil), items...)
	if len(items) == 0 {
		l.view.EmptyMessage = l.emptyMessage
	}
	l.mu.Unlock()
	return nil
}

func (l *listLoader[T]) snapshot() ListView[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	view := l.view
	view.Items = append([]T(nil), l.view.Items...)
	return view
}

func (l *listLoader[T]) reset() {
	l.mu.Lock()
	l.seq++
	l.view = ListView[T]{Phase: LoadIdle}
	l.mu.Unlock()
}
