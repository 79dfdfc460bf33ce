package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Lifecycle runs shutdown callbacks for resources acquired by the platform.
type Lifecycle struct {
	mu sync.Mutex

	stopCallbacks []namedCallback
	stopped       bool
}

type namedCallback struct {
	name string
	fn   func(context.Context) error
}

// NewLifecycle creates a new lifecycle manager.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// OnStop registers a callback to run on shutdown.
func (l *Lifecycle) OnStop(name string, callback func(context.Context) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopCallbacks = append(l.stopCallbacks, namedCallback{name: name, fn: callback})
}

// Closer is something that can be closed.
type Closer interface {
	Close() error
}

// RegisterCloser registers a closer to be closed on shutdown.
func (l *Lifecycle) RegisterCloser(name string, c Closer) {
	l.OnStop(name, func(_ context.Context) error {
		return c.Close()
	})
}

// Stop runs all stop callbacks in reverse order of registration. Later
// calls are no-ops.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return nil
	}
	l.stopped = true

	var errs []error
	for i := len(l.stopCallbacks) - 1; i >= 0; i-- {
		cb := l.stopCallbacks[i]
		if err := cb.fn(ctx); err != nil {
			slog.Warn("shutdown callback failed", "resource", cb.name, "error", err)
			errs = append(errs, fmt.Errorf("closing %s: %w", cb.name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}

// IsStopped returns whether Stop has run.
func (l *Lifecycle) IsStopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}
