// Package shutdown provides coordinated shutdown for the service's
// long-running components. Components register in startup order and
// are shut down in reverse, so the HTTP server stops accepting work
// before the scheduler, event hub, and history database go away.
//
// Usage:
//
//	coord := shutdown.NewCoordinator(logger)
//	coord.Register("history", store)
//	coord.Register("http-server", srv)
//	// On shutdown:
//	coord.Shutdown(ctx) // stops http-server first, then history
package shutdown

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Shutdowner is implemented by components participating in coordinated
// shutdown. Shutdown should respect the context deadline and return
// ctx.Err() if it cannot finish in time.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// ShutdownFunc adapts a plain function to the Shutdowner interface.
type ShutdownFunc func(ctx context.Context) error

// Shutdown calls the wrapped function.
func (f ShutdownFunc) Shutdown(ctx context.Context) error {
	return f(ctx)
}

type component struct {
	name       string
	shutdowner Shutdowner
}

// Coordinator manages ordered shutdown of registered components.
type Coordinator struct {
	components []component
	logger     *slog.Logger
}

// NewCoordinator creates a shutdown coordinator.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	return &Coordinator{
		logger: logger.With(slog.String("component", "shutdown")),
	}
}

// Register adds a component. Components shut down in reverse order of
// registration (LIFO), so register dependencies before their users.
func (c *Coordinator) Register(name string, s Shutdowner) {
	c.components = append(c.components, component{name: name, shutdowner: s})
}

// Shutdown stops all registered components in reverse order. A failing
// component is logged and the rest still shut down; the first error is
// returned. The context deadline bounds the whole sequence.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.logger.Info("starting coordinated shutdown",
		slog.Int("components", len(c.components)),
	)

	var firstErr error
	for i := len(c.components) - 1; i >= 0; i-- {
		comp := c.components[i]

		select {
		case <-ctx.Done():
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown deadline exceeded at %s: %w", comp.name, ctx.Err())
			}
			return firstErr
		default:
		}

		start := time.Now()
		if err := comp.shutdowner.Shutdown(ctx); err != nil {
			c.logger.Error("component shutdown failed",
				slog.String("handler", comp.name),
				slog.Duration("duration", time.Since(start)),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to shutdown %s: %w", comp.name, err)
			}
			continue
		}
		c.logger.Debug("component shutdown complete",
			slog.String("handler", comp.name),
			slog.Duration("duration", time.Since(start)),
		)
	}

	return firstErr
}
