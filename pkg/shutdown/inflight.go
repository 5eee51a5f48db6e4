package shutdown

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// InFlightTracker tracks detached work (notification dispatches) so that
// graceful shutdown can drain it instead of abandoning it mid-send.
type InFlightTracker struct {
	wg         sync.WaitGroup
	shutdownCh chan struct{}
	logger     *zap.Logger
	name       string
}

// NewInFlightTracker creates a new in-flight work tracker
func NewInFlightTracker(name string, logger *zap.Logger) *InFlightTracker {
	return &InFlightTracker{
		shutdownCh: make(chan struct{}),
		logger:     logger,
		name:       name,
	}
}

// Add increments the in-flight counter. Returns false once shutdown has
// been initiated; callers must not start new work then.
func (ift *InFlightTracker) Add() bool {
	select {
	case <-ift.shutdownCh:
		return false
	default:
		ift.wg.Add(1)
		return true
	}
}

// Done marks one unit of work complete, typically via defer.
func (ift *InFlightTracker) Done() {
	ift.wg.Done()
}

// IsShuttingDown reports whether shutdown has been initiated.
func (ift *InFlightTracker) IsShuttingDown() bool {
	select {
	case <-ift.shutdownCh:
		return true
	default:
		return false
	}
}

// Shutdown rejects new work and waits for in-flight work to finish or the
// context to expire.
func (ift *InFlightTracker) Shutdown(ctx context.Context) error {
	close(ift.shutdownCh)

	ift.logger.Info("Waiting for in-flight work to complete",
		zap.String("tracker", ift.name),
	)

	done := make(chan struct{})
	go func() {
		ift.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ift.logger.Info("All in-flight work completed",
			zap.String("tracker", ift.name),
		)
		return nil
	case <-ctx.Done():
		ift.logger.Warn("Shutdown timeout - some work may be incomplete",
			zap.String("tracker", ift.name),
		)
		return ctx.Err()
	}
}
