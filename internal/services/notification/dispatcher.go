package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/credilift/callback-service/internal/adapters/ports"
	"github.com/credilift/callback-service/internal/domain"
	"github.com/credilift/callback-service/pkg/observability"
)

// DefaultDispatchTimeout bounds one delivery attempt. The routing decision
// never waits on it; the timeout only stops a dead collaborator from
// pinning goroutines.
const DefaultDispatchTimeout = 10 * time.Second

// Dispatcher sends receipt notifications detached from the caller's control
// flow. At most one attempt is made per CallbackEvent; because one payment
// can surface on up to three transports, the collaborator may receive up to
// three requests for the same transaction and must deduplicate on
// TransactionID if it needs exactly-once delivery.
type Dispatcher struct {
	notifier ports.ReceiptNotifier
	inflight shutdownTracker
	logger   *zap.Logger
	timeout  time.Duration
}

// shutdownTracker is the subset of the in-flight tracker the dispatcher
// needs; narrowed for tests.
type shutdownTracker interface {
	Add() bool
	Done()
}

// NewDispatcher creates a dispatcher. tracker drains pending dispatches on
// graceful shutdown; timeout <= 0 uses DefaultDispatchTimeout.
func NewDispatcher(notifier ports.ReceiptNotifier, tracker shutdownTracker, logger *zap.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &Dispatcher{
		notifier: notifier,
		inflight: tracker,
		logger:   logger,
		timeout:  timeout,
	}
}

// Dispatch fires a receipt notification when outcome is Success and a
// request was buildable. It returns immediately; delivery runs on a
// detached goroutine with its own deadline, and any failure is logged and
// swallowed. There is no cancellation: once started, an attempt runs to
// completion or failure on its own.
func (d *Dispatcher) Dispatch(identity domain.TransactionIdentity, outcome domain.Outcome, req *domain.NotificationRequest) {
	if outcome != domain.OutcomeSuccess {
		return
	}
	if req == nil || req.RecipientEmail == "" {
		d.logger.Debug("notification skipped, no resolvable recipient",
			zap.String("transaction_id", identity.ID),
		)
		observability.RecordNotificationDispatch("skipped")
		return
	}

	if !d.inflight.Add() {
		d.logger.Warn("notification rejected, shutdown in progress",
			zap.String("transaction_id", req.TransactionID),
		)
		observability.RecordNotificationDispatch("rejected")
		return
	}

	go func() {
		defer d.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.SendReceipt(ctx, req); err != nil {
			d.logger.Error("receipt notification delivery failed",
				zap.Error(err),
				zap.String("transaction_id", req.TransactionID),
				zap.String("recipient", req.RecipientEmail),
			)
			observability.RecordNotificationDispatch("failed")
			return
		}

		d.logger.Info("receipt notification delivered",
			zap.String("transaction_id", req.TransactionID),
			zap.String("recipient", req.RecipientEmail),
		)
		observability.RecordNotificationDispatch("sent")
	}()
}
