package recovery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/credilift/callback-service/internal/adapters/ports"
	"github.com/credilift/callback-service/internal/adapters/sabpaisa"
	"github.com/credilift/callback-service/internal/domain"
	"github.com/credilift/callback-service/internal/services/reconcile"
	"github.com/credilift/callback-service/pkg/observability"
)

// DefaultStateTTL bounds how long recovered identity and email survive in
// the state store. Long enough to cover a misrouted redirect plus a page
// reload, short enough not to leak across unrelated checkouts.
const DefaultStateTTL = 30 * time.Minute

// NavigationEvent describes one client-side navigation as reported by the
// portal front end.
type NavigationEvent struct {
	SessionID string
	Page      string     // path the browser landed on
	RawURL    string     // full URL, the loop-guard key
	Params    url.Values // parsed query parameters
}

// Listener reconstructs a transaction context when gateway-shaped
// parameters appear on an unexpected page. It shares the reconciliation
// pipeline with the server-side entry points, falling back to persisted
// client state when the URL alone is insufficient, and guards against
// re-triggering on a URL it has already corrected.
type Listener struct {
	pipeline *reconcile.Pipeline
	store    ports.StateStore
	logger   *zap.Logger
	ttl      time.Duration
}

// NewListener creates a listener backed by the shared pipeline and the
// injected state store. ttl <= 0 uses DefaultStateTTL.
func NewListener(pipeline *reconcile.Pipeline, store ports.StateStore, logger *zap.Logger, ttl time.Duration) *Listener {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &Listener{
		pipeline: pipeline,
		store:    store,
		logger:   logger,
		ttl:      ttl,
	}
}

// Remember persists the transaction id and payer email at payment
// initiation so a later degraded callback can be reconstructed.
func (l *Listener) Remember(ctx context.Context, sessionID, txnID, email string) {
	if txnID != "" {
		if err := l.store.Set(ctx, l.sessionKey(sessionID, reconcile.StorageKeyLastTxnID), txnID, l.ttl); err != nil {
			l.logger.Warn("failed to persist transaction id", zap.Error(err))
		}
	}
	if email != "" {
		if err := l.store.Set(ctx, l.sessionKey(sessionID, reconcile.StorageKeyLastEmail), email, l.ttl); err != nil {
			l.logger.Warn("failed to persist payer email", zap.Error(err))
		}
	}
}

// Observe runs once per navigation. It returns the corrective routing
// decision and true when the URL is gateway-shaped and has not been
// corrected before; otherwise nil and false.
func (l *Listener) Observe(ctx context.Context, nav NavigationEvent) (*domain.RoutingDecision, bool) {
	fields := flatten(nav.Params)

	if !sabpaisa.GatewayShaped(fields) {
		observability.RecordRecoveryScan("not_gateway_shaped")
		return nil, false
	}

	// Once-only mark per raw URL: a corrective navigation must not
	// re-trigger against its own result or against a repeated scan.
	claimed, err := l.store.SetOnce(ctx, l.handledKey(nav), "1", l.ttl)
	if err != nil {
		// Best-effort store: proceed without the guard rather than
		// stranding the user on the wrong page.
		l.logger.Warn("recovery loop guard unavailable", zap.Error(err))
	} else if !claimed {
		l.logger.Debug("recovery already issued for this URL",
			zap.String("page", nav.Page),
		)
		observability.RecordRecoveryScan("already_handled")
		return nil, false
	}

	event := &domain.CallbackEvent{
		Transport:  domain.TransportClientScan,
		Fields:     fields,
		SourcePage: nav.Page,
	}

	lookup := func(ctx context.Context, key string) (string, bool) {
		val, err := l.store.Get(ctx, l.sessionKey(nav.SessionID, key))
		if err != nil {
			if !domain.IsStateError(err) {
				l.logger.Warn("state lookup failed", zap.Error(err), zap.String("key", key))
			}
			return "", false
		}
		return val, true
	}

	decision := l.pipeline.Reconcile(ctx, event, lookup)

	l.persistLearned(ctx, nav.SessionID, event, decision.Identity)

	l.logger.Info("corrective navigation issued",
		zap.String("source_page", nav.Page),
		zap.String("destination", decision.DestinationPath),
		zap.String("transaction_id", decision.Identity.ID),
	)
	observability.RecordRecoveryScan("corrected")

	return &decision, true
}

// persistLearned writes newly observed identity and email back to client
// state for future recovery attempts. Generated ids are not worth keeping;
// storage-sourced values are already there.
func (l *Listener) persistLearned(ctx context.Context, sessionID string, event *domain.CallbackEvent, identity domain.TransactionIdentity) {
	switch identity.Confidence {
	case domain.ConfidenceDeclared, domain.ConfidenceRecoveredFromField:
		if err := l.store.Set(ctx, l.sessionKey(sessionID, reconcile.StorageKeyLastTxnID), identity.ID, l.ttl); err != nil {
			l.logger.Warn("failed to persist learned transaction id", zap.Error(err))
		}
	}

	email := event.Field(sabpaisa.PayerEmailAliases...)
	if email == "" {
		if plan := event.Fields[sabpaisa.PlanDetailsField]; sabpaisa.LooksLikeEmail(plan) {
			email = plan
		}
	}
	if email != "" {
		if err := l.store.Set(ctx, l.sessionKey(sessionID, reconcile.StorageKeyLastEmail), email, l.ttl); err != nil {
			l.logger.Warn("failed to persist learned payer email", zap.Error(err))
		}
	}
}

func (l *Listener) sessionKey(sessionID, key string) string {
	return "session:" + sessionID + ":" + key
}

func (l *Listener) handledKey(nav NavigationEvent) string {
	sum := sha256.Sum256([]byte(nav.RawURL))
	return "handled:" + nav.SessionID + ":" + hex.EncodeToString(sum[:8])
}

// flatten keeps the first value per parameter; the gateway never sends
// meaningful repeats, only accidental duplicates from double-appending.
func flatten(params url.Values) map[string]string {
	fields := make(map[string]string, len(params))
	for name, values := range params {
		if len(values) > 0 {
			fields[name] = values[0]
		}
	}
	return fields
}
