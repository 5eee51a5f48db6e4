package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/credilift/callback-service/internal/adapters/sabpaisa"
	"github.com/credilift/callback-service/internal/domain"
	"github.com/credilift/callback-service/pkg/observability"
)

// Dispatcher triggers the receipt notification. Implementations must be
// fire-and-forget: Dispatch returns immediately and delivery failures stay
// invisible to the routing decision.
type Dispatcher interface {
	Dispatch(identity domain.TransactionIdentity, outcome domain.Outcome, req *domain.NotificationRequest)
}

// Pipeline composes the reconciliation stages shared by all three entry
// points: resolve identity, classify, determine outcome, conditionally
// dispatch a notification, and route. Nothing it does can fail the caller;
// any internal panic degrades to the generic failure path.
type Pipeline struct {
	resolver   *Resolver
	classifier *Classifier
	router     *Router
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewPipeline wires the stages together.
func NewPipeline(
	classifier *Classifier,
	router *Router,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		resolver:   NewResolver(classifier.Prefixes(), logger),
		classifier: classifier,
		router:     router,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Router exposes the shared route table for callers that need the hard
// failure fallback outside pipeline execution.
func (p *Pipeline) Router() *Router {
	return p.router
}

// Reconcile turns one CallbackEvent into a RoutingDecision. lookup is the
// optional prior-state source; server-side transports pass nil.
func (p *Pipeline) Reconcile(ctx context.Context, event *domain.CallbackEvent, lookup StateLookup) (decision domain.RoutingDecision) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := domain.NewDomainError(domain.ErrorCodePipelinePanicked, fmt.Sprintf("%v", r))
			p.logger.Error("reconciliation pipeline panicked, routing to generic failure",
				zap.Error(err),
				zap.String("transport", string(event.Transport)),
			)
			identity := NewGeneratedIdentity()
			decision = domain.RoutingDecision{
				DestinationPath: p.router.FailurePath(identity.ID),
				Identity:        identity,
				Classification:  domain.ClassificationGeneric,
				Outcome:         domain.OutcomeFailure,
			}
		}
		observability.RecordCallback(string(event.Transport), string(decision.Outcome), string(decision.Classification), time.Since(start))
	}()

	identity := p.resolver.Resolve(ctx, event, lookup)
	observability.RecordIdentityResolution(string(identity.Confidence))

	classification := p.classifier.Classify(identity.ID)
	outcome := DetermineOutcome(event)

	if outcome == domain.OutcomeSuccess {
		p.dispatcher.Dispatch(identity, outcome, p.buildNotification(ctx, event, identity, lookup))
	}

	decision = domain.RoutingDecision{
		DestinationPath: p.router.Route(classification, outcome, identity.ID),
		Identity:        identity,
		Classification:  classification,
		Outcome:         outcome,
	}

	p.logger.Info("callback reconciled",
		zap.String("transport", string(event.Transport)),
		zap.String("transaction_id", identity.ID),
		zap.String("confidence", string(identity.Confidence)),
		zap.String("classification", string(classification)),
		zap.String("outcome", string(outcome)),
		zap.String("destination", decision.DestinationPath),
	)

	return decision
}

// buildNotification assembles the receipt payload. Returns nil when no
// recipient email is resolvable; the dispatcher skips nil requests.
func (p *Pipeline) buildNotification(ctx context.Context, event *domain.CallbackEvent, identity domain.TransactionIdentity, lookup StateLookup) *domain.NotificationRequest {
	email := p.resolveRecipient(ctx, event, lookup)
	if email == "" {
		return nil
	}

	return &domain.NotificationRequest{
		TransactionID:  identity.ID,
		RecipientEmail: email,
		RecipientName:  event.Field(sabpaisa.PayerNameAliases...),
		Amount:         normalizeAmount(event.Field(sabpaisa.AmountAliases...)),
		ProductLabel:   event.Fields[sabpaisa.ProductNameField],
		PlanLabel:      event.Fields[sabpaisa.PlanDetailsField],
	}
}

// resolveRecipient finds the payer email: the direct field, the overloaded
// plan field when it carries an email copy, or the last known email from
// client state.
func (p *Pipeline) resolveRecipient(ctx context.Context, event *domain.CallbackEvent, lookup StateLookup) string {
	if email := event.Field(sabpaisa.PayerEmailAliases...); email != "" {
		return email
	}
	if plan := event.Fields[sabpaisa.PlanDetailsField]; sabpaisa.LooksLikeEmail(plan) {
		return plan
	}
	if lookup != nil {
		if stored, ok := lookup(ctx, StorageKeyLastEmail); ok && stored != "" {
			return stored
		}
	}
	return ""
}

// normalizeAmount renders the gateway's amount string with two decimal
// places. Unparseable values pass through untouched; the collaborator
// displays what the gateway sent rather than nothing.
func normalizeAmount(raw string) string {
	if raw == "" {
		return ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.StringFixed(2)
}
