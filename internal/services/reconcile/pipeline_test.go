package reconcile

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/credilift/callback-service/internal/domain"
)

// recordingDispatcher captures Dispatch calls for assertion.
type recordingDispatcher struct {
	mu    sync.Mutex
	calls []*domain.NotificationRequest
}

func (d *recordingDispatcher) Dispatch(_ domain.TransactionIdentity, _ domain.Outcome, req *domain.NotificationRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, req)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func newTestPipeline(t *testing.T) (*Pipeline, *recordingDispatcher) {
	dispatcher := &recordingDispatcher{}
	pipeline := NewPipeline(NewClassifier(nil), NewRouter(nil), dispatcher, zaptest.NewLogger(t))
	return pipeline, dispatcher
}

func TestPipeline_SuccessfulSubscriptionCallback(t *testing.T) {
	pipeline, dispatcher := newTestPipeline(t)

	event := &domain.CallbackEvent{
		Transport: domain.TransportWebhook,
		Fields: map[string]string{
			"clientTxnId": "CB-ABC123",
			"status":      "SUCCESS",
			"payerEmail":  "payer@example.com",
			"payerName":   "A Payer",
			"amount":      "499.5",
			"productName": "Credit Builder",
		},
	}

	decision := pipeline.Reconcile(context.Background(), event, nil)

	assert.Equal(t, "/subscription/payment-success?txn=CB-ABC123", decision.DestinationPath)
	assert.Equal(t, domain.OutcomeSuccess, decision.Outcome)
	assert.Equal(t, domain.ClassificationSubscription, decision.Classification)
	assert.Equal(t, domain.ConfidenceDeclared, decision.Identity.Confidence)

	require.Equal(t, 1, dispatcher.count())
	req := dispatcher.calls[0]
	require.NotNil(t, req)
	assert.Equal(t, "CB-ABC123", req.TransactionID)
	assert.Equal(t, "payer@example.com", req.RecipientEmail)
	assert.Equal(t, "A Payer", req.RecipientName)
	assert.Equal(t, "499.50", req.Amount)
	assert.Equal(t, "Credit Builder", req.ProductLabel)
}

func TestPipeline_FailureNeverDispatches(t *testing.T) {
	pipeline, dispatcher := newTestPipeline(t)

	event := &domain.CallbackEvent{
		Transport: domain.TransportRedirectGet,
		Fields: map[string]string{
			"clientTxnId": "MC-XYZ",
			"status":      "FAILED",
			"payerEmail":  "payer@example.com",
		},
	}

	decision := pipeline.Reconcile(context.Background(), event, nil)

	assert.Equal(t, "/card/payment-failed?txn=MC-XYZ", decision.DestinationPath)
	assert.Equal(t, domain.OutcomeFailure, decision.Outcome)
	assert.Zero(t, dispatcher.count())
}

func TestPipeline_SuccessWithoutRecipientDispatchesNil(t *testing.T) {
	pipeline, dispatcher := newTestPipeline(t)

	event := &domain.CallbackEvent{
		Transport: domain.TransportWebhook,
		Fields: map[string]string{
			"clientTxnId": "PP-1",
			"status":      "SUCCESS",
		},
	}

	pipeline.Reconcile(context.Background(), event, nil)

	// dispatch still happens; skipping a nil request is the dispatcher's call
	require.Equal(t, 1, dispatcher.count())
	assert.Nil(t, dispatcher.calls[0])
}

func TestPipeline_RecipientFromOverloadedPlanField(t *testing.T) {
	pipeline, dispatcher := newTestPipeline(t)

	event := &domain.CallbackEvent{
		Transport: domain.TransportWebhook,
		Fields: map[string]string{
			"clientTxnId": "CB-PLAN1",
			"status":      "SUCCESS",
			"planDetails": "fallback@example.com",
		},
	}

	pipeline.Reconcile(context.Background(), event, nil)

	require.Equal(t, 1, dispatcher.count())
	require.NotNil(t, dispatcher.calls[0])
	assert.Equal(t, "fallback@example.com", dispatcher.calls[0].RecipientEmail)
}

func TestPipeline_RecipientFromStorage(t *testing.T) {
	pipeline, dispatcher := newTestPipeline(t)

	event := &domain.CallbackEvent{
		Transport: domain.TransportClientScan,
		Fields: map[string]string{
			"clientTxnId": "CB-STORE1",
			"status":      "SUCCESS",
		},
	}

	lookup := func(_ context.Context, key string) (string, bool) {
		if key == StorageKeyLastEmail {
			return "stored@example.com", true
		}
		return "", false
	}

	pipeline.Reconcile(context.Background(), event, lookup)

	require.Equal(t, 1, dispatcher.count())
	require.NotNil(t, dispatcher.calls[0])
	assert.Equal(t, "stored@example.com", dispatcher.calls[0].RecipientEmail)
}

func TestPipeline_GeneratedIdentityRoutesGeneric(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	event := &domain.CallbackEvent{Transport: domain.TransportRedirectGet, Fields: map[string]string{}}

	decision := pipeline.Reconcile(context.Background(), event, nil)

	assert.True(t, decision.Identity.IsGenerated())
	assert.Equal(t, domain.ClassificationGeneric, decision.Classification)
	assert.Equal(t, domain.OutcomeFailure, decision.Outcome)
	assert.Contains(t, decision.DestinationPath, "/payment/failed?txn=")
}

func TestPipeline_UnparseableAmountPassesThrough(t *testing.T) {
	pipeline, dispatcher := newTestPipeline(t)

	event := &domain.CallbackEvent{
		Transport: domain.TransportWebhook,
		Fields: map[string]string{
			"clientTxnId": "CB-AMT",
			"status":      "SUCCESS",
			"payerEmail":  "payer@example.com",
			"amount":      "Rs. 499/-",
		},
	}

	pipeline.Reconcile(context.Background(), event, nil)

	require.Equal(t, 1, dispatcher.count())
	assert.Equal(t, "Rs. 499/-", dispatcher.calls[0].Amount)
}

type panickingDispatcher struct{}

func (panickingDispatcher) Dispatch(domain.TransactionIdentity, domain.Outcome, *domain.NotificationRequest) {
	panic("dispatcher exploded")
}

func TestPipeline_PanicFallsBackToGenericFailure(t *testing.T) {
	pipeline := NewPipeline(NewClassifier(nil), NewRouter(nil), panickingDispatcher{}, zaptest.NewLogger(t))

	event := &domain.CallbackEvent{
		Transport: domain.TransportWebhook,
		Fields: map[string]string{
			"clientTxnId": "CB-BOOM",
			"status":      "SUCCESS",
			"payerEmail":  "payer@example.com",
		},
	}

	decision := pipeline.Reconcile(context.Background(), event, nil)

	assert.Equal(t, domain.OutcomeFailure, decision.Outcome)
	assert.Equal(t, domain.ClassificationGeneric, decision.Classification)

	// even the hard failure path carries a non-empty, tagged identity
	require.NotEmpty(t, decision.Identity.ID)
	assert.True(t, decision.Identity.IsGenerated())
	assert.True(t, strings.HasPrefix(decision.Identity.ID, "UNRESOLVED-"))
	assert.Equal(t, "/payment/failed?txn="+decision.Identity.ID, decision.DestinationPath)
}
