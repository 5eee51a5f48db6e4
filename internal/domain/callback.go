package domain

// Transport identifies which of the three callback paths delivered an event.
// The same underlying payment can surface on all three, loosely synchronized.
type Transport string

const (
	TransportWebhook     Transport = "webhook"      // async server-to-server notification
	TransportRedirectGet Transport = "redirect_get" // synchronous browser redirect
	TransportClientScan  Transport = "client_scan"  // client-side URL recovery scan
)

// CallbackEvent is one inbound gateway notification. It is built fresh per
// HTTP request (or per client navigation), never persisted, and discarded
// once a RoutingDecision has been produced.
type CallbackEvent struct {
	Transport  Transport
	Fields     map[string]string
	SourcePage string // set for TransportClientScan only
}

// Field returns the first non-empty value among the given field names.
func (e *CallbackEvent) Field(names ...string) string {
	for _, name := range names {
		if v := e.Fields[name]; v != "" {
			return v
		}
	}
	return ""
}

// Confidence records how a transaction identifier was obtained.
type Confidence string

const (
	ConfidenceDeclared             Confidence = "declared"
	ConfidenceRecoveredFromField   Confidence = "recovered_from_field"
	ConfidenceRecoveredFromStorage Confidence = "recovered_from_storage"
	ConfidenceGenerated            Confidence = "generated"
)

// TransactionIdentity is the resolved canonical transaction reference.
// ID is never empty once a RoutingDecision is produced; when no source
// yields one, a Generated fallback token is synthesized. Generated ids are
// never used to look up real records.
type TransactionIdentity struct {
	ID         string
	Confidence Confidence
}

// IsGenerated reports whether the identity is a synthesized fallback.
func (t TransactionIdentity) IsGenerated() bool {
	return t.Confidence == ConfidenceGenerated
}

// Classification is the payment domain inferred from an identifier's prefix.
type Classification string

const (
	ClassificationSubscription       Classification = "subscription"
	ClassificationMembershipCard     Classification = "membership_card"
	ClassificationPriorityProcessing Classification = "priority_processing"
	ClassificationGeneric            Classification = "generic"
)

// Outcome is the normalized result of a callback. Indeterminate is reserved
// for an external verification step this service does not perform; the
// current rule set only produces Success or Failure.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeFailure       Outcome = "failure"
	OutcomeIndeterminate Outcome = "indeterminate"
)

// RoutingDecision is the sole output consumed by callers: the redirect
// target for browser paths, or the informational path in the webhook ack.
type RoutingDecision struct {
	DestinationPath string
	Identity        TransactionIdentity
	Classification  Classification
	Outcome         Outcome
}

// NotificationRequest is the receipt payload handed to the notification
// collaborator. It is built only for Success outcomes with a resolvable
// recipient, owned by the dispatching call, and never retried here - the
// collaborator owns its retry policy and should deduplicate across
// transports using TransactionID as its idempotency key.
type NotificationRequest struct {
	TransactionID  string `json:"transactionId"`
	RecipientEmail string `json:"email"`
	RecipientName  string `json:"name"`
	Amount         string `json:"amount"`
	ProductLabel   string `json:"productName"`
	PlanLabel      string `json:"planDetails"`
}
