package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/credilift/callback-service/internal/adapters/sabpaisa"
	"github.com/credilift/callback-service/internal/domain"
)

// Well-known client state keys, written at payment initiation and read back
// by the recovery path when a degraded callback drops the identity fields.
const (
	StorageKeyLastTxnID = "sp:last_txn_id"
	StorageKeyLastEmail = "sp:last_email"
)

// generatedIDTag marks synthesized fallback identifiers. Downstream
// collaborators never use these to look up real records; no matching
// persisted transaction can exist.
const generatedIDTag = "UNRESOLVED"

// StateLookup reads a previously persisted value by storage key. A nil
// lookup skips the storage step entirely (server-side transports).
type StateLookup func(ctx context.Context, key string) (string, bool)

// Resolver extracts a canonical transaction identifier from a callback
// event that may supply it under several field names, embedded inside
// another field's value, or not at all.
type Resolver struct {
	prefixes []string
	logger   *zap.Logger
}

// NewResolver creates a resolver. prefixes is the known identifier prefix
// set, used to recognize an id smuggled through the overloaded free-text
// plan field.
func NewResolver(prefixes []string, logger *zap.Logger) *Resolver {
	return &Resolver{
		prefixes: prefixes,
		logger:   logger,
	}
}

// Resolve produces a TransactionIdentity. The chain is ordered; each step
// runs only when the previous one yielded nothing, and every candidate is
// sanitized before acceptance. The returned ID is never empty: when no
// source yields one, a Generated token is synthesized.
func (r *Resolver) Resolve(ctx context.Context, event *domain.CallbackEvent, lookup StateLookup) domain.TransactionIdentity {
	// 1. Direct field under any recognized alias.
	if id := sabpaisa.SanitizeID(event.Field(sabpaisa.TxnIDAliases...)); id != "" {
		return domain.TransactionIdentity{ID: id, Confidence: domain.ConfidenceDeclared}
	}

	// 2. Embedded key=value fragment inside an unrelated field, the artifact
	// of the provider double-encoding a redirect URL. Field names are walked
	// in sorted order so repeated callbacks resolve the same id.
	names := make([]string, 0, len(event.Fields))
	for name := range event.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := event.Fields[name]
		if value == "" {
			continue
		}
		if id := sabpaisa.ExtractEmbeddedTxnID(value); id != "" {
			r.logger.Debug("recovered transaction id from embedded fragment",
				zap.String("field", name),
			)
			return domain.TransactionIdentity{ID: id, Confidence: domain.ConfidenceRecoveredFromField}
		}
	}

	// 3. The overloaded plan-details field, when it carries an id rather
	// than free text. Only values with a known prefix are trusted.
	if plan := sabpaisa.SanitizeID(event.Fields[sabpaisa.PlanDetailsField]); plan != "" {
		if !sabpaisa.LooksLikeEmail(plan) && r.hasKnownPrefix(plan) {
			return domain.TransactionIdentity{ID: plan, Confidence: domain.ConfidenceRecoveredFromField}
		}
	}

	// 4. Previously persisted identifier (client-side transports only).
	if lookup != nil {
		if stored, ok := lookup(ctx, StorageKeyLastTxnID); ok {
			if id := sabpaisa.SanitizeID(stored); id != "" {
				return domain.TransactionIdentity{ID: id, Confidence: domain.ConfidenceRecoveredFromStorage}
			}
		}
	}

	// 5. Synthesis. Clearly tagged so it is never mistaken for a real
	// reference.
	identity := NewGeneratedIdentity()
	r.logger.Warn("no transaction identity resolvable, synthesized fallback",
		zap.String("transport", string(event.Transport)),
		zap.String("generated_id", identity.ID),
	)
	return identity
}

// NewGeneratedIdentity synthesizes a tagged fallback identity. Every
// RoutingDecision carries a non-empty id, including the hard failure path.
func NewGeneratedIdentity() domain.TransactionIdentity {
	id := fmt.Sprintf("%s-%d-%s", generatedIDTag, time.Now().UnixMilli(), uuid.NewString()[:8])
	return domain.TransactionIdentity{ID: id, Confidence: domain.ConfidenceGenerated}
}

func (r *Resolver) hasKnownPrefix(id string) bool {
	for _, p := range r.prefixes {
		if len(id) >= len(p) && id[:len(p)] == p {
			return true
		}
	}
	return false
}
