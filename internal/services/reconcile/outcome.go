package reconcile

import (
	"github.com/credilift/callback-service/internal/adapters/sabpaisa"
	"github.com/credilift/callback-service/internal/domain"
)

// DetermineOutcome normalizes the gateway's divergent success and failure
// signals into one Outcome. Rules in priority order:
//
//  1. An explicit status field equal to a known success token is Success;
//     equal to a known failure token is Failure.
//  2. Otherwise, a present encrypted-response blob is treated as Success.
//     The blob is never parsed here; decryption belongs to the external
//     verification collaborator. This optimistic default is inherited from
//     the original integration and preserved for compatibility - a genuine
//     failure callback carrying a blob would be misread as success. It
//     should be replaced, not trusted, once real signature verification
//     exists.
//  3. Otherwise Failure.
//
// Indeterminate is reserved for the external verification step and is
// unreachable under the current rules.
func DetermineOutcome(event *domain.CallbackEvent) domain.Outcome {
	status := event.Field(sabpaisa.StatusAliases...)
	if status != "" {
		if sabpaisa.IsSuccessToken(status) {
			return domain.OutcomeSuccess
		}
		if sabpaisa.IsFailureToken(status) {
			return domain.OutcomeFailure
		}
	}

	if event.Field(sabpaisa.EncResponseAliases...) != "" {
		return domain.OutcomeSuccess
	}

	return domain.OutcomeFailure
}
