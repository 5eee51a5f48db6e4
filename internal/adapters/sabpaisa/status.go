package sabpaisa

import "strings"

// StatusInfo describes a known gateway status token.
type StatusInfo struct {
	Token       string
	Display     string
	Description string
	IsSuccess   bool
	IsFailure   bool
}

// Status token map for SabPaisa callbacks. The gateway has shipped several
// spellings over time; all observed variants are listed.
var statusTokens = map[string]StatusInfo{
	"SUCCESS": {
		Token:       "SUCCESS",
		Display:     "SUCCESS",
		Description: "Transaction completed",
		IsSuccess:   true,
	},
	"TXN_SUCCESS": {
		Token:       "TXN_SUCCESS",
		Display:     "SUCCESS",
		Description: "Transaction completed (webhook spelling)",
		IsSuccess:   true,
	},
	"PAID": {
		Token:       "PAID",
		Display:     "SUCCESS",
		Description: "Settlement confirmed",
		IsSuccess:   true,
	},
	"FAILED": {
		Token:       "FAILED",
		Display:     "FAILED",
		Description: "Transaction failed",
		IsFailure:   true,
	},
	"FAILURE": {
		Token:       "FAILURE",
		Display:     "FAILED",
		Description: "Transaction failed (redirect spelling)",
		IsFailure:   true,
	},
	"TXN_FAILED": {
		Token:       "TXN_FAILED",
		Display:     "FAILED",
		Description: "Transaction failed (webhook spelling)",
		IsFailure:   true,
	},
	"ABORTED": {
		Token:       "ABORTED",
		Display:     "FAILED",
		Description: "User abandoned the gateway page",
		IsFailure:   true,
	},
	"CANCELLED": {
		Token:       "CANCELLED",
		Display:     "FAILED",
		Description: "User cancelled at the gateway",
		IsFailure:   true,
	},
}

// LookupStatus returns info for a status token, case-insensitive.
// The second return is false for tokens the gateway has never documented.
func LookupStatus(token string) (StatusInfo, bool) {
	info, ok := statusTokens[strings.ToUpper(strings.TrimSpace(token))]
	return info, ok
}

// IsSuccessToken reports whether token is a known success spelling.
func IsSuccessToken(token string) bool {
	info, ok := LookupStatus(token)
	return ok && info.IsSuccess
}

// IsFailureToken reports whether token is a known failure spelling.
func IsFailureToken(token string) bool {
	info, ok := LookupStatus(token)
	return ok && info.IsFailure
}
