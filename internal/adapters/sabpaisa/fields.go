package sabpaisa

import "strings"

// SabPaisa is inconsistent about field naming across its webhook and redirect
// channels, so every logical field carries an ordered alias list. First match
// wins when reading a callback payload.

// TxnIDAliases are the field names observed carrying the client transaction id.
var TxnIDAliases = []string{
	"clientTxnId",
	"client_txn_id",
	"clientTxnid",
	"txnId",
	"txn_id",
}

// GatewayTxnIDAliases carry SabPaisa's own reference, kept for logging only.
var GatewayTxnIDAliases = []string{
	"sabpaisaTxnId",
	"sabpaisa_txn_id",
}

// StatusAliases carry the explicit outcome token.
var StatusAliases = []string{
	"status",
	"txnStatus",
	"statusCode",
}

// EncResponseAliases carry the opaque encrypted response blob. Its content is
// decrypted by the verification collaborator, never parsed here.
var EncResponseAliases = []string{
	"encResponse",
	"encResp",
	"encData",
}

// PayerEmailAliases carry the payer's email address.
var PayerEmailAliases = []string{
	"payerEmail",
	"payer_email",
	"email",
}

// PayerNameAliases carry the payer's display name.
var PayerNameAliases = []string{
	"payerName",
	"payer_name",
}

// AmountAliases carry the paid amount as a decimal string.
var AmountAliases = []string{
	"amount",
	"paidAmount",
	"amountPaid",
}

// PlanDetailsField is nominally a free-text plan description, but the
// integration overloads it: when the primary channel truncates, it can carry
// a fallback copy of the transaction id or the payer email.
const PlanDetailsField = "planDetails"

// ProductNameField carries the purchased product's display label.
const ProductNameField = "productName"

// idDelimiters indicate accidental concatenation with a second query string,
// observed when the gateway double-appends parameters to the redirect URL.
const idDelimiters = "?&#"

// SanitizeID truncates an identifier at the first delimiter that would
// indicate a second query string was concatenated onto it.
func SanitizeID(id string) string {
	if i := strings.IndexAny(id, idDelimiters); i >= 0 {
		id = id[:i]
	}
	return strings.TrimSpace(id)
}

// ExtractEmbeddedTxnID scans a value for an embedded "<alias>=<id>" fragment,
// the artifact of the provider double-encoding its redirect URL. Returns the
// sanitized id, or "" when no fragment is present.
func ExtractEmbeddedTxnID(value string) string {
	for _, alias := range TxnIDAliases {
		marker := alias + "="
		i := strings.Index(value, marker)
		if i < 0 {
			continue
		}
		if id := SanitizeID(value[i+len(marker):]); id != "" {
			return id
		}
	}
	return ""
}

// LooksLikeEmail reports whether a value is plausibly an email address.
// Used when the overloaded plan-details field carries a fallback email copy.
func LooksLikeEmail(value string) bool {
	at := strings.Index(value, "@")
	return at > 0 && strings.Contains(value[at:], ".")
}

// GatewayShaped reports whether a set of query parameters looks like a
// SabPaisa callback. Any identity-bearing alias or an encrypted response
// blob qualifies, regardless of which page the parameters appeared on.
func GatewayShaped(fields map[string]string) bool {
	for _, alias := range TxnIDAliases {
		if fields[alias] != "" {
			return true
		}
	}
	for _, alias := range GatewayTxnIDAliases {
		if fields[alias] != "" {
			return true
		}
	}
	for _, alias := range EncResponseAliases {
		if fields[alias] != "" {
			return true
		}
	}
	return false
}
