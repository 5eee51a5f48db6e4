package reconcile

import (
	"net/url"
	"strings"

	"github.com/credilift/callback-service/internal/domain"
)

// idToken is the placeholder substituted into path templates.
const idToken = "{id}"

// RoutePair holds the success and failure path templates for one
// classification, each parameterized by the transaction id.
type RoutePair struct {
	Success string
	Failure string
}

// RouteTable maps classifications to their destination templates.
type RouteTable map[domain.Classification]RoutePair

// DefaultRouteTable returns the portal's shipped destination templates.
// Deployments override these through configuration.
func DefaultRouteTable() RouteTable {
	return RouteTable{
		domain.ClassificationSubscription: {
			Success: "/subscription/payment-success?txn=" + idToken,
			Failure: "/subscription/payment-failed?txn=" + idToken,
		},
		domain.ClassificationMembershipCard: {
			Success: "/card/payment-success?txn=" + idToken,
			Failure: "/card/payment-failed?txn=" + idToken,
		},
		domain.ClassificationPriorityProcessing: {
			Success: "/priority/payment-success?txn=" + idToken,
			Failure: "/priority/payment-failed?txn=" + idToken,
		},
		domain.ClassificationGeneric: {
			Success: "/payment/success?txn=" + idToken,
			Failure: "/payment/failed?txn=" + idToken,
		},
	}
}

// Router computes destination paths. It is a pure function of its inputs
// and is the single source of truth for destinations: the webhook handler,
// the redirect handler, and the recovery listener all call this same table
// rather than carrying copies of the mapping.
type Router struct {
	table RouteTable
}

// NewRouter creates a router. Missing classifications fall back to the
// Generic pair; a nil table uses the defaults.
func NewRouter(table RouteTable) *Router {
	if len(table) == 0 {
		table = DefaultRouteTable()
	}
	if _, ok := table[domain.ClassificationGeneric]; !ok {
		table[domain.ClassificationGeneric] = DefaultRouteTable()[domain.ClassificationGeneric]
	}
	return &Router{table: table}
}

// Route maps (classification, outcome, id) to a destination path. Anything
// other than Success routes to the failure template; the user always lands
// on a coherent result page.
func (r *Router) Route(classification domain.Classification, outcome domain.Outcome, id string) string {
	pair, ok := r.table[classification]
	if !ok {
		pair = r.table[domain.ClassificationGeneric]
	}

	template := pair.Failure
	if outcome == domain.OutcomeSuccess {
		template = pair.Success
	}

	return strings.ReplaceAll(template, idToken, url.QueryEscape(id))
}

// FailurePath returns the generic failure destination, the hard fallback
// for pipeline-internal errors.
func (r *Router) FailurePath(id string) string {
	return r.Route(domain.ClassificationGeneric, domain.OutcomeFailure, id)
}
