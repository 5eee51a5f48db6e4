package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Callback reconciliation metrics
	callbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callbacks_total",
		Help: "Total number of gateway callbacks reconciled",
	}, []string{
		"transport",      // webhook, redirect_get, client_scan
		"outcome",        // success, failure, indeterminate
		"classification", // subscription, membership_card, priority_processing, generic
	})

	callbackDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "callback_processing_duration_seconds",
		Help:    "Time to reconcile one callback into a routing decision",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"transport"})

	identityResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_resolutions_total",
		Help: "Transaction identity resolutions by confidence level",
	}, []string{
		"confidence", // declared, recovered_from_field, recovered_from_storage, generated
	})

	// Notification dispatch metrics
	notificationDispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatches_total",
		Help: "Receipt notification dispatch attempts by result",
	}, []string{
		"result", // sent, failed, skipped, rejected
	})

	// Client recovery metrics
	recoveryScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recovery_scans_total",
		Help: "Client navigation scans by result",
	}, []string{
		"result", // corrected, not_gateway_shaped, already_handled
	})
)

// RecordCallback records one reconciled callback.
func RecordCallback(transport, outcome, classification string, duration time.Duration) {
	callbacksTotal.WithLabelValues(transport, outcome, classification).Inc()
	callbackDuration.WithLabelValues(transport).Observe(duration.Seconds())
}

// RecordIdentityResolution records how a transaction identity was obtained.
func RecordIdentityResolution(confidence string) {
	identityResolutionsTotal.WithLabelValues(confidence).Inc()
}

// RecordNotificationDispatch records one dispatch attempt result.
func RecordNotificationDispatch(result string) {
	notificationDispatchesTotal.WithLabelValues(result).Inc()
}

// RecordRecoveryScan records one client recovery scan result.
func RecordRecoveryScan(result string) {
	recoveryScansTotal.WithLabelValues(result).Inc()
}
