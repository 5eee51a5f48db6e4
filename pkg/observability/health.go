package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is anything that can report liveness of a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthChecker manages health checks for the service
type HealthChecker struct {
	deps map[string]Pinger
}

// NewHealthChecker creates a new HealthChecker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{deps: make(map[string]Pinger)}
}

// Register adds a named dependency to the health check set.
func (h *HealthChecker) Register(name string, dep Pinger) {
	h.deps[name] = dep
}

// Check performs health checks and returns the status
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	checks := make(map[string]string)
	overallStatus := "healthy"

	for name, dep := range h.deps {
		depCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := dep.Ping(depCtx)
		cancel()

		if err != nil {
			checks[name] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
		} else {
			checks[name] = "healthy"
		}
	}

	return HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// HealthHandler returns an HTTP handler for health checks
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(status)
	}
}
