package callback

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/credilift/callback-service/internal/domain"
	"github.com/credilift/callback-service/internal/services/reconcile"
)

// RedirectHandler processes the synchronous browser redirect from the
// gateway. This is the primary user-facing path: whatever the payload
// looks like, the user must land on a coherent result page.
type RedirectHandler struct {
	pipeline *reconcile.Pipeline
	logger   *zap.Logger
}

// NewRedirectHandler creates a redirect callback handler.
func NewRedirectHandler(pipeline *reconcile.Pipeline, logger *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// HandleRedirect processes one browser redirect callback.
// Endpoint: GET /api/v1/callbacks/redirect
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("redirect callback received non-GET request",
			zap.String("method", r.Method),
		)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fields := make(map[string]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			fields[name] = values[0]
		}
	}

	event := &domain.CallbackEvent{
		Transport: domain.TransportRedirectGet,
		Fields:    fields,
	}

	decision := h.pipeline.Reconcile(r.Context(), event, nil)

	http.Redirect(w, r, decision.DestinationPath, http.StatusFound)
}
