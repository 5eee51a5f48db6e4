package callback

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/credilift/callback-service/internal/domain"
	"github.com/credilift/callback-service/internal/services/reconcile"
)

// WebhookHandler processes the gateway's asynchronous server-to-server
// callback. The caller is the gateway itself and does not navigate; the
// destination path in the acknowledgment is informational.
type WebhookHandler struct {
	pipeline *reconcile.Pipeline
	logger   *zap.Logger
}

// NewWebhookHandler creates a webhook callback handler.
func NewWebhookHandler(pipeline *reconcile.Pipeline, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// webhookAck is the JSON acknowledgment returned to the gateway. Success
// reports whether the callback reconciled to a Success outcome.
type webhookAck struct {
	Success         bool   `json:"success"`
	DestinationPath string `json:"destinationPath"`
}

// HandleWebhook processes one webhook notification.
// Endpoint: POST /api/v1/callbacks/webhook
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("webhook callback received non-POST request",
			zap.String("method", r.Method),
		)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// A garbled body still runs the pipeline: the resolver's fallback
	// chain and the generic failure route handle it, never an error reply.
	fields := decodeBody(r, h.logger)

	event := &domain.CallbackEvent{
		Transport: domain.TransportWebhook,
		Fields:    fields,
	}

	decision := h.pipeline.Reconcile(r.Context(), event, nil)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(webhookAck{
		Success:         decision.Outcome == domain.OutcomeSuccess,
		DestinationPath: decision.DestinationPath,
	}); err != nil {
		h.logger.Error("failed to encode webhook acknowledgment", zap.Error(err))
	}
}

// decodeBody reads the JSON payload into a flat string map. Non-string
// values are rendered with their default formatting; the gateway has sent
// amounts as both strings and numbers.
func decodeBody(r *http.Request, logger *zap.Logger) map[string]string {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		logger.Warn("failed to decode webhook body, continuing with empty fields",
			zap.Error(err),
		)
		return map[string]string{}
	}

	fields := make(map[string]string, len(raw))
	for name, value := range raw {
		switch v := value.(type) {
		case string:
			fields[name] = v
		case nil:
			// drop
		default:
			fields[name] = fmt.Sprintf("%v", v)
		}
	}
	return fields
}
