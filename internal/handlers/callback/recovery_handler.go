package callback

import (
	"encoding/json"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/credilift/callback-service/internal/services/recovery"
)

// sessionCookieName is the portal's session cookie, used to scope client
// state when the front end does not send an explicit session header.
const sessionCookieName = "portal_session"

// RecoveryHandler exposes the client recovery listener to the portal's
// front end, which reports every navigation it observes. When the reported
// URL carries gateway-shaped parameters on an unexpected page, the response
// tells the client where to navigate instead.
type RecoveryHandler struct {
	listener *recovery.Listener
	logger   *zap.Logger
}

// NewRecoveryHandler creates a recovery scan handler.
func NewRecoveryHandler(listener *recovery.Listener, logger *zap.Logger) *RecoveryHandler {
	return &RecoveryHandler{
		listener: listener,
		logger:   logger,
	}
}

type recoveryScanRequest struct {
	Page string `json:"page"`
	URL  string `json:"url"`
}

type rememberRequest struct {
	TransactionID string `json:"transactionId"`
	Email         string `json:"email"`
}

type recoveryScanResponse struct {
	Redirect string `json:"redirect"`
}

// HandleScan processes one reported navigation.
// Endpoint: POST /api/v1/callbacks/recover
// Responds 200 {redirect} when a corrective navigation is needed, 204
// otherwise (not gateway-shaped, or this URL was already corrected).
func (h *RecoveryHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req recoveryScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode recovery scan request", zap.Error(err))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	parsed, err := url.Parse(req.URL)
	if err != nil {
		h.logger.Warn("unparseable navigation URL in recovery scan",
			zap.Error(err),
			zap.String("page", req.Page),
		)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	page := req.Page
	if page == "" {
		page = parsed.Path
	}

	nav := recovery.NavigationEvent{
		SessionID: h.sessionID(r),
		Page:      page,
		RawURL:    req.URL,
		Params:    parsed.Query(),
	}

	decision, corrected := h.listener.Observe(r.Context(), nav)
	if !corrected {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(recoveryScanResponse{
		Redirect: decision.DestinationPath,
	}); err != nil {
		h.logger.Error("failed to encode recovery response", zap.Error(err))
	}
}

// HandleRemember persists the checkout context reported by the portal at
// payment initiation, so a later degraded callback can be reconstructed.
// Endpoint: POST /api/v1/callbacks/remember
func (h *RecoveryHandler) HandleRemember(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rememberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode remember request", zap.Error(err))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	h.listener.Remember(r.Context(), h.sessionID(r), req.TransactionID, req.Email)
	w.WriteHeader(http.StatusNoContent)
}

// sessionID scopes client state. Header first, then the portal session
// cookie, then a shared anonymous bucket so recovery still works for
// cookieless clients (at the cost of cross-user id reuse within the TTL).
func (h *RecoveryHandler) sessionID(r *http.Request) string {
	if id := r.Header.Get("X-Session-Id"); id != "" {
		return id
	}
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return "anonymous"
}
