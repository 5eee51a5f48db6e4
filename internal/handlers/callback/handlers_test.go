package callback

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/credilift/callback-service/internal/adapters/memstore"
	"github.com/credilift/callback-service/internal/domain"
	"github.com/credilift/callback-service/internal/services/reconcile"
	"github.com/credilift/callback-service/internal/services/recovery"
)

type dropDispatcher struct{}

func (dropDispatcher) Dispatch(domain.TransactionIdentity, domain.Outcome, *domain.NotificationRequest) {
}

func newTestPipeline(t *testing.T) *reconcile.Pipeline {
	return reconcile.NewPipeline(
		reconcile.NewClassifier(nil),
		reconcile.NewRouter(nil),
		dropDispatcher{},
		zaptest.NewLogger(t),
	)
}

func TestWebhookHandler_SuccessfulCallback(t *testing.T) {
	h := NewWebhookHandler(newTestPipeline(t), zaptest.NewLogger(t))

	body, _ := json.Marshal(map[string]interface{}{
		"clientTxnId": "CB-ABC123",
		"status":      "SUCCESS",
		"amount":      499.5, // gateway sends amounts as numbers too
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleWebhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var ack struct {
		Success         bool   `json:"success"`
		DestinationPath string `json:"destinationPath"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.True(t, ack.Success)
	assert.Equal(t, "/subscription/payment-success?txn=CB-ABC123", ack.DestinationPath)
}

func TestWebhookHandler_FailedCallback(t *testing.T) {
	h := NewWebhookHandler(newTestPipeline(t), zaptest.NewLogger(t))

	body := `{"clientTxnId":"MC-XYZ","status":"FAILED"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleWebhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var ack struct {
		Success         bool   `json:"success"`
		DestinationPath string `json:"destinationPath"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.False(t, ack.Success)
	assert.Equal(t, "/card/payment-failed?txn=MC-XYZ", ack.DestinationPath)
}

func TestWebhookHandler_MalformedBodyStillAcks(t *testing.T) {
	h := NewWebhookHandler(newTestPipeline(t), zaptest.NewLogger(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/webhook", strings.NewReader("{not-json"))
	rec := httptest.NewRecorder()

	h.HandleWebhook(rec, req)

	// never an error reply: the pipeline runs with empty fields
	require.Equal(t, http.StatusOK, rec.Code)

	var ack struct {
		Success         bool   `json:"success"`
		DestinationPath string `json:"destinationPath"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.False(t, ack.Success)
	assert.Contains(t, ack.DestinationPath, "/payment/failed?txn=")
}

func TestWebhookHandler_RejectsNonPost(t *testing.T) {
	h := NewWebhookHandler(newTestPipeline(t), zaptest.NewLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/callbacks/webhook", nil)
	rec := httptest.NewRecorder()

	h.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRedirectHandler_RedirectsToResultPage(t *testing.T) {
	h := NewRedirectHandler(newTestPipeline(t), zaptest.NewLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/callbacks/redirect?clientTxnId=PP-77&status=SUCCESS", nil)
	rec := httptest.NewRecorder()

	h.HandleRedirect(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/priority/payment-success?txn=PP-77", rec.Header().Get("Location"))
}

func TestRedirectHandler_EmptyQueryLandsOnGenericFailure(t *testing.T) {
	h := NewRedirectHandler(newTestPipeline(t), zaptest.NewLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/callbacks/redirect", nil)
	rec := httptest.NewRecorder()

	h.HandleRedirect(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/payment/failed?txn=")
}

func TestRedirectHandler_SanitizesConcatenatedID(t *testing.T) {
	h := NewRedirectHandler(newTestPipeline(t), zaptest.NewLogger(t))

	// double-appended query string survives URL encoding inside the id value
	req := httptest.NewRequest(http.MethodGet, "/api/v1/callbacks/redirect?clientTxnId=CB-ABC123%3Fstatus%3DSUCCESS&status=SUCCESS", nil)
	rec := httptest.NewRecorder()

	h.HandleRedirect(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/subscription/payment-success?txn=CB-ABC123", rec.Header().Get("Location"))
}

func newTestRecoveryHandler(t *testing.T) *RecoveryHandler {
	listener := recovery.NewListener(newTestPipeline(t), memstore.New(), zaptest.NewLogger(t), 0)
	return NewRecoveryHandler(listener, zaptest.NewLogger(t))
}

func TestRecoveryHandler_CorrectiveRedirect(t *testing.T) {
	h := newTestRecoveryHandler(t)

	body := `{"page":"/dashboard","url":"https://portal.example.com/dashboard?clientTxnId=CB-ABC123&status=SUCCESS"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/recover", strings.NewReader(body))
	req.Header.Set("X-Session-Id", "sess-1")
	rec := httptest.NewRecorder()

	h.HandleScan(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/subscription/payment-success?txn=CB-ABC123", resp.Redirect)
}

func TestRecoveryHandler_OrdinaryNavigationIsNoContent(t *testing.T) {
	h := newTestRecoveryHandler(t)

	body := `{"page":"/dashboard","url":"https://portal.example.com/dashboard?tab=loans"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/recover", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleScan(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRecoveryHandler_RepeatScanIsNoContent(t *testing.T) {
	h := newTestRecoveryHandler(t)

	body := `{"page":"/dashboard","url":"https://portal.example.com/dashboard?clientTxnId=CB-LOOP&status=SUCCESS"}`

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/recover", strings.NewReader(body))
	req.Header.Set("X-Session-Id", "sess-loop")
	h.HandleScan(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/recover", strings.NewReader(body))
	req.Header.Set("X-Session-Id", "sess-loop")
	h.HandleScan(second, req)
	assert.Equal(t, http.StatusNoContent, second.Code)
}

func TestRecoveryHandler_MalformedBodyIsNoContent(t *testing.T) {
	h := newTestRecoveryHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/recover", strings.NewReader("{oops"))
	rec := httptest.NewRecorder()

	h.HandleScan(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecoveryHandler_RememberFeedsLaterRecovery(t *testing.T) {
	h := newTestRecoveryHandler(t)

	remember := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/remember",
		strings.NewReader(`{"transactionId":"CB-INIT1","email":"payer@example.com"}`))
	remember.Header.Set("X-Session-Id", "sess-init")
	rec := httptest.NewRecorder()
	h.HandleRemember(rec, remember)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// a degraded callback later in the same session resolves the stored id
	scan := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/recover",
		strings.NewReader(`{"page":"/dashboard","url":"https://portal.example.com/dashboard?encResponse=AAEC"}`))
	scan.Header.Set("X-Session-Id", "sess-init")
	rec = httptest.NewRecorder()
	h.HandleScan(rec, scan)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/subscription/payment-success?txn=CB-INIT1", resp.Redirect)
}

func TestRecoveryHandler_RememberMalformedBodyIsBadRequest(t *testing.T) {
	h := newTestRecoveryHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/remember", strings.NewReader("{oops"))
	rec := httptest.NewRecorder()

	h.HandleRemember(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecoveryHandler_SessionFromCookie(t *testing.T) {
	listener := recovery.NewListener(newTestPipeline(t), memstore.New(), zaptest.NewLogger(t), 0)
	h := NewRecoveryHandler(listener, zaptest.NewLogger(t))

	assert.Equal(t, "header-wins", h.sessionID(withSession(t, "header-wins", "cookie-val")))
	assert.Equal(t, "cookie-val", h.sessionID(withSession(t, "", "cookie-val")))
	assert.Equal(t, "anonymous", h.sessionID(withSession(t, "", "")))
}

func withSession(t *testing.T, header, cookie string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/recover", nil)
	if header != "" {
		req.Header.Set("X-Session-Id", header)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: cookie})
	}
	return req
}
