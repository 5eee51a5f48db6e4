package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/credilift/callback-service/internal/domain"
)

// ReceiptClient delivers receipt payloads to the notification collaborator
// over HTTP. Payloads are HMAC-SHA256 signed so the collaborator can reject
// forged requests. Retries within one dispatch attempt are the client's
// short budget; cross-attempt retries belong to the collaborator.
type ReceiptClient struct {
	client *resty.Client
	url    string
	secret string
	logger *zap.Logger
}

// NewReceiptClient creates a client for the collaborator endpoint at url.
func NewReceiptClient(url, secret string, timeout time.Duration, logger *zap.Logger) *ReceiptClient {
	r := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json")

	return &ReceiptClient{
		client: r,
		url:    url,
		secret: secret,
		logger: logger,
	}
}

// SendReceipt posts the signed receipt payload. A non-2xx response is an
// error; the caller decides whether that matters (the dispatcher logs and
// swallows it).
func (c *ReceiptClient) SendReceipt(ctx context.Context, req *domain.NotificationRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeNotifyDeliveryFailed, "marshal receipt payload", err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Signature", c.sign(payload)).
		SetHeader("X-Idempotency-Key", req.TransactionID).
		SetBody(payload).
		Post(c.url)

	if err != nil {
		return domain.WrapError(domain.ErrorCodeNotifyDeliveryFailed, "send receipt request", err)
	}

	if resp.IsError() {
		return domain.NewDomainError(
			domain.ErrorCodeNotifyDeliveryFailed,
			fmt.Sprintf("collaborator returned HTTP %d", resp.StatusCode()),
		).WithDetail("body", resp.String())
	}

	c.logger.Debug("receipt accepted by collaborator",
		zap.String("transaction_id", req.TransactionID),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}

// sign creates the HMAC-SHA256 signature of the payload.
func (c *ReceiptClient) sign(payload []byte) string {
	h := hmac.New(sha256.New, []byte(c.secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
