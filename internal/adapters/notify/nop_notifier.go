package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/credilift/callback-service/internal/domain"
)

// NopNotifier is used when no collaborator endpoint is configured. It logs
// the receipt it would have sent so local runs still show the payload.
type NopNotifier struct {
	logger *zap.Logger
}

// NewNopNotifier creates a no-op notifier.
func NewNopNotifier(logger *zap.Logger) *NopNotifier {
	return &NopNotifier{logger: logger}
}

// SendReceipt logs the receipt and succeeds.
func (n *NopNotifier) SendReceipt(_ context.Context, req *domain.NotificationRequest) error {
	n.logger.Info("notification collaborator not configured, receipt dropped",
		zap.String("transaction_id", req.TransactionID),
		zap.String("recipient", req.RecipientEmail),
	)
	return nil
}
