package ports

import (
	"context"

	"github.com/credilift/callback-service/internal/domain"
)

// ReceiptNotifier delivers a payment receipt to the notification
// collaborator. The collaborator owns retries and cross-transport
// deduplication (keyed by TransactionID); callers here make exactly one
// attempt per CallbackEvent and log failures without propagating them.
type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, req *domain.NotificationRequest) error
}
