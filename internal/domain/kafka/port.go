package kafka

import (
	"context"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
)

type DeliveryEvents interface {
	PublishDeliveryOutcome(ctx context.Context, e *delivery.LogEntry) error
}
