package outbox

import (
	"context"
	"fmt"
	"time"
)

type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
)

type Kind int

// KindDeliveryLogged carries one JSON-encoded delivery.LogEntry.
const KindDeliveryLogged Kind = 1

func (k Kind) String() string {
	switch k {
	case KindDeliveryLogged:
		return "delivery_logged"
	}
	return fmt.Sprintf("kind_%d", int(k))
}

// DeliveryKey is the idempotency key of the outbox row mirroring a log entry.
func DeliveryKey(logEntryID string) string { return "delivery:" + logEntryID }

// Message is one row of the relay queue. The trace fields hold the W3C
// context of the transaction that enqueued it.
type Message struct {
	IdempotencyKey string
	Kind           Kind
	Data           []byte
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Traceparent    string
	Tracestate     string
	Baggage        string
}

type Repository interface {
	// Enqueue is a no-op for a key that already exists.
	Enqueue(ctx context.Context, key string, kind Kind, data []byte) error
	// PickBatch leases up to batch rows; leases older than inProgressTTL are taken over.
	PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]Message, error)
	MarkSuccess(ctx context.Context, keys []string) error
}

// Purger is implemented by repositories that can drop relayed rows.
type Purger interface {
	PurgeSucceeded(ctx context.Context, olderThan time.Duration) (int64, error)
}

type KindHandler func(ctx context.Context, data []byte) error

type GlobalHandler func(kind Kind) (KindHandler, error)
