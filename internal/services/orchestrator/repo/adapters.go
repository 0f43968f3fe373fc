package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/domain/outbox"
	"github.com/NordCoder/Lessonbell/internal/obs/retry"
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Enqueuer interface {
	Enqueue(ctx context.Context, key string, kind outbox.Kind, data []byte) error
}

var _ delivery.LogStore = (*OutboxedLogStore)(nil)

// OutboxedLogStore writes a delivery log row and its outcome event in one
// transaction, so every logged outcome is eventually published.
type OutboxedLogStore struct {
	tx     Transactor
	log    delivery.LogStore
	outbox Enqueuer
	policy retry.Policy
}

func NewOutboxedLogStore(tx Transactor, log delivery.LogStore, ob Enqueuer, policy retry.Policy) *OutboxedLogStore {
	return &OutboxedLogStore{tx: tx, log: log, outbox: ob, policy: policy}
}

func (s *OutboxedLogStore) Append(ctx context.Context, e *delivery.LogEntry) error {
	return retry.Do(ctx, func() error {
		return s.tx.WithTx(ctx, func(ctx context.Context) error {
			if err := s.log.Append(ctx, e); err != nil {
				return err
			}
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encode outcome: %w", err)
			}
			return s.outbox.Enqueue(ctx, outbox.DeliveryKey(e.ID), outbox.KindDeliveryLogged, data)
		})
	}, s.policy)
}
