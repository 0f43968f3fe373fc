package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
)

var _ delivery.LogStore = (*DeliveryLogRepo)(nil)

type DeliveryLogRepo struct{ db *DB }

func NewDeliveryLogRepo(db *DB) *DeliveryLogRepo { return &DeliveryLogRepo{db: db} }

const qDeliveryLogInsert = `
INSERT INTO notification_delivery_log
    (id, notification_id, user_id, tenant_id, channel, status, error_message, provider_message_id, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
RETURNING created_at;`

// Append joins the transaction carried by ctx, if any.
func (r *DeliveryLogRepo) Append(ctx context.Context, e *delivery.LogEntry) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	meta := "{}"
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		meta = string(b)
	}

	err := r.db.execQueryer(ctx).QueryRow(ctx, qDeliveryLogInsert,
		e.ID,
		e.NotificationID,
		e.UserID,
		e.TenantID,
		e.Channel.String(),
		string(e.Status),
		nullString(e.Error),
		nullString(e.ProviderMessageID),
		meta,
	).Scan(&e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("delivery log %s: %w", e.ID, ErrConflict)
		}
		return fmt.Errorf("insert delivery log: %w", err)
	}
	return nil
}
