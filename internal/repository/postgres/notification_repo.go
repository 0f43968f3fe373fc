package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	"github.com/jackc/pgx/v5"
)

var _ notification.Repo = (*NotificationRepo)(nil)

type NotificationRepo struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

const qNotifByID = `
SELECT id, tenant_id, title, message, category, priority, scope,
       COALESCE(target_ids, '{}'), COALESCE(action_url, ''), COALESCE(action_label, '')
FROM notifications
WHERE id = $1;`

func (r *NotificationRepo) GetByID(ctx context.Context, id int64) (*notification.Notification, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var (
		n                         notification.Notification
		category, priority, scope string
	)
	err := r.db.Pool.QueryRow(ctx, qNotifByID, id).Scan(
		&n.ID, &n.TenantID, &n.Title, &n.Message,
		&category, &priority, &scope,
		&n.TargetIDs, &n.ActionURL, &n.ActionLabel,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("notification %d: %w: %w", id, ErrNotFound, notification.ErrNotFound)
		}
		return nil, fmt.Errorf("select notification: %w", err)
	}

	if n.Category, err = notification.ParseCategory(category); err != nil {
		return nil, err
	}
	if n.Priority, err = notification.ParsePriority(priority); err != nil {
		return nil, err
	}
	if n.Scope, err = notification.ParseScope(scope); err != nil {
		return nil, err
	}
	return &n, nil
}
