package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NordCoder/Lessonbell/internal/domain/preference"
	"github.com/jackc/pgx/v5"
)

var _ preference.Repo = (*PreferenceRepo)(nil)

type PreferenceRepo struct{ db *DB }

func NewPreferenceRepo(db *DB) *PreferenceRepo { return &PreferenceRepo{db: db} }

const (
	qPrefGet = `
SELECT email_enabled, sms_enabled, push_enabled,
       category_preferences,
       to_char(quiet_hours_start, 'HH24:MI'),
       to_char(quiet_hours_end, 'HH24:MI'),
       COALESCE(timezone, ''),
       phone_number,
       push_subscription
FROM notification_preferences
WHERE user_id = $1 AND tenant_id = $2;`

	qPrefClearPush = `
UPDATE notification_preferences
SET push_subscription = NULL, updated_at = now()
WHERE user_id = $1 AND tenant_id = $2;`
)

// Get returns nil, nil when the user has no stored preferences.
// Category keys missing from the stored document keep their default values.
func (r *PreferenceRepo) Get(ctx context.Context, userID, tenantID int64) (*preference.Preferences, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	p := preference.Defaults(userID, tenantID)
	p.Default = false

	var (
		matrix     []byte
		start, end *string
		push       []byte
	)
	err := r.db.Pool.QueryRow(ctx, qPrefGet, userID, tenantID).Scan(
		&p.EmailEnabled, &p.SMSEnabled, &p.PushEnabled,
		&matrix, &start, &end, &p.QuietHours.Timezone,
		&p.Phone, &push,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select preferences: %w", err)
	}

	if len(matrix) > 0 {
		if err := json.Unmarshal(matrix, &p.Categories); err != nil {
			return nil, fmt.Errorf("decode category preferences: %w", err)
		}
	}
	if p.QuietHours.Start, err = parseClockPtr(start); err != nil {
		return nil, err
	}
	if p.QuietHours.End, err = parseClockPtr(end); err != nil {
		return nil, err
	}
	if len(push) > 0 {
		p.PushSubscription = json.RawMessage(push)
	}
	return &p, nil
}

func (r *PreferenceRepo) ClearPushSubscription(ctx context.Context, userID, tenantID int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qPrefClearPush, userID, tenantID); err != nil {
		return fmt.Errorf("clear push subscription: %w", err)
	}
	return nil
}

func parseClockPtr(s *string) (*preference.ClockTime, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	c, err := preference.ParseClock(*s)
	if err != nil {
		return nil, fmt.Errorf("quiet hours: %w", err)
	}
	return &c, nil
}
