package orchestrator

import (
	"context"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	"github.com/NordCoder/Lessonbell/internal/obs"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DeliveryLogger struct {
	store delivery.LogStore
	now   func() time.Time
	log   *zap.Logger
}

func NewDeliveryLogger(store delivery.LogStore, log *zap.Logger) *DeliveryLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &DeliveryLogger{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log.With(zap.String("component", "orchestrator.delivery-log")),
	}
}

// Log appends one entry per result. Write failures are reported to the
// operational log only; the delivery itself already happened.
func (l *DeliveryLogger) Log(ctx context.Context, n *notification.Notification, userID int64, language string, results []delivery.Result) int {
	written := 0
	for _, r := range results {
		e := &delivery.LogEntry{
			ID:                uuid.NewString(),
			NotificationID:    n.ID,
			UserID:            userID,
			TenantID:          n.TenantID,
			Channel:           r.Channel,
			Status:            r.Status(),
			Error:             r.Error,
			ProviderMessageID: r.ProviderMessageID,
			Metadata:          metadata(r, language),
			CreatedAt:         l.now(),
		}
		if l.store == nil {
			continue
		}
		if err := l.store.Append(ctx, e); err != nil {
			mLogErrors.Inc()
			obs.WithTrace(ctx, l.log).Error("delivery log append",
				zap.Int64("notification_id", n.ID),
				zap.Int64("user_id", userID),
				zap.Stringer("channel", r.Channel),
				zap.String("status", string(e.Status)),
				zap.Error(err))
			continue
		}
		written++
	}
	return written
}

func metadata(r delivery.Result, language string) map[string]string {
	md := map[string]string{}
	if language != "" {
		md["language"] = language
	}
	if r.Skipped != "" {
		md["skip_reason"] = string(r.Skipped)
	}
	if r.Contact != "" {
		switch r.Channel {
		case notification.ChannelEmail:
			md["contact"] = maskEmail(r.Contact)
		case notification.ChannelSMS:
			md["contact"] = maskPhone(r.Contact)
		}
		md["contact_hash"] = contactHash(r.Contact)
	}
	return md
}
