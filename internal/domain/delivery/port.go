package delivery

import "context"

// Senders must resolve to a result or an error within their own timeout.
type EmailSender interface {
	SendEmail(ctx context.Context, m EmailMessage) (SendResult, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, m SMSMessage) (SendResult, error)
}

type PushSender interface {
	SendPush(ctx context.Context, m PushMessage) (SendResult, error)
}

type LogStore interface {
	Append(ctx context.Context, e *LogEntry) error
}

// Guard claims a (notification, user, channel) attempt before the sender runs.
// A false claim means another invocation already took it. Release undoes a
// claim whose send failed.
type Guard interface {
	Claim(ctx context.Context, notificationID, userID int64, channel string) (bool, error)
	Release(ctx context.Context, notificationID, userID int64, channel string) error
}
