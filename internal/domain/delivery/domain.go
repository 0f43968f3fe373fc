package delivery

import (
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/notification"
)

type Status string

const (
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
	StatusSuppressed Status = "suppressed"
)

type SkipReason string

const (
	SkipQuietHours    SkipReason = "quiet_hours"
	SkipDuplicate     SkipReason = "duplicate"
	SkipNoContact     SkipReason = "no_contact"
	SkipNotConfigured SkipReason = "not_configured"
)

// Result is the outcome of one channel attempt for one user.
type Result struct {
	Channel           notification.Channel `json:"channel"`
	Success           bool                 `json:"success"`
	Error             string               `json:"error,omitempty"`
	ProviderMessageID string               `json:"provider_message_id,omitempty"`
	Skipped           SkipReason           `json:"skipped,omitempty"`
	// Contact is the address the attempt went to; the logger masks it.
	Contact string `json:"-"`
}

func (r Result) Status() Status {
	switch {
	case r.Skipped != "":
		return StatusSuppressed
	case r.Success:
		return StatusSent
	default:
		return StatusFailed
	}
}

type LogEntry struct {
	ID                string               `json:"id"`
	NotificationID    int64                `json:"notification_id"`
	UserID            int64                `json:"user_id"`
	TenantID          int64                `json:"tenant_id"`
	Channel           notification.Channel `json:"channel"`
	Status            Status               `json:"status"`
	Error             string               `json:"error,omitempty"`
	ProviderMessageID string               `json:"provider_message_id,omitempty"`
	Metadata          map[string]string    `json:"metadata,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

// SendResult is what every channel sender reports back.
type SendResult struct {
	MessageID string
}

type EmailMessage struct {
	To       string
	Subject  string
	HTML     string
	Text     string
	Language string
	Priority notification.Priority
}

type SMSMessage struct {
	To   string
	Body string
}

type PushMessage struct {
	Subscription []byte
	Title        string
	Body         string
	URL          string
	Priority     notification.Priority
	Language     string
}
