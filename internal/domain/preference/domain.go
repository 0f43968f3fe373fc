package preference

import (
	"encoding/json"

	"github.com/NordCoder/Lessonbell/internal/domain/notification"
)

type QuietHours struct {
	Start    *ClockTime `json:"start,omitempty"`
	End      *ClockTime `json:"end,omitempty"`
	Timezone string     `json:"timezone,omitempty"`
}

func (q QuietHours) Configured() bool { return q.Start != nil && q.End != nil }

type Preferences struct {
	UserID   int64 `json:"user_id"`
	TenantID int64 `json:"tenant_id"`

	EmailEnabled bool `json:"email_enabled"`
	SMSEnabled   bool `json:"sms_enabled"`
	PushEnabled  bool `json:"push_enabled"`

	Categories Matrix     `json:"category_preferences"`
	QuietHours QuietHours `json:"quiet_hours"`

	Phone            *string         `json:"phone,omitempty"`
	PushSubscription json.RawMessage `json:"push_subscription,omitempty"`

	// Default is set when no stored row was found.
	Default bool `json:"-"`
}

// MasterEnabled reports the per-channel master toggle. in_app has none.
func (p *Preferences) MasterEnabled(ch notification.Channel) bool {
	switch ch {
	case notification.ChannelInApp:
		return true
	case notification.ChannelEmail:
		return p.EmailEnabled
	case notification.ChannelSMS:
		return p.SMSEnabled
	case notification.ChannelPush:
		return p.PushEnabled
	}
	return false
}

func (p *Preferences) HasPushSubscription() bool {
	return len(p.PushSubscription) > 0 && string(p.PushSubscription) != "null"
}

// DefaultMatrix: in_app and email/push everywhere except system and attendance,
// sms only for payment.
func DefaultMatrix() Matrix {
	var m Matrix
	for _, c := range notification.Categories() {
		m[c][notification.ChannelInApp] = true
		quiet := c == notification.CategorySystem || c == notification.CategoryAttendance
		m[c][notification.ChannelEmail] = !quiet
		m[c][notification.ChannelPush] = !quiet
		m[c][notification.ChannelSMS] = c == notification.CategoryPayment
	}
	return m
}

func Defaults(userID, tenantID int64) Preferences {
	return Preferences{
		UserID:       userID,
		TenantID:     tenantID,
		EmailEnabled: true,
		SMSEnabled:   false,
		PushEnabled:  true,
		Categories:   DefaultMatrix(),
		Default:      true,
	}
}
