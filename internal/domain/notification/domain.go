package notification

import (
	"fmt"
	"strings"
)

type Category int

const (
	CategoryLesson Category = iota
	CategoryAssignment
	CategoryPayment
	CategoryEnrollment
	CategoryAttendance
	CategoryAchievement
	CategoryAnnouncement
	CategorySystem

	NumCategories = int(CategorySystem) + 1
)

var categoryNames = [NumCategories]string{
	"lesson", "assignment", "payment", "enrollment",
	"attendance", "achievement", "announcement", "system",
}

func (c Category) String() string {
	if c < 0 || int(c) >= NumCategories {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

func (c Category) Valid() bool { return c >= 0 && int(c) < NumCategories }

func Categories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: category %q", ErrUnknownValue, s)
}

type Channel int

const (
	ChannelInApp Channel = iota
	ChannelEmail
	ChannelSMS
	ChannelPush

	NumChannels = int(ChannelPush) + 1
)

var channelNames = [NumChannels]string{"in_app", "email", "sms", "push"}

func (c Channel) String() string {
	if c < 0 || int(c) >= NumChannels {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

func (c Channel) Valid() bool { return c >= 0 && int(c) < NumChannels }

// External reports whether the channel leaves the platform. in_app is persisted
// before orchestration starts and is never attempted.
func (c Channel) External() bool { return c != ChannelInApp }

func ParseChannel(s string) (Channel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "inapp" || s == "in-app" {
		s = "in_app"
	}
	for i, name := range channelNames {
		if name == s {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: channel %q", ErrUnknownValue, s)
}

func ParseChannels(ss []string) ([]Channel, error) {
	out := make([]Channel, 0, len(ss))
	for _, s := range ss {
		c, err := ParseChannel(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return p, nil
	}
	return "", fmt.Errorf("%w: priority %q", ErrUnknownValue, s)
}

type Scope string

const (
	ScopeIndividual Scope = "individual"
	ScopeCourse     Scope = "course"
	ScopeProgram    Scope = "program"
	ScopeTenant     Scope = "tenant"
)

func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case ScopeIndividual, ScopeCourse, ScopeProgram, ScopeTenant:
		return sc, nil
	}
	return "", fmt.Errorf("%w: scope %q", ErrUnknownValue, s)
}

// Notification is created upstream together with its in-app row and is never
// modified by the orchestrator.
type Notification struct {
	ID          int64    `json:"id"`
	TenantID    int64    `json:"tenant_id"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	Scope       Scope    `json:"scope"`
	TargetIDs   []int64  `json:"target_ids"`
	ActionURL   string   `json:"action_url,omitempty"`
	ActionLabel string   `json:"action_label,omitempty"`
}

func (n *Notification) Urgent() bool { return n.Priority == PriorityUrgent }

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: category %d", ErrUnknownValue, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Channel) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: channel %d", ErrUnknownValue, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Channel) UnmarshalText(b []byte) error {
	v, err := ParseChannel(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
