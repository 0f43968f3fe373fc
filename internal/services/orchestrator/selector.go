package orchestrator

import (
	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	"github.com/NordCoder/Lessonbell/internal/domain/preference"
)

type Selection struct {
	// Channels always starts with in_app, followed by external channels in enum order.
	Channels []notification.Channel
	// Suppressed holds external channels dropped by quiet hours.
	Suppressed []notification.Channel
}

func (s Selection) Has(ch notification.Channel) bool {
	for _, c := range s.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

func (s Selection) External() []notification.Channel {
	out := make([]notification.Channel, 0, len(s.Channels))
	for _, c := range s.Channels {
		if c.External() {
			out = append(out, c)
		}
	}
	return out
}

// SelectChannels decides which channels to attempt for one user. localNow must
// already be expressed in the preference timezone. A non-empty forced list
// replaces the category matrix but never the master toggles. SMS requires
// urgent priority and urgent notifications ignore quiet hours.
func SelectChannels(n *notification.Notification, p *preference.Preferences, forced []notification.Channel, localNow preference.ClockTime) Selection {
	var want [notification.NumChannels]bool

	if len(forced) > 0 {
		for _, ch := range forced {
			if ch.Valid() && ch.External() && p.MasterEnabled(ch) {
				want[ch] = true
			}
		}
	} else {
		for _, ch := range []notification.Channel{notification.ChannelEmail, notification.ChannelSMS, notification.ChannelPush} {
			want[ch] = p.Categories.Allowed(n.Category, ch) && p.MasterEnabled(ch)
		}
	}

	urgent := n.Urgent()
	if !urgent {
		want[notification.ChannelSMS] = false
	}

	sel := Selection{Channels: []notification.Channel{notification.ChannelInApp}}
	quiet := !urgent && QuietHoursSuppressed(localNow, p.QuietHours.Start, p.QuietHours.End)

	for ch := notification.ChannelEmail; int(ch) < notification.NumChannels; ch++ {
		if !want[ch] {
			continue
		}
		if quiet {
			sel.Suppressed = append(sel.Suppressed, ch)
			continue
		}
		sel.Channels = append(sel.Channels, ch)
	}
	return sel
}
