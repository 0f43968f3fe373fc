package preference

import (
	"encoding/json"

	"github.com/NordCoder/Lessonbell/internal/domain/notification"
)

// Matrix holds per-category channel opt-ins, indexed by category and channel.
type Matrix [notification.NumCategories][notification.NumChannels]bool

func (m *Matrix) Allowed(c notification.Category, ch notification.Channel) bool {
	if !c.Valid() || !ch.Valid() {
		return false
	}
	return m[c][ch]
}

func (m *Matrix) Set(c notification.Category, ch notification.Channel, v bool) {
	if c.Valid() && ch.Valid() {
		m[c][ch] = v
	}
}

// MarshalJSON renders the storage form: {"payment": {"in_app": true, "email": true, ...}, ...}.
func (m Matrix) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]bool, notification.NumCategories)
	for _, c := range notification.Categories() {
		row := make(map[string]bool, notification.NumChannels)
		for ch := notification.Channel(0); int(ch) < notification.NumChannels; ch++ {
			row[ch.String()] = m[c][ch]
		}
		out[c.String()] = row
	}
	return json.Marshal(out)
}

// UnmarshalJSON overlays the stored rows onto the receiver; categories and
// channels absent from the document keep their current values, unknown keys are ignored.
func (m *Matrix) UnmarshalJSON(b []byte) error {
	var raw map[string]map[string]bool
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for cname, row := range raw {
		c, err := notification.ParseCategory(cname)
		if err != nil {
			continue
		}
		for chname, v := range row {
			ch, err := notification.ParseChannel(chname)
			if err != nil {
				continue
			}
			m[c][ch] = v
		}
	}
	return nil
}
