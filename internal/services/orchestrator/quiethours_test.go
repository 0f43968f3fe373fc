package orchestrator

import (
	"testing"

	"github.com/NordCoder/Lessonbell/internal/domain/preference"
	"github.com/stretchr/testify/assert"
)

func clock(s string) *preference.ClockTime {
	c := preference.MustClock(s)
	return &c
}

func TestQuietHoursSuppressed(t *testing.T) {
	cases := []struct {
		name       string
		now        string
		start, end *preference.ClockTime
		want       bool
	}{
		{"same day inside", "12:00", clock("09:00"), clock("17:00"), true},
		{"same day start inclusive", "09:00", clock("09:00"), clock("17:00"), true},
		{"same day end exclusive", "17:00", clock("09:00"), clock("17:00"), false},
		{"same day before", "08:59", clock("09:00"), clock("17:00"), false},
		{"overnight late", "23:30", clock("22:00"), clock("07:00"), true},
		{"overnight early", "06:59", clock("22:00"), clock("07:00"), true},
		{"overnight end exclusive", "07:00", clock("22:00"), clock("07:00"), false},
		{"overnight midday", "12:00", clock("22:00"), clock("07:00"), false},
		{"overnight midnight", "00:00", clock("22:00"), clock("07:00"), true},
		{"22-06 at 23:30", "23:30", clock("22:00"), clock("06:00"), true},
		{"22-06 at 02:00", "02:00", clock("22:00"), clock("06:00"), true},
		{"22-06 at 10:00", "10:00", clock("22:00"), clock("06:00"), false},
		{"22-06 exactly at 06:00", "06:00", clock("22:00"), clock("06:00"), false},
		{"equal bounds cover the day", "03:15", clock("10:00"), clock("10:00"), true},
		{"no start", "23:00", nil, clock("07:00"), false},
		{"no end", "23:00", clock("22:00"), nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, QuietHoursSuppressed(preference.MustClock(tc.now), tc.start, tc.end))
		})
	}
}
