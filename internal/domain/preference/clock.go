package preference

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day in minutes since midnight, [0, 1440).
type ClockTime int

const minutesPerDay = 24 * 60

func NewClock(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %02d:%02d out of range", hour, minute)
	}
	return ClockTime(hour*60 + minute), nil
}

// ParseClock accepts "HH:MM" and the "HH:MM:SS" form Postgres uses for time columns.
// Seconds are truncated.
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("clock %q: hour: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("clock %q: minute: %w", s, err)
	}
	return NewClock(h, m)
}

func ClockOf(t time.Time) ClockTime { return ClockTime(t.Hour()*60 + t.Minute()) }

func (c ClockTime) Minutes() int { return int(c) % minutesPerDay }

func (c ClockTime) String() string {
	m := c.Minutes()
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}
