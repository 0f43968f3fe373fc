package orchestrator

import "github.com/NordCoder/Lessonbell/internal/domain/preference"

// QuietHoursSuppressed reports whether now falls inside [start, end). A window
// with start >= end crosses midnight. A missing bound disables the window.
func QuietHoursSuppressed(now preference.ClockTime, start, end *preference.ClockTime) bool {
	if start == nil || end == nil {
		return false
	}
	n, s, e := now.Minutes(), start.Minutes(), end.Minutes()
	if s < e {
		return s <= n && n < e
	}
	return n >= s || n < e
}
