package notification

import "errors"

var (
	ErrUnknownValue = errors.New("unknown value")
	ErrNotFound     = errors.New("notification not found")
	ErrTenant       = errors.New("notification belongs to another tenant")
)
