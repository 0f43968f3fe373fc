package delivery

import "errors"

var (
	ErrSubscriptionExpired = errors.New("push subscription expired")
	ErrInvalidRecipient    = errors.New("invalid recipient")
	ErrCircuitOpen         = errors.New("channel circuit open")
	ErrNoContact           = errors.New("no contact on file")
)
