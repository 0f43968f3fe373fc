package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// PublishPolicy is used by the outbox relay when pushing events to Kafka.
func PublishPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "outbox_publish",
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("publish retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("publish retries exhausted", zap.Error(err))
			}
		},
	}
}

// StorePolicy retries short-lived database writes. permanent errors stop it early.
func StorePolicy(permanent ...error) Policy {
	return Policy{
		Name:     "delivery_log_store",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 50 * time.Millisecond, Max: 500 * time.Millisecond, Jitter: 0.1},
		Retryable: func(err error) bool {
			for _, p := range permanent {
				if errors.Is(err, p) {
					return false
				}
			}
			return true
		},
	}
}
