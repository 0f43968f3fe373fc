package breaker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emailFunc func(ctx context.Context, m delivery.EmailMessage) (delivery.SendResult, error)

func (f emailFunc) SendEmail(ctx context.Context, m delivery.EmailMessage) (delivery.SendResult, error) {
	return f(ctx, m)
}

var testCfg = Config{MaxRequests: 1, Interval: time.Minute, Timeout: time.Hour, MinRequests: 2, FailureRatio: 0.5}

func TestEmail_OpensAfterProviderFailures(t *testing.T) {
	calls := 0
	b := NewEmail(emailFunc(func(context.Context, delivery.EmailMessage) (delivery.SendResult, error) {
		calls++
		return delivery.SendResult{}, errors.New("smtp 421")
	}), testCfg, nil)

	ctx := context.Background()
	for range 2 {
		_, err := b.SendEmail(ctx, delivery.EmailMessage{To: "a@b.c"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, delivery.ErrCircuitOpen)
	}

	_, err := b.SendEmail(ctx, delivery.EmailMessage{To: "a@b.c"})
	assert.ErrorIs(t, err, delivery.ErrCircuitOpen)
	assert.Equal(t, 2, calls)
}

func TestEmail_RecipientErrorsDoNotTrip(t *testing.T) {
	b := NewEmail(emailFunc(func(context.Context, delivery.EmailMessage) (delivery.SendResult, error) {
		return delivery.SendResult{}, fmt.Errorf("bounce: %w", delivery.ErrInvalidRecipient)
	}), testCfg, nil)

	for range 5 {
		_, err := b.SendEmail(context.Background(), delivery.EmailMessage{})
		assert.ErrorIs(t, err, delivery.ErrInvalidRecipient)
	}
}

func TestEmail_PassesResultThrough(t *testing.T) {
	b := NewEmail(emailFunc(func(context.Context, delivery.EmailMessage) (delivery.SendResult, error) {
		return delivery.SendResult{MessageID: "m-1"}, nil
	}), testCfg, nil)

	res, err := b.SendEmail(context.Background(), delivery.EmailMessage{})
	require.NoError(t, err)
	assert.Equal(t, "m-1", res.MessageID)
}
