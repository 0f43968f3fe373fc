package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	}, Policy{Name: "t_success", Attempts: 5, Backoff: Constant(time.Millisecond)})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	perm := errors.New("conflict")
	calls := 0
	var exhausted error
	p := StorePolicy(perm)
	p.Backoff = Constant(time.Millisecond)
	p.OnExhaust = func(err error) { exhausted = err }

	err := Do(context.Background(), func() error { calls++; return perm }, p)
	assert.ErrorIs(t, err, perm)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, exhausted, perm)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error { calls++; return errors.New("down") },
		Policy{Name: "t_exhaust", Attempts: 4})
	assert.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("down")
	}, Policy{Name: "t_cancel", Attempts: 5, Backoff: Constant(time.Hour)})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesInnerDeadlineWhileContextAlive(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return context.DeadlineExceeded
		}
		return nil
	}, Policy{Name: "t_inner_deadline", Attempts: 3})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestExpoJitter_Capped(t *testing.T) {
	b := ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second}
	assert.Equal(t, 100*time.Millisecond, b.Next(0))
	assert.Equal(t, 400*time.Millisecond, b.Next(2))
	assert.Equal(t, time.Second, b.Next(10))
	assert.Equal(t, time.Second, b.Next(5000))
}
