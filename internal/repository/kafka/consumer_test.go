package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Lessonbell/internal/obs/retry"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		m := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func (f *fakeReader) commits() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed...)
}

func newTestConsumer(offsets ...int64) (*Consumer, *fakeReader) {
	fr := &fakeReader{}
	for _, o := range offsets {
		fr.queue = append(fr.queue, kafka.Message{Offset: o, Value: []byte{byte(o)}})
	}
	redo := handlerRetry(zap.NewNop())
	redo.Backoff = retry.Constant(time.Millisecond)
	return &Consumer{reader: fr, log: zap.NewNop(), topic: "t", redo: redo}, fr
}

type callLog struct {
	mu    sync.Mutex
	calls []int64
}

func (c *callLog) add(v []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, int64(v[0]))
	n := 0
	for _, x := range c.calls {
		if x == int64(v[0]) {
			n++
		}
	}
	return n
}

func (c *callLog) snapshot() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.calls...)
}

func runConsumer(t *testing.T, c *Consumer, h Handler, until func() bool) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Consume(ctx, h) }()

	require.Eventually(t, until, 2*time.Second, 2*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
		return nil
	}
}

func TestConsume_TransientErrorRetriesSameMessage(t *testing.T) {
	c, fr := newTestConsumer(1, 2)
	var log callLog
	h := func(_ context.Context, _, v []byte) error {
		if log.add(v) < 3 && v[0] == 1 {
			return errors.New("db unavailable")
		}
		return nil
	}

	err := runConsumer(t, c, h, func() bool { return len(fr.commits()) == 2 })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{1, 1, 1, 2}, log.snapshot())
	assert.Equal(t, []int64{1, 2}, fr.commits())
}

func TestConsume_PermanentErrorIsCommittedOnce(t *testing.T) {
	c, fr := newTestConsumer(1, 2)
	var log callLog
	h := func(_ context.Context, _, v []byte) error {
		log.add(v)
		if v[0] == 1 {
			return Permanent(errors.New("bad payload"))
		}
		return nil
	}

	runConsumer(t, c, h, func() bool { return len(fr.commits()) == 2 })

	assert.Equal(t, []int64{1, 2}, log.snapshot())
	assert.Equal(t, []int64{1, 2}, fr.commits())
}

func TestConsume_StopWhileRetryingLeavesMessageUncommitted(t *testing.T) {
	c, fr := newTestConsumer(1, 2)
	var log callLog
	h := func(_ context.Context, _, v []byte) error {
		log.add(v)
		return errors.New("db unavailable")
	}

	err := runConsumer(t, c, h, func() bool { return len(log.snapshot()) >= 3 })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fr.commits())
	for _, off := range log.snapshot() {
		assert.EqualValues(t, 1, off, "next message fetched before the failing one settled")
	}
}
