package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	"github.com/NordCoder/Lessonbell/internal/domain/outbox"
	"github.com/NordCoder/Lessonbell/internal/obs/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu      sync.Mutex
	pending []outbox.Message
	done    []string
}

func (m *memRepo) Enqueue(_ context.Context, key string, kind outbox.Kind, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, outbox.Message{IdempotencyKey: key, Kind: kind, Data: data, Status: outbox.StatusCreated})
	return nil
}

func (m *memRepo) PickBatch(_ context.Context, batch int, _ time.Duration) ([]outbox.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := min(batch, len(m.pending))
	out := m.pending[:n]
	m.pending = m.pending[n:]
	return out, nil
}

func (m *memRepo) MarkSuccess(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = append(m.done, keys...)
	return nil
}

type purgingRepo struct {
	memRepo
	calls     atomic.Int32
	olderThan time.Duration
}

func (p *purgingRepo) PurgeSucceeded(_ context.Context, olderThan time.Duration) (int64, error) {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.olderThan = olderThan
	n := int64(len(p.done))
	p.done = nil
	return n, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	got  []delivery.LogEntry
	fail map[int64]bool
}

func (p *recordingPublisher) PublishDeliveryOutcome(_ context.Context, e *delivery.LogEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[e.UserID] {
		return errors.New("broker down")
	}
	p.got = append(p.got, *e)
	return nil
}

func entry(t *testing.T, userID int64) []byte {
	t.Helper()
	b, err := json.Marshal(delivery.LogEntry{
		ID: "id", NotificationID: 5, UserID: userID, Channel: notification.ChannelEmail, Status: delivery.StatusSent,
	})
	require.NoError(t, err)
	return b
}

func TestRunner_TickPublishesAndMarks(t *testing.T) {
	repo := &memRepo{}
	pub := &recordingPublisher{fail: map[int64]bool{2: true}}
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, "k1", outbox.KindDeliveryLogged, entry(t, 1)))
	require.NoError(t, repo.Enqueue(ctx, "k2", outbox.KindDeliveryLogged, entry(t, 2)))
	require.NoError(t, repo.Enqueue(ctx, "k3", outbox.Kind(99), []byte(`{}`)))

	r := NewRunner(nil, repo, NewGlobalHandler(pub, retry.Policy{Attempts: 1}), Config{BatchSize: 10})
	ok := r.Tick(ctx)

	assert.Equal(t, 1, ok)
	assert.Equal(t, []string{"k1"}, repo.done)
	require.Len(t, pub.got, 1)
	assert.Equal(t, notification.ChannelEmail, pub.got[0].Channel)
	assert.Equal(t, delivery.StatusSent, pub.got[0].Status)
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	repo := &memRepo{}
	pub := &recordingPublisher{}
	require.NoError(t, repo.Enqueue(context.Background(), "k1", outbox.KindDeliveryLogged, entry(t, 7)))

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(nil, repo, NewGlobalHandler(pub, retry.Policy{Attempts: 1}), Config{Workers: 2, WaitTime: 5 * time.Millisecond})

	done := make(chan struct{})
	go func() { r.Run(ctx); close(done) }()

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.done) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_PurgeUsesRetention(t *testing.T) {
	repo := &purgingRepo{}
	repo.done = []string{"a", "b"}

	r := NewRunner(nil, repo, NewGlobalHandler(&recordingPublisher{}, retry.Policy{Attempts: 1}), Config{Retention: time.Hour})
	n := r.Purge(context.Background(), repo)

	assert.EqualValues(t, 2, n)
	assert.Equal(t, time.Hour, repo.olderThan)
	assert.Empty(t, repo.done)
}

func TestRunner_JanitorOnlyWithRetention(t *testing.T) {
	run := func(retention time.Duration) int32 {
		repo := &purgingRepo{}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
		defer cancel()
		r := NewRunner(nil, repo, NewGlobalHandler(&recordingPublisher{}, retry.Policy{Attempts: 1}), Config{
			WaitTime: time.Hour, Retention: retention, PurgeEvery: 5 * time.Millisecond,
		})
		r.Run(ctx)
		return repo.calls.Load()
	}

	assert.Positive(t, run(time.Minute))
	assert.Zero(t, run(0))
}
