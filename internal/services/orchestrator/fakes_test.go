package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/domain/preference"
	"github.com/NordCoder/Lessonbell/internal/domain/user"
)

var errBatch = errors.New("directory unavailable")

type fakeUsers struct {
	mu      sync.Mutex
	users   map[int64]*user.User
	byTen   map[int64][]int64
	err     error
	failFor map[int64]bool // GetByIDs fails for any batch containing these ids
	batches [][]int64
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, nil
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []int64) (map[int64]*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]int64(nil), ids...))
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64]*user.User, len(ids))
	for _, id := range ids {
		if f.failFor[id] {
			return nil, errBatch
		}
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUsers) ListIDsByTenant(_ context.Context, tenantID int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byTen[tenantID], nil
}

type fakeEnrollments struct {
	course, program, viaProgram map[int64][]int64
	err                         error
}

func (f *fakeEnrollments) ActiveUserIDsByCourse(_ context.Context, _ int64, id int64) ([]int64, error) {
	return f.course[id], f.err
}

func (f *fakeEnrollments) ActiveUserIDsByProgram(_ context.Context, _ int64, id int64) ([]int64, error) {
	return f.program[id], f.err
}

func (f *fakeEnrollments) ActiveUserIDsByCourseViaProgram(_ context.Context, _ int64, id int64) ([]int64, error) {
	return f.viaProgram[id], f.err
}

type fakePrefs struct {
	mu      sync.Mutex
	prefs   *preference.Preferences
	err     error
	cleared int
}

func (f *fakePrefs) Get(context.Context, int64, int64) (*preference.Preferences, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.prefs == nil {
		return nil, nil
	}
	p := *f.prefs
	return &p, nil
}

func (f *fakePrefs) ClearPushSubscription(context.Context, int64, int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

type memLog struct {
	mu      sync.Mutex
	entries []*delivery.LogEntry
	err     error
}

func (m *memLog) Append(_ context.Context, e *delivery.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memLog) byChannel() map[string]*delivery.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*delivery.LogEntry, len(m.entries))
	for _, e := range m.entries {
		out[e.Channel.String()] = e
	}
	return out
}

type senderStub struct {
	mu    sync.Mutex
	calls int
	last  any
	err   error
	panic bool
	id    string
}

func (s *senderStub) record(m any) (delivery.SendResult, error) {
	s.mu.Lock()
	s.calls++
	s.last = m
	s.mu.Unlock()
	if s.panic {
		panic("provider exploded")
	}
	if s.err != nil {
		return delivery.SendResult{}, s.err
	}
	return delivery.SendResult{MessageID: s.id}, nil
}

func (s *senderStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type emailStub struct{ senderStub }

func (s *emailStub) SendEmail(_ context.Context, m delivery.EmailMessage) (delivery.SendResult, error) {
	return s.record(m)
}

type smsStub struct{ senderStub }

func (s *smsStub) SendSMS(_ context.Context, m delivery.SMSMessage) (delivery.SendResult, error) {
	return s.record(m)
}

type pushStub struct{ senderStub }

func (s *pushStub) SendPush(_ context.Context, m delivery.PushMessage) (delivery.SendResult, error) {
	return s.record(m)
}

type memGuard struct {
	mu       sync.Mutex
	taken    map[string]bool
	released []string
}

func (g *memGuard) key(n, u int64, ch string) string {
	return fmt.Sprintf("%d:%d:%s", n, u, ch)
}

func (g *memGuard) Claim(_ context.Context, n, u int64, ch string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.taken == nil {
		g.taken = map[string]bool{}
	}
	k := g.key(n, u, ch)
	if g.taken[k] {
		return false, nil
	}
	g.taken[k] = true
	return true, nil
}

func (g *memGuard) Release(_ context.Context, n, u int64, ch string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.taken, g.key(n, u, ch))
	g.released = append(g.released, ch)
	return nil
}
