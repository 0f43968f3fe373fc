package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	"github.com/NordCoder/Lessonbell/internal/domain/user"
	"github.com/NordCoder/Lessonbell/internal/obs"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultBatchSize = 10

var ErrNoNotification = errors.New("notification is required")

// UserDispatcher is satisfied by *Dispatcher.
type UserDispatcher interface {
	Dispatch(ctx context.Context, n *notification.Notification, u *user.User, forced []notification.Channel, language string) Outcome
}

type Request struct {
	Notification   *notification.Notification
	ForcedChannels []notification.Channel
	// Recipients bypasses scope resolution when non-empty.
	Recipients []int64
	Language   string
}

type Report struct {
	Recipients int      `json:"recipients"`
	BatchSizes []int    `json:"batch_sizes"`
	Sent       int      `json:"sent"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

type Coordinator struct {
	resolver   *RecipientResolver
	users      user.Directory
	dispatcher UserDispatcher
	batchSize  int
	log        *zap.Logger
	tracer     trace.Tracer
}

func NewCoordinator(resolver *RecipientResolver, users user.Directory, dispatcher UserDispatcher, batchSize int, log *zap.Logger) *Coordinator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		resolver:   resolver,
		users:      users,
		dispatcher: dispatcher,
		batchSize:  batchSize,
		log:        log.With(zap.String("component", "orchestrator.coordinator")),
		tracer:     otel.Tracer("orchestrator.coordinator"),
	}
}

// Run fans a notification out to its recipients. Users inside a batch are
// dispatched concurrently; a batch starts only after the previous one settled.
// Per-user failures are counted in the report, never returned as an error.
func (c *Coordinator) Run(ctx context.Context, req Request) (Report, error) {
	n := req.Notification
	if n == nil {
		return Report{}, ErrNoNotification
	}

	ctx, span := c.tracer.Start(ctx, "orchestrator.run", trace.WithAttributes(
		attribute.Int64("notification.id", n.ID),
		attribute.String("notification.scope", string(n.Scope)),
	))
	defer span.End()
	log := obs.WithTrace(ctx, c.log).With(zap.Int64("notification_id", n.ID))

	ids := req.Recipients
	if len(ids) == 0 {
		var err error
		ids, err = c.resolver.Resolve(ctx, n.Scope, n.TargetIDs, n.TenantID)
		if err != nil {
			span.RecordError(err)
			return Report{}, fmt.Errorf("resolve recipients: %w", err)
		}
	}

	rep := Report{Recipients: len(ids)}
	mRecipients.Add(float64(len(ids)))
	if len(ids) == 0 {
		log.Info("no recipients", zap.String("scope", string(n.Scope)))
		return rep, nil
	}

	for start := 0; start < len(ids); start += c.batchSize {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		end := min(start+c.batchSize, len(ids))
		c.runBatch(ctx, n, req, ids[start:end], &rep)
	}

	span.SetAttributes(
		attribute.Int("recipients", rep.Recipients),
		attribute.Int("sent", rep.Sent),
		attribute.Int("failed", rep.Failed),
	)
	log.Info("notification dispatched",
		zap.Int("recipients", rep.Recipients),
		zap.Int("batches", len(rep.BatchSizes)),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
	)
	return rep, nil
}

type userResult struct {
	ok  bool
	err string
}

func (c *Coordinator) runBatch(ctx context.Context, n *notification.Notification, req Request, batch []int64, rep *Report) {
	t0 := time.Now()
	defer func() { mBatchDur.Observe(time.Since(t0).Seconds()) }()

	ctx, span := c.tracer.Start(ctx, "orchestrator.batch", trace.WithAttributes(
		attribute.Int("batch.size", len(batch)),
		attribute.Int("batch.index", len(rep.BatchSizes)),
	))
	defer span.End()
	rep.BatchSizes = append(rep.BatchSizes, len(batch))

	users, err := c.users.GetByIDs(ctx, batch)
	if err != nil {
		span.RecordError(err)
		obs.WithTrace(ctx, c.log).Error("load batch users", zap.Int("size", len(batch)), zap.Error(err))
		for _, id := range batch {
			rep.Failed++
			rep.Errors = append(rep.Errors, fmt.Sprintf("user %d: load user: %v", id, err))
			mUsers.WithLabelValues("failed").Inc()
		}
		return
	}

	results := make([]userResult, len(batch))
	var wg conc.WaitGroup
	for i, id := range batch {
		wg.Go(func() {
			u, ok := users[id]
			if !ok || u == nil {
				results[i] = userResult{err: "user not found"}
				return
			}
			if u.TenantID != n.TenantID {
				obs.WithTrace(ctx, c.log).Warn("recipient outside notification tenant",
					zap.Int64("user_id", id), zap.Int64("user_tenant_id", u.TenantID), zap.Int64("tenant_id", n.TenantID))
				results[i] = userResult{err: "user not in tenant"}
				return
			}
			var pc panics.Catcher
			pc.Try(func() {
				out := c.dispatcher.Dispatch(ctx, n, u, req.ForcedChannels, req.Language)
				results[i] = userResult{ok: out.Success, err: failureSummary(out)}
			})
			if rec := pc.Recovered(); rec != nil {
				results[i] = userResult{err: fmt.Sprintf("dispatch panic: %v", rec.Value)}
			}
		})
	}
	wg.Wait()

	for i, r := range results {
		if r.ok {
			rep.Sent++
			mUsers.WithLabelValues("sent").Inc()
			continue
		}
		rep.Failed++
		rep.Errors = append(rep.Errors, fmt.Sprintf("user %d: %s", batch[i], r.err))
		mUsers.WithLabelValues("failed").Inc()
	}
}

func failureSummary(o Outcome) string {
	fails := o.Failures()
	if len(fails) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fails))
	for _, f := range fails {
		parts = append(parts, f.Channel.String()+": "+f.Error)
	}
	return strings.Join(parts, "; ")
}
