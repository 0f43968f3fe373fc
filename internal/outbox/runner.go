package outbox

import (
	"context"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/outbox"
	"github.com/NordCoder/Lessonbell/internal/obs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	mPicked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_picked_total", Help: "Messages picked into processing.",
	})
	mOk = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_processed_ok_total", Help: "Messages processed successfully.",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_processed_err_total", Help: "Pick, handler and mark errors.",
	})
	mTickDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "outbox_tick_duration_seconds", Help: "Tick duration.",
		Buckets: prometheus.DefBuckets,
	})
	mBatchSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_last_batch_size", Help: "Size of last picked batch.",
	})
	mPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_purged_total", Help: "Relayed rows deleted by the janitor.",
	})
)

type Config struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
	// Retention of relayed rows; zero keeps them forever.
	Retention     time.Duration `mapstructure:"retention"`
	PurgeEvery    time.Duration `mapstructure:"purge_every"`
}

// Runner relays outbox rows to their handlers. Rows whose handler fails stay
// IN_PROGRESS and are picked again once InProgressTTL passes.
type Runner struct {
	log      *zap.Logger
	repo     outbox.Repository
	dispatch outbox.GlobalHandler
	cfg      Config
	tracer   trace.Tracer
}

func NewRunner(log *zap.Logger, repo outbox.Repository, dispatch outbox.GlobalHandler, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.WaitTime <= 0 {
		cfg.WaitTime = time.Second
	}
	if cfg.InProgressTTL <= 0 {
		cfg.InProgressTTL = time.Minute
	}
	if cfg.PurgeEvery <= 0 {
		cfg.PurgeEvery = 10 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		log:      log.With(zap.String("component", "outbox.runner")),
		repo:     repo,
		dispatch: dispatch,
		cfg:      cfg,
		tracer:   otel.Tracer("outbox.runner"),
	}
}

// Run blocks until ctx is done and every worker has returned.
func (r *Runner) Run(ctx context.Context) {
	var wg conc.WaitGroup
	for i := range r.cfg.Workers {
		wg.Go(func() { r.worker(ctx, i) })
	}
	if p, ok := r.repo.(outbox.Purger); ok && r.cfg.Retention > 0 {
		wg.Go(func() { r.janitor(ctx, p) })
	}
	wg.Wait()
}

func (r *Runner) janitor(ctx context.Context, p outbox.Purger) {
	ticker := time.NewTicker(r.cfg.PurgeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Purge(ctx, p)
		}
	}
}

// Purge drops relayed rows older than the retention window.
func (r *Runner) Purge(ctx context.Context, p outbox.Purger) int64 {
	n, err := p.PurgeSucceeded(ctx, r.cfg.Retention)
	if err != nil {
		mErr.Inc()
		obs.WithTrace(ctx, r.log).Warn("outbox purge error", zap.Error(err))
		return 0
	}
	if n > 0 {
		mPurged.Add(float64(n))
		r.log.Debug("outbox purged", zap.Int64("rows", n))
	}
	return n
}

func (r *Runner) worker(ctx context.Context, id int) {
	log := r.log.With(zap.Int("worker", id))
	log.Info("outbox worker started", zap.Duration("wait", r.cfg.WaitTime))

	ticker := time.NewTicker(r.cfg.WaitTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stop")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick picks one batch and handles it. It returns how many rows succeeded.
func (r *Runner) Tick(ctx context.Context) int {
	t0 := time.Now()
	defer func() { mTickDur.Observe(time.Since(t0).Seconds()) }()

	ctx, span := r.tracer.Start(ctx, "outbox.tick", trace.WithAttributes(
		attribute.Int("batch.limit", r.cfg.BatchSize),
	))
	defer span.End()

	messages, err := r.repo.PickBatch(ctx, r.cfg.BatchSize, r.cfg.InProgressTTL)
	if err != nil {
		span.RecordError(err)
		mErr.Inc()
		obs.WithTrace(ctx, r.log).Error("outbox pick error", zap.Error(err))
		return 0
	}
	mPicked.Add(float64(len(messages)))
	mBatchSize.Set(float64(len(messages)))
	if len(messages) == 0 {
		return 0
	}

	prop := otel.GetTextMapPropagator()
	okKeys := make([]string, 0, len(messages))
	for _, m := range messages {
		parent := prop.Extract(ctx, propagation.MapCarrier{
			"traceparent": m.Traceparent,
			"tracestate":  m.Tracestate,
			"baggage":     m.Baggage,
		})
		if r.handle(parent, m) {
			okKeys = append(okKeys, m.IdempotencyKey)
		}
	}

	if err := r.repo.MarkSuccess(ctx, okKeys); err != nil {
		span.RecordError(err)
		mErr.Inc()
		obs.WithTrace(ctx, r.log).Error("mark success error", zap.Error(err))
		return 0
	}
	return len(okKeys)
}

func (r *Runner) handle(ctx context.Context, m outbox.Message) bool {
	ctx, span := r.tracer.Start(ctx, "outbox.dispatch", trace.WithAttributes(
		attribute.String("outbox.key", m.IdempotencyKey),
		attribute.String("outbox.kind", m.Kind.String()),
	))
	defer span.End()

	handler, err := r.dispatch(m.Kind)
	if err == nil {
		err = handler(ctx, m.Data)
	}
	if err != nil {
		span.RecordError(err)
		mErr.Inc()
		obs.WithTrace(ctx, r.log).Error("outbox handler error",
			zap.String("key", m.IdempotencyKey), zap.Stringer("kind", m.Kind), zap.Error(err))
		return false
	}
	mOk.Inc()
	return true
}
