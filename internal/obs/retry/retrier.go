package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Backoff interface {
	Next(attempt int) time.Duration
}

type ExpoJitter struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func (b ExpoJitter) Next(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(b.Base) * math.Pow(2, float64(attempt))
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		d *= 1 + (rand.Float64()*2-1)*b.Jitter
	}
	return time.Duration(d)
}

type Constant time.Duration

func (c Constant) Next(int) time.Duration { return time.Duration(c) }

type Policy struct {
	Name      string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	OnAttempt func(attempt int, err error)
	OnExhaust func(lastErr error)
}

var (
	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_attempts_total",
		Help: "Total retry attempts (including final).",
	}, []string{"name"})
	retryExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_exhausted_total",
		Help: "Operations that exhausted all retries.",
	}, []string{"name"})
	retryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retry_duration_seconds",
		Help:    "Total time spent inside retry.Do (success or fail).",
		Buckets: prometheus.DefBuckets,
	}, []string{"name"})
)

// Do calls fn until it succeeds, the error is not retryable, attempts run
// out or ctx is done. A deadline inside fn is retryable while ctx is alive.
func Do(ctx context.Context, fn func() error, p Policy) error {
	p = p.withDefaults()
	start := time.Now()
	defer func() { retryLatency.WithLabelValues(p.Name).Observe(time.Since(start).Seconds()) }()

	span := trace.SpanFromContext(ctx)
	var err error
	for i := 0; i < p.Attempts; i++ {
		retryAttempts.WithLabelValues(p.Name).Inc()
		if err = fn(); err == nil {
			return nil
		}
		if p.OnAttempt != nil {
			p.OnAttempt(i, err)
		}
		span.AddEvent("retry.attempt", trace.WithAttributes(
			attribute.String("retry.name", p.Name),
			attribute.Int("retry.attempt", i+1),
			attribute.String("retry.error", err.Error()),
		))
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if i == p.Attempts-1 || !p.Retryable(err) {
			break
		}
		if werr := sleep(ctx, p.Backoff.Next(i)); werr != nil {
			return werr
		}
	}

	retryExhausted.WithLabelValues(p.Name).Inc()
	if p.OnExhaust != nil {
		p.OnExhaust(err)
	}
	return err
}

func (p Policy) withDefaults() Policy {
	if p.Name == "" {
		p.Name = "default"
	}
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Backoff == nil {
		p.Backoff = Constant(0)
	}
	if p.Retryable == nil {
		p.Retryable = func(err error) bool { return err != nil }
	}
	return p
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
