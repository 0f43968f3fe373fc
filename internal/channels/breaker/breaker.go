package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type Config struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

var mState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "channel_breaker_state",
	Help: "Circuit breaker state per channel (0=closed,1=half-open,2=open).",
}, []string{"channel"})

func settings(name string, cfg Config, log *zap.Logger) gobreaker.Settings {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.6
	}
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && ratio >= cfg.FailureRatio
		},
		// Recipient problems say nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, delivery.ErrInvalidRecipient) ||
				errors.Is(err, delivery.ErrSubscriptionExpired) ||
				errors.Is(err, delivery.ErrNoContact)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			mState.WithLabelValues(name).Set(float64(to))
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	}
}

func execute(cb *gobreaker.CircuitBreaker, fn func() (delivery.SendResult, error)) (delivery.SendResult, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return delivery.SendResult{}, fmt.Errorf("%s: %w", cb.Name(), delivery.ErrCircuitOpen)
	}
	res, _ := out.(delivery.SendResult)
	return res, err
}

type Email struct {
	next delivery.EmailSender
	cb   *gobreaker.CircuitBreaker
}

func NewEmail(next delivery.EmailSender, cfg Config, log *zap.Logger) *Email {
	return &Email{next: next, cb: gobreaker.NewCircuitBreaker(settings("email", cfg, logger(log)))}
}

func (e *Email) SendEmail(ctx context.Context, m delivery.EmailMessage) (delivery.SendResult, error) {
	return execute(e.cb, func() (delivery.SendResult, error) { return e.next.SendEmail(ctx, m) })
}

type SMS struct {
	next delivery.SMSSender
	cb   *gobreaker.CircuitBreaker
}

func NewSMS(next delivery.SMSSender, cfg Config, log *zap.Logger) *SMS {
	return &SMS{next: next, cb: gobreaker.NewCircuitBreaker(settings("sms", cfg, logger(log)))}
}

func (s *SMS) SendSMS(ctx context.Context, m delivery.SMSMessage) (delivery.SendResult, error) {
	return execute(s.cb, func() (delivery.SendResult, error) { return s.next.SendSMS(ctx, m) })
}

type Push struct {
	next delivery.PushSender
	cb   *gobreaker.CircuitBreaker
}

func NewPush(next delivery.PushSender, cfg Config, log *zap.Logger) *Push {
	return &Push{next: next, cb: gobreaker.NewCircuitBreaker(settings("push", cfg, logger(log)))}
}

func (p *Push) SendPush(ctx context.Context, m delivery.PushMessage) (delivery.SendResult, error) {
	return execute(p.cb, func() (delivery.SendResult, error) { return p.next.SendPush(ctx, m) })
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.With(zap.String("component", "channels.breaker"))
}
