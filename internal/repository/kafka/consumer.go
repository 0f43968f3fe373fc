package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/NordCoder/Lessonbell/internal/obs/retry"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, key, value []byte) error

type ConsumerConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	GroupID       string   `mapstructure:"group_id"`
	Topic         string   `mapstructure:"topic"`
	Partitions    int      `mapstructure:"partitions"`
	FromBeginning bool     `mapstructure:"from_beginning"`
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader messageReader
	log    *zap.Logger
	topic  string
	// redo governs re-running the handler on one message after a transient error.
	redo retry.Policy
}

// handlerRetry keeps retrying a message until it succeeds, fails permanently
// or the context ends. Skipping ahead would commit past it.
func handlerRetry(log *zap.Logger) retry.Policy {
	return retry.Policy{
		Name:      "kafka_consume",
		Attempts:  math.MaxInt,
		Backoff:   retry.ExpoJitter{Base: 200 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool { return !IsPermanent(err) },
		OnAttempt: func(attempt int, err error) {
			if !IsPermanent(err) {
				log.Warn("handler failed; retrying message", zap.Int("attempt", attempt+1), zap.Error(err))
			}
		},
	}
}

func NewConsumer(cfg ConsumerConfig, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	start := kafka.LastOffset
	if cfg.FromBeginning {
		start = kafka.FirstOffset
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:               cfg.Brokers,
		GroupID:               cfg.GroupID,
		Topic:                 cfg.Topic,
		StartOffset:           start,
		WatchPartitionChanges: true,

		MinBytes:          1,
		MaxBytes:          10e6,
		MaxWait:           500 * time.Millisecond,
		SessionTimeout:    10 * time.Second,
		RebalanceTimeout:  15 * time.Second,
		HeartbeatInterval: 3 * time.Second,
	})

	log = log.With(
		zap.String("component", "kafka.consumer"),
		zap.String("topic", cfg.Topic),
		zap.String("group", cfg.GroupID),
	)
	return &Consumer{reader: r, topic: cfg.Topic, log: log, redo: handlerRetry(log)}
}

// Consume runs h for every message until ctx is done. A message is committed
// once h succeeds or fails permanently. Transient failures re-run h on the
// same message with backoff; the next message is not fetched until then.
func (c *Consumer) Consume(ctx context.Context, h Handler) error {
	c.log.Info("consumer started")
	tr := otel.Tracer("kafka.consumer")

	const (
		minBackoff = 200 * time.Millisecond
		maxBackoff = 5 * time.Second
	)
	backoff := minBackoff

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer stopped")
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				c.log.Debug("fetch EOF; retry", zap.Duration("backoff", backoff))
			} else {
				c.log.Warn("fetch failed; retry", zap.Error(err), zap.Duration("backoff", backoff))
			}
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		err = c.handle(ctx, tr, msg, h)

		log := c.log.With(zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))
		switch {
		case err == nil:
		case IsPermanent(err):
			log.Error("dropping message", zap.Error(err))
		case ctx.Err() != nil:
			log.Info("consumer stopped; message left uncommitted", zap.Error(err))
			return ctx.Err()
		default:
			return fmt.Errorf("message at offset %d: %w", msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("commit failed", zap.Error(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, tr trace.Tracer, msg kafka.Message, h Handler) error {
	msgCtx := otel.GetTextMapPropagator().Extract(ctx, kafkaHeaders(msg.Headers))
	msgCtx, span := tr.Start(msgCtx, "kafka.consume "+c.topic, trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(c.topic),
		),
	)
	defer span.End()

	err := retry.Do(msgCtx, func() error { return h(msgCtx, msg.Key, msg.Value) }, c.redo)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (c *Consumer) Close() error { return c.reader.Close() }

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
