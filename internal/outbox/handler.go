package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/domain/kafka"
	"github.com/NordCoder/Lessonbell/internal/domain/outbox"
	"github.com/NordCoder/Lessonbell/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	handlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	handlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers (after retries).",
	}, []string{"kind"})
)

func instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle", trace.WithAttributes(attribute.String("outbox.kind", kind)))
		defer span.End()

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		handlerLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			handlerErrors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

// NewGlobalHandler routes outbox kinds to their publishers.
func NewGlobalHandler(pub kafka.DeliveryEvents, pol retry.Policy) outbox.GlobalHandler {
	logged := instrument(outbox.KindDeliveryLogged.String(), func(ctx context.Context, data []byte) error {
		var e delivery.LogEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("decode delivery entry: %w", err)
		}
		return pub.PublishDeliveryOutcome(ctx, &e)
	}, pol)

	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindDeliveryLogged:
			return logged, nil
		}
		return nil, fmt.Errorf("unsupported outbox kind: %s", kind)
	}
}
