package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	"github.com/NordCoder/Lessonbell/internal/obs"
	kafkax "github.com/NordCoder/Lessonbell/internal/repository/kafka"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"
)

// Runner is satisfied by *Coordinator.
type Runner interface {
	Run(ctx context.Context, req Request) (Report, error)
}

// Controller turns dispatch triggers, from Kafka or the admin API, into
// coordinator runs.
type Controller struct {
	log    *zap.Logger
	notifs notification.Repo
	runner Runner
}

func NewController(notifs notification.Repo, runner Runner, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{notifs: notifs, runner: runner, log: log.With(zap.String("component", "orchestrator.controller"))}
}

// Consume blocks until ctx is done.
func (c *Controller) Consume(ctx context.Context, sub *kafkax.Consumer) error {
	handler := kafkax.ProtoHandler(
		func() *structpb.Struct { return &structpb.Struct{} },
		func(ctx context.Context, _ []byte, ev *structpb.Struct) error {
			req, err := kafkax.DispatchRequestFromProto(ev)
			if err != nil {
				mTriggers.WithLabelValues("kafka", "invalid").Inc()
				return kafkax.Permanent(err)
			}
			if req.NotificationID <= 0 {
				mTriggers.WithLabelValues("kafka", "invalid").Inc()
				obs.WithTrace(ctx, c.log).Warn("dispatch trigger without notification id")
				return nil
			}
			_, err = c.dispatch(ctx, "kafka", req)
			if isPermanent(err) {
				return kafkax.Permanent(err)
			}
			return err
		},
	)
	return sub.Consume(ctx, handler)
}

// Dispatch runs one trigger synchronously and returns the aggregate report.
func (c *Controller) Dispatch(ctx context.Context, req kafkax.DispatchRequest) (Report, error) {
	return c.dispatch(ctx, "api", req)
}

func (c *Controller) dispatch(ctx context.Context, source string, req kafkax.DispatchRequest) (Report, error) {
	log := obs.WithTrace(ctx, c.log).With(zap.Int64("notification_id", req.NotificationID), zap.String("source", source))

	n, err := c.notifs.GetByID(ctx, req.NotificationID)
	if err != nil {
		mTriggers.WithLabelValues(source, "error").Inc()
		log.Warn("load notification", zap.Error(err))
		return Report{}, fmt.Errorf("load notification %d: %w", req.NotificationID, err)
	}
	if req.TenantID != 0 && req.TenantID != n.TenantID {
		mTriggers.WithLabelValues(source, "invalid").Inc()
		return Report{}, fmt.Errorf("notification %d, tenant %d: %w", n.ID, req.TenantID, notification.ErrTenant)
	}

	rep, err := c.runner.Run(ctx, Request{
		Notification:   n,
		ForcedChannels: req.ForcedChannels,
		Recipients:     req.Recipients,
		Language:       req.Language,
	})
	if err != nil {
		mTriggers.WithLabelValues(source, "error").Inc()
		log.Error("dispatch run", zap.Error(err))
		return rep, err
	}
	mTriggers.WithLabelValues(source, "ok").Inc()
	return rep, nil
}

// isPermanent reports errors that redelivery cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, notification.ErrNotFound) ||
		errors.Is(err, notification.ErrTenant) ||
		errors.Is(err, notification.ErrUnknownValue)
}
