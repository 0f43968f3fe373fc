package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/domain/kafka"
	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	"google.golang.org/protobuf/types/known/structpb"
)

// DispatchRequest is the trigger emitted by notification creation and event hooks.
type DispatchRequest struct {
	NotificationID int64
	TenantID       int64
	ForcedChannels []notification.Channel
	Recipients     []int64
	Language       string
	RequestedAt    time.Time
}

func (r DispatchRequest) ToProto() (*structpb.Struct, error) {
	channels := make([]any, 0, len(r.ForcedChannels))
	for _, c := range r.ForcedChannels {
		channels = append(channels, c.String())
	}
	recipients := make([]any, 0, len(r.Recipients))
	for _, id := range r.Recipients {
		recipients = append(recipients, float64(id))
	}
	at := r.RequestedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return structpb.NewStruct(map[string]any{
		"notification_id": float64(r.NotificationID),
		"tenant_id":       float64(r.TenantID),
		"forced_channels": channels,
		"recipients":      recipients,
		"language":        r.Language,
		"requested_at":    at.UTC().Format(time.RFC3339Nano),
	})
}

func DispatchRequestFromProto(s *structpb.Struct) (DispatchRequest, error) {
	f := s.GetFields()
	req := DispatchRequest{
		NotificationID: int64(f["notification_id"].GetNumberValue()),
		TenantID:       int64(f["tenant_id"].GetNumberValue()),
		Language:       f["language"].GetStringValue(),
	}
	for _, v := range f["forced_channels"].GetListValue().GetValues() {
		ch, err := notification.ParseChannel(v.GetStringValue())
		if err != nil {
			return DispatchRequest{}, fmt.Errorf("forced_channels: %w", err)
		}
		req.ForcedChannels = append(req.ForcedChannels, ch)
	}
	for _, v := range f["recipients"].GetListValue().GetValues() {
		req.Recipients = append(req.Recipients, int64(v.GetNumberValue()))
	}
	if ts := f["requested_at"].GetStringValue(); ts != "" {
		at, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return DispatchRequest{}, fmt.Errorf("requested_at: %w", err)
		}
		req.RequestedAt = at
	}
	return req, nil
}

type DispatchEventsKafka struct {
	p *Producer
}

func NewDispatchEventsKafka(p *Producer) *DispatchEventsKafka { return &DispatchEventsKafka{p: p} }

func (e *DispatchEventsKafka) PublishDispatchRequested(ctx context.Context, r DispatchRequest) error {
	msg, err := r.ToProto()
	if err != nil {
		return fmt.Errorf("encode dispatch request: %w", err)
	}
	return e.p.PublishProto(ctx, KeyFromInt64(r.NotificationID), msg)
}

type DeliveryEventsKafka struct {
	p *Producer
}

func NewDeliveryEventsKafka(p *Producer) *DeliveryEventsKafka { return &DeliveryEventsKafka{p: p} }

var _ kafka.DeliveryEvents = (*DeliveryEventsKafka)(nil)

func (e *DeliveryEventsKafka) PublishDeliveryOutcome(ctx context.Context, le *delivery.LogEntry) error {
	md := make(map[string]any, len(le.Metadata))
	for k, v := range le.Metadata {
		md[k] = v
	}
	msg, err := structpb.NewStruct(map[string]any{
		"id":                  le.ID,
		"notification_id":     float64(le.NotificationID),
		"user_id":             float64(le.UserID),
		"tenant_id":           float64(le.TenantID),
		"channel":             le.Channel.String(),
		"status":              string(le.Status),
		"error":               le.Error,
		"provider_message_id": le.ProviderMessageID,
		"metadata":            md,
		"created_at":          le.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encode delivery outcome: %w", err)
	}
	// keyed by notification so one notification's outcomes stay ordered on a partition
	return e.p.PublishProto(ctx, KeyFromInt64(le.NotificationID), msg)
}
