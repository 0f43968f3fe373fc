package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
)

type Config struct {
	VAPIDPublicKey  string        `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string        `mapstructure:"vapid_private_key"`
	Subscriber      string        `mapstructure:"subscriber"`
	TTL             time.Duration `mapstructure:"ttl"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Lang  string `json:"lang,omitempty"`
}

var _ delivery.PushSender = (*WebPush)(nil)

type WebPush struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

func NewWebPush(cfg Config, log *zap.Logger) (*WebPush, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, errors.New("webpush: vapid keys are required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WebPush{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With(zap.String("component", "channels.push.webpush")),
	}, nil
}

func (w *WebPush) SendPush(ctx context.Context, m delivery.PushMessage) (delivery.SendResult, error) {
	var sub webpush.Subscription
	if err := json.Unmarshal(m.Subscription, &sub); err != nil {
		return delivery.SendResult{}, fmt.Errorf("%w: decode subscription: %v", delivery.ErrInvalidRecipient, err)
	}
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return delivery.SendResult{}, fmt.Errorf("%w: incomplete push subscription", delivery.ErrInvalidRecipient)
	}

	body, err := json.Marshal(payload{Title: m.Title, Body: m.Body, URL: m.URL, Lang: m.Language})
	if err != nil {
		return delivery.SendResult{}, err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &sub, &webpush.Options{
		HTTPClient:      w.http,
		Subscriber:      w.cfg.Subscriber,
		VAPIDPublicKey:  w.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: w.cfg.VAPIDPrivateKey,
		TTL:             int(w.cfg.TTL.Seconds()),
		Urgency:         urgency(m.Priority),
	})
	if err != nil {
		return delivery.SendResult{}, fmt.Errorf("webpush: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return delivery.SendResult{}, fmt.Errorf("webpush %d: %w", resp.StatusCode, delivery.ErrSubscriptionExpired)
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return delivery.SendResult{}, fmt.Errorf("webpush status %d: %s", resp.StatusCode, msg)
	}

	id := resp.Header.Get("Location")
	w.log.Debug("push accepted", zap.Int("status", resp.StatusCode))
	return delivery.SendResult{MessageID: id}, nil
}

func urgency(p notification.Priority) webpush.Urgency {
	switch p {
	case notification.PriorityUrgent, notification.PriorityHigh:
		return webpush.UrgencyHigh
	case notification.PriorityLow:
		return webpush.UrgencyLow
	}
	return webpush.UrgencyNormal
}
