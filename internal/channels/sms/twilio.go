package sms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Config struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
	// DefaultRegion is used for numbers stored without a country code.
	DefaultRegion string `mapstructure:"default_region"`
	// WhatsApp sends through the Twilio WhatsApp channel instead of SMS.
	WhatsApp bool          `mapstructure:"whatsapp"`
	Rate     float64       `mapstructure:"rate"`
	Burst    int           `mapstructure:"burst"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Twilio error codes for an unusable destination.
var invalidRecipientCodes = map[int]bool{
	21211: true, // invalid To
	21214: true, // To cannot be reached
	21408: true, // region not enabled
	21610: true, // unsubscribed recipient
	21614: true, // not a mobile number
}

type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

var _ delivery.SMSSender = (*Twilio)(nil)

type Twilio struct {
	api     messageCreator
	cfg     Config
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewTwilio(cfg Config, log *zap.Logger) (*Twilio, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("twilio: account sid and auth token are required")
	}
	if cfg.From == "" {
		return nil, errors.New("twilio: from number is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilio(rc.Api, cfg, log), nil
}

func newTwilio(c messageCreator, cfg Config, log *zap.Logger) *Twilio {
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Twilio{
		api:     c,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		log:     log.With(zap.String("component", "channels.sms.twilio")),
	}
}

func (t *Twilio) SendSMS(ctx context.Context, m delivery.SMSMessage) (delivery.SendResult, error) {
	to, err := Normalize(m.To, t.cfg.DefaultRegion)
	if err != nil {
		return delivery.SendResult{}, err
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return delivery.SendResult{}, fmt.Errorf("sms rate limit: %w", err)
	}

	from := t.cfg.From
	if t.cfg.WhatsApp {
		to, from = "whatsapp:"+to, "whatsapp:"+from
	}
	params := &api.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(m.Body)

	type reply struct {
		msg *api.ApiV2010Message
		err error
	}
	// The Twilio client takes no context; bound the call ourselves.
	done := make(chan reply, 1)
	go func() {
		msg, err := t.api.CreateMessage(params)
		done <- reply{msg, err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-ctx.Done():
		return delivery.SendResult{}, ctx.Err()
	case <-time.After(t.cfg.Timeout):
		return delivery.SendResult{}, fmt.Errorf("twilio: no reply within %s", t.cfg.Timeout)
	}
	if r.err != nil {
		return delivery.SendResult{}, classify(r.err)
	}

	var sid string
	if r.msg != nil && r.msg.Sid != nil {
		sid = *r.msg.Sid
	}
	t.log.Debug("sms queued", zap.String("sid", sid), zap.Bool("whatsapp", t.cfg.WhatsApp))
	return delivery.SendResult{MessageID: sid}, nil
}

func classify(err error) error {
	var tw *twclient.TwilioRestError
	if errors.As(err, &tw) && invalidRecipientCodes[tw.Code] {
		return fmt.Errorf("%w: twilio %d: %s", delivery.ErrInvalidRecipient, tw.Code, tw.Message)
	}
	return fmt.Errorf("twilio: %w", err)
}
