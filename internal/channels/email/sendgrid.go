package email

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type SendGridConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	FromName string        `mapstructure:"from_name"`
	FromMail string        `mapstructure:"from_mail"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

var _ delivery.EmailSender = (*SendGrid)(nil)

type SendGrid struct {
	cfg SendGridConfig
	log *zap.Logger
}

func NewSendGrid(cfg SendGridConfig, log *zap.Logger) *SendGrid {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SendGrid{cfg: cfg, log: log.With(zap.String("component", "channels.email.sendgrid"))}
}

func (s *SendGrid) SendEmail(ctx context.Context, m delivery.EmailMessage) (delivery.SendResult, error) {
	msg := mail.NewV3Mail()
	msg.SetFrom(mail.NewEmail(s.cfg.FromName, s.cfg.FromMail))
	msg.Subject = m.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", m.To))
	if m.Priority == notification.PriorityUrgent {
		p.SetHeader("X-Priority", "1")
	}
	msg.AddPersonalizations(p)

	if m.Text != "" {
		msg.AddContent(mail.NewContent("text/plain", m.Text))
	}
	if m.HTML != "" {
		msg.AddContent(mail.NewContent("text/html", m.HTML))
	}
	if m.Language != "" {
		msg.SetHeader("Content-Language", m.Language)
	}

	req := sendgrid.GetRequest(s.cfg.APIKey, "/v3/mail/send", s.cfg.BaseURL)
	req.Method = http.MethodPost
	req.Body = mail.GetRequestBody(msg)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return delivery.SendResult{}, fmt.Errorf("sendgrid request: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return delivery.SendResult{}, fmt.Errorf("%w: sendgrid 400: %s", delivery.ErrInvalidRecipient, resp.Body)
	case resp.StatusCode >= 300:
		return delivery.SendResult{}, fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}

	var id string
	if v := resp.Headers["X-Message-Id"]; len(v) > 0 {
		id = v[0]
	}
	s.log.Debug("email accepted", zap.String("message_id", id))
	return delivery.SendResult{MessageID: id}, nil
}
