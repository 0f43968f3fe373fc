package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SMTPConfig struct {
	Addr       string        `mapstructure:"addr"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	From       string        `mapstructure:"from"`
	UseTLS     bool          `mapstructure:"use_tls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SubjPrefix string        `mapstructure:"subject_prefix"`
}

var _ delivery.EmailSender = (*Mailer)(nil)

// Mailer relays mail through an SMTP server.
type Mailer struct {
	addr       string
	auth       smtp.Auth
	useTLS     bool
	timeout    time.Duration
	from       string
	subjPrefix string

	log *zap.Logger
}

func NewMailer(cfg SMTPConfig, log *zap.Logger) *Mailer {
	var auth smtp.Auth
	if cfg.User != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, host(cfg.Addr))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{
		addr:       cfg.Addr,
		auth:       auth,
		useTLS:     cfg.UseTLS,
		timeout:    cfg.Timeout,
		from:       cfg.From,
		subjPrefix: cfg.SubjPrefix,
		log:        log.With(zap.String("component", "channels.email.smtp")),
	}
}

func (m *Mailer) SendEmail(ctx context.Context, msg delivery.EmailMessage) (delivery.SendResult, error) {
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(m.from))
	raw, err := m.build(msg, id)
	if err != nil {
		return delivery.SendResult{}, err
	}

	start := time.Now()
	log := m.log.With(zap.String("smtp_addr", m.addr), zap.Bool("tls", m.useTLS), zap.String("message_id", id))

	if err := m.deliver(ctx, msg.To, raw); err != nil {
		log.Warn("smtp delivery failed", zap.Error(err))
		return delivery.SendResult{}, classify(err)
	}
	log.Debug("email sent", zap.Duration("elapsed", time.Since(start)))
	return delivery.SendResult{MessageID: id}, nil
}

func (m *Mailer) deliver(ctx context.Context, to string, raw []byte) error {
	dialer := net.Dialer{Timeout: m.timeout}
	var (
		conn net.Conn
		err  error
	)
	if m.useTLS {
		td := tls.Dialer{NetDialer: &dialer, Config: &tls.Config{ServerName: host(m.addr)}}
		conn, err = td.DialContext(ctx, "tcp", m.addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", m.addr)
	}
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	} else {
		_ = conn.SetDeadline(time.Now().Add(m.timeout))
	}

	c, err := smtp.NewClient(conn, host(m.addr))
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer func() { _ = c.Close() }()

	if !m.useTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: host(m.addr)}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if m.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(m.auth); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}
	if err := c.Mail(addrSpec(m.from)); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return c.Quit()
}

// build renders a multipart/alternative message with a text and an HTML part.
func (m *Mailer) build(msg delivery.EmailMessage, messageID string) ([]byte, error) {
	subj := strings.TrimSpace(m.subjPrefix + " " + msg.Subject)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	} {
		if part.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var b bytes.Buffer
	header := func(k, v string) { b.WriteString(k + ": " + v + "\r\n") }
	header("From", m.from)
	header("To", msg.To)
	header("Subject", mime.QEncoding.Encode("utf-8", subj))
	header("Message-ID", messageID)
	header("Date", time.Now().UTC().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	if msg.Language != "" {
		header("Content-Language", msg.Language)
	}
	if msg.Priority == notification.PriorityUrgent {
		header("X-Priority", "1")
		header("Importance", "high")
	}
	header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	b.WriteString("\r\n")
	b.Write(body.Bytes())
	return b.Bytes(), nil
}

// classify maps permanent mailbox errors to ErrInvalidRecipient.
func classify(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 550, 551, 553:
			return fmt.Errorf("%w: %v", delivery.ErrInvalidRecipient, err)
		}
	}
	return err
}

func host(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}
	return addr
}

func addrSpec(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return from
}

func domainOf(from string) string {
	a := addrSpec(from)
	if i := strings.LastIndex(a, "@"); i >= 0 {
		return a[i+1:]
	}
	return "localhost"
}
