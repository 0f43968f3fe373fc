package orchestrator_config

import (
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Lessonbell/internal/channels/breaker"
	"github.com/NordCoder/Lessonbell/internal/channels/email"
	"github.com/NordCoder/Lessonbell/internal/channels/push"
	"github.com/NordCoder/Lessonbell/internal/channels/sms"
	"github.com/NordCoder/Lessonbell/internal/obs"
	"github.com/NordCoder/Lessonbell/internal/outbox"
	kafkax "github.com/NordCoder/Lessonbell/internal/repository/kafka"
	pginfra "github.com/NordCoder/Lessonbell/internal/repository/postgres"
	redisinfra "github.com/NordCoder/Lessonbell/internal/repository/redis"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Dedupe struct {
	Enable bool          `mapstructure:"enable"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type Orchestrator struct {
	BatchSize int `mapstructure:"batch_size"`
	// ExpandCourseViaProgram also targets users enrolled through a program
	// that contains the course.
	ExpandCourseViaProgram bool   `mapstructure:"expand_course_via_program"`
	DefaultLanguage        string `mapstructure:"default_language"`
	Dedupe                 Dedupe `mapstructure:"dedupe"`
}

type Email struct {
	Provider string `mapstructure:"provider"`
}

type SMS struct {
	Enable     bool `mapstructure:"enable"`
	sms.Config `mapstructure:",squash"`
}

type Push struct {
	Enable      bool `mapstructure:"enable"`
	push.Config `mapstructure:",squash"`
}

type Config struct {
	App          App                   `mapstructure:"app"`
	Log          obs.LogConfig         `mapstructure:"log"`
	OTel         obs.OTelConfig        `mapstructure:"otel"`
	DB           pginfra.Config        `mapstructure:"db"`
	Redis        redisinfra.Config     `mapstructure:"redis"`
	In           kafkax.ConsumerConfig `mapstructure:"kafka_in"`
	Out          kafkax.ProducerConfig `mapstructure:"kafka_out"`
	Server       Server                `mapstructure:"server"`
	Orchestrator Orchestrator          `mapstructure:"orchestrator"`
	Email        Email                 `mapstructure:"email"`
	SMTP         email.SMTPConfig      `mapstructure:"smtp"`
	SendGrid     email.SendGridConfig  `mapstructure:"sendgrid"`
	SMS          SMS                   `mapstructure:"sms"`
	Push         Push                  `mapstructure:"push"`
	Breaker      breaker.Config        `mapstructure:"breaker"`
	Outbox       outbox.Config         `mapstructure:"outbox"`
}

func (c *Config) Validate() error {
	var errs []error
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn is empty"))
	}
	if len(c.In.Brokers) == 0 || c.In.Topic == "" {
		errs = append(errs, errors.New("kafka_in needs brokers and topic"))
	}
	if len(c.Out.Brokers) == 0 || c.Out.Topic == "" {
		errs = append(errs, errors.New("kafka_out needs brokers and topic"))
	}
	if c.Orchestrator.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("orchestrator.batch_size must be > 0, got %d", c.Orchestrator.BatchSize))
	}
	if c.Orchestrator.Dedupe.Enable && c.Redis.Addr == "" {
		errs = append(errs, errors.New("orchestrator.dedupe needs redis.addr"))
	}
	switch c.Email.Provider {
	case "", email.ProviderSMTP, email.ProviderSendGrid:
	default:
		errs = append(errs, fmt.Errorf("email.provider %q is not one of smtp, sendgrid", c.Email.Provider))
	}
	return errors.Join(errs...)
}
