package main

import (
	"context"
	"fmt"

	"github.com/NordCoder/Lessonbell/internal/channels/breaker"
	"github.com/NordCoder/Lessonbell/internal/channels/email"
	"github.com/NordCoder/Lessonbell/internal/channels/push"
	"github.com/NordCoder/Lessonbell/internal/channels/sms"
	config "github.com/NordCoder/Lessonbell/internal/config/orchestrator"
	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/outbox"
	"github.com/NordCoder/Lessonbell/internal/obs/retry"
	kafkax "github.com/NordCoder/Lessonbell/internal/repository/kafka"
	pg "github.com/NordCoder/Lessonbell/internal/repository/postgres"
	redisinfra "github.com/NordCoder/Lessonbell/internal/repository/redis"
	"github.com/NordCoder/Lessonbell/internal/services/orchestrator"
	"github.com/NordCoder/Lessonbell/internal/services/orchestrator/repo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type senders struct {
	email delivery.EmailSender
	sms   delivery.SMSSender
	push  delivery.PushSender
}

// buildSenders wraps every configured provider in its own circuit breaker.
// A disabled channel stays nil and its attempts fail as not configured.
func buildSenders(cfg *config.Config, l *zap.Logger) (senders, error) {
	var s senders

	em, err := email.New(cfg.Email.Provider, cfg.SMTP, cfg.SendGrid, l)
	if err != nil {
		return s, fmt.Errorf("email: %w", err)
	}
	if em != nil {
		s.email = breaker.NewEmail(em, cfg.Breaker, l)
	}

	if cfg.SMS.Enable {
		tw, err := sms.NewTwilio(cfg.SMS.Config, l)
		if err != nil {
			return s, fmt.Errorf("sms: %w", err)
		}
		s.sms = breaker.NewSMS(tw, cfg.Breaker, l)
	}

	if cfg.Push.Enable {
		wp, err := push.NewWebPush(cfg.Push.Config, l)
		if err != nil {
			return s, fmt.Errorf("push: %w", err)
		}
		s.push = breaker.NewPush(wp, cfg.Breaker, l)
	}

	l.Info("channel senders ready",
		zap.String("email_provider", cfg.Email.Provider),
		zap.Bool("sms", s.sms != nil),
		zap.Bool("whatsapp", cfg.SMS.WhatsApp),
		zap.Bool("push", s.push != nil),
	)
	return s, nil
}

type service struct {
	ctrl   *orchestrator.Controller
	relay  *outbox.Runner
	closer func() error
}

func wiring(ctx context.Context, cfg *config.Config, db *pg.DB, rdb *redis.Client, l *zap.Logger) (*service, error) {
	snd, err := buildSenders(cfg, l)
	if err != nil {
		return nil, err
	}

	users := pg.NewUserRepo(db)
	tx := pg.NewTransactor(db, l)
	outboxRepo := pg.NewOutboxRepo(db)

	store := repo.NewOutboxedLogStore(tx, pg.NewDeliveryLogRepo(db), outboxRepo, retry.StorePolicy(pg.ErrConflict))

	deps := orchestrator.DispatcherDeps{
		Prefs:           orchestrator.NewPreferenceResolver(pg.NewPreferenceRepo(db), l),
		Email:           snd.email,
		SMS:             snd.sms,
		Push:            snd.push,
		Logger:          orchestrator.NewDeliveryLogger(store, l),
		DefaultLanguage: cfg.Orchestrator.DefaultLanguage,
		Log:             l,
	}
	if rdb != nil {
		deps.Guard = redisinfra.NewGuard(rdb, cfg.Orchestrator.Dedupe.TTL)
	}

	coord := orchestrator.NewCoordinator(
		orchestrator.NewRecipientResolver(users, pg.NewEnrollmentRepo(db), cfg.Orchestrator.ExpandCourseViaProgram),
		users,
		orchestrator.NewDispatcher(deps),
		cfg.Orchestrator.BatchSize,
		l,
	)
	ctrl := orchestrator.NewController(pg.NewNotificationRepo(db), coord, l)

	prod := kafkax.BootstrapProducer(ctx, cfg.Out, l)
	relay := outbox.NewRunner(l, outboxRepo,
		outbox.NewGlobalHandler(kafkax.NewDeliveryEventsKafka(prod), retry.PublishPolicy(l)),
		cfg.Outbox,
	)

	return &service{ctrl: ctrl, relay: relay, closer: prod.Close}, nil
}
