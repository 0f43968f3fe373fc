package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	"github.com/NordCoder/Lessonbell/internal/domain/preference"
	"github.com/NordCoder/Lessonbell/internal/domain/user"
	"github.com/NordCoder/Lessonbell/internal/obs"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Outcome is what one user's dispatch produced.
type Outcome struct {
	// Success is true iff every attempted channel succeeded.
	Success bool
	// Results covers in_app and every attempted external channel.
	Results []delivery.Result
	// Skipped lists channels not attempted: quiet hours, duplicates, no
	// contact on file or no sender configured.
	Skipped []delivery.Result
}

func (o Outcome) Failures() []delivery.Result {
	var out []delivery.Result
	for _, r := range o.Results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}

type DispatcherDeps struct {
	Prefs  *PreferenceResolver
	Email  delivery.EmailSender
	SMS    delivery.SMSSender
	Push   delivery.PushSender
	Logger *DeliveryLogger
	// Guard is optional.
	Guard    delivery.Guard
	Renderer Renderer
	Clock    func() time.Time
	// DefaultLanguage is used when neither the request nor the user has one.
	DefaultLanguage string
	Log             *zap.Logger
}

type Dispatcher struct {
	prefs  *PreferenceResolver
	email  delivery.EmailSender
	sms    delivery.SMSSender
	push   delivery.PushSender
	logger *DeliveryLogger
	guard  delivery.Guard
	render Renderer
	clock  func() time.Time
	lang   string
	log    *zap.Logger
	tracer trace.Tracer
}

func NewDispatcher(d DispatcherDeps) *Dispatcher {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	if d.Prefs == nil {
		d.Prefs = NewPreferenceResolver(nil, log)
	}
	if d.Logger == nil {
		d.Logger = NewDeliveryLogger(nil, log)
	}
	if d.Renderer == nil {
		d.Renderer = PlainRenderer{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.DefaultLanguage == "" {
		d.DefaultLanguage = "en"
	}
	return &Dispatcher{
		prefs:  d.Prefs,
		email:  d.Email,
		sms:    d.SMS,
		push:   d.Push,
		logger: d.Logger,
		guard:  d.Guard,
		render: d.Renderer,
		clock:  d.Clock,
		lang:   d.DefaultLanguage,
		log:    log.With(zap.String("component", "orchestrator.dispatcher")),
		tracer: otel.Tracer("orchestrator.dispatcher"),
	}
}

// Dispatch delivers n to one user. Channels run concurrently and fail
// independently; every result, skipped ones included, goes to the delivery log.
func (d *Dispatcher) Dispatch(ctx context.Context, n *notification.Notification, u *user.User, forced []notification.Channel, language string) Outcome {
	ctx, span := d.tracer.Start(ctx, "orchestrator.dispatch", trace.WithAttributes(
		attribute.Int64("notification.id", n.ID),
		attribute.Int64("user.id", u.ID),
	))
	defer span.End()

	prefs := d.prefs.Resolve(ctx, u.ID, n.TenantID)
	localNow := preference.ClockOf(d.clock().In(d.location(ctx, prefs.QuietHours.Timezone)))
	sel := SelectChannels(n, &prefs, forced, localNow)

	lang := d.language(language, u)
	content := d.render.Render(n, lang)

	external := sel.External()
	attempts := make([]delivery.Result, len(external))

	var wg conc.WaitGroup
	for i, ch := range external {
		wg.Go(func() {
			var pc panics.Catcher
			pc.Try(func() { attempts[i] = d.attempt(ctx, n, u, &prefs, ch, content) })
			if rec := pc.Recovered(); rec != nil {
				obs.WithTrace(ctx, d.log).Error("channel sender panicked",
					zap.Stringer("channel", ch), zap.Int64("user_id", u.ID), zap.Error(rec.AsError()))
				attempts[i] = delivery.Result{Channel: ch, Error: fmt.Sprintf("panic: %v", rec.Value)}
			}
		})
	}
	wg.Wait()

	out := Outcome{
		Success: true,
		Results: []delivery.Result{{Channel: notification.ChannelInApp, Success: true}},
	}
	for _, r := range attempts {
		if r.Skipped != "" {
			out.Skipped = append(out.Skipped, r)
			continue
		}
		out.Results = append(out.Results, r)
		if !r.Success {
			out.Success = false
		}
	}
	for _, ch := range sel.Suppressed {
		out.Skipped = append(out.Skipped, delivery.Result{Channel: ch, Skipped: delivery.SkipQuietHours})
	}

	for _, r := range out.Results {
		mAttempts.WithLabelValues(r.Channel.String(), string(r.Status())).Inc()
	}
	for _, r := range out.Skipped {
		mAttempts.WithLabelValues(r.Channel.String(), string(r.Status())).Inc()
	}

	all := make([]delivery.Result, 0, len(out.Results)+len(out.Skipped))
	all = append(all, out.Results...)
	all = append(all, out.Skipped...)
	d.logger.Log(ctx, n, u.ID, lang, all)

	span.SetAttributes(
		attribute.Int("channels.attempted", len(external)),
		attribute.Int("channels.suppressed", len(sel.Suppressed)),
		attribute.Bool("success", out.Success),
	)
	return out
}

func (d *Dispatcher) attempt(ctx context.Context, n *notification.Notification, u *user.User, p *preference.Preferences, ch notification.Channel, c Content) delivery.Result {
	res := delivery.Result{Channel: ch}

	contact, skip := d.target(u, p, ch)
	if skip != "" {
		res.Skipped = skip
		return res
	}
	res.Contact = contact

	claimed := false
	if d.guard != nil {
		ok, err := d.guard.Claim(ctx, n.ID, u.ID, ch.String())
		switch {
		case err != nil:
			obs.WithTrace(ctx, d.log).Warn("dedupe claim failed, sending anyway",
				zap.Stringer("channel", ch), zap.Int64("user_id", u.ID), zap.Error(err))
		case !ok:
			res.Skipped = delivery.SkipDuplicate
			return res
		default:
			claimed = true
		}
	}

	start := time.Now()
	sr, err := d.send(ctx, n, p, ch, contact, c)
	mSendLatency.WithLabelValues(ch.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		res.Error = err.Error()
		if claimed {
			if rerr := d.guard.Release(ctx, n.ID, u.ID, ch.String()); rerr != nil {
				obs.WithTrace(ctx, d.log).Warn("dedupe release failed", zap.Stringer("channel", ch), zap.Error(rerr))
			}
		}
		if errors.Is(err, delivery.ErrSubscriptionExpired) {
			d.prefs.ClearPushSubscription(ctx, u.ID, n.TenantID)
		}
		obs.WithTrace(ctx, d.log).Warn("channel send failed",
			zap.Int64("notification_id", n.ID),
			zap.Int64("user_id", u.ID),
			zap.Stringer("channel", ch),
			zap.Error(err))
		return res
	}
	res.Success = true
	res.ProviderMessageID = sr.MessageID
	return res
}

// target picks the address for ch. A channel without a sender or without a
// contact on file is skipped rather than failed.
func (d *Dispatcher) target(u *user.User, p *preference.Preferences, ch notification.Channel) (string, delivery.SkipReason) {
	switch ch {
	case notification.ChannelEmail:
		if d.email == nil {
			return "", delivery.SkipNotConfigured
		}
		if u.Email == "" {
			return "", delivery.SkipNoContact
		}
		return u.Email, ""

	case notification.ChannelSMS:
		if d.sms == nil {
			return "", delivery.SkipNotConfigured
		}
		switch {
		case p.Phone != nil && *p.Phone != "":
			return *p.Phone, ""
		case u.Phone != nil && *u.Phone != "":
			return *u.Phone, ""
		}
		return "", delivery.SkipNoContact

	case notification.ChannelPush:
		if d.push == nil {
			return "", delivery.SkipNotConfigured
		}
		if !p.HasPushSubscription() {
			return "", delivery.SkipNoContact
		}
		return "", ""
	}
	return "", ""
}

func (d *Dispatcher) send(ctx context.Context, n *notification.Notification, p *preference.Preferences, ch notification.Channel, contact string, c Content) (delivery.SendResult, error) {
	switch ch {
	case notification.ChannelEmail:
		return d.email.SendEmail(ctx, delivery.EmailMessage{
			To:       contact,
			Subject:  c.Subject,
			HTML:     c.HTML,
			Text:     c.Text,
			Language: c.Language,
			Priority: n.Priority,
		})
	case notification.ChannelSMS:
		return d.sms.SendSMS(ctx, delivery.SMSMessage{To: contact, Body: c.SMS})
	case notification.ChannelPush:
		return d.push.SendPush(ctx, delivery.PushMessage{
			Subscription: p.PushSubscription,
			Title:        c.PushTitle,
			Body:         c.PushBody,
			URL:          c.URL,
			Priority:     n.Priority,
			Language:     c.Language,
		})
	}
	return delivery.SendResult{}, fmt.Errorf("%w: channel %s", notification.ErrUnknownValue, ch)
}

func (d *Dispatcher) location(ctx context.Context, tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		obs.WithTrace(ctx, d.log).Warn("unknown preference timezone, using UTC", zap.String("tz", tz), zap.Error(err))
		return time.UTC
	}
	return loc
}

func (d *Dispatcher) language(requested string, u *user.User) string {
	switch {
	case requested != "":
		return requested
	case u.Language != "":
		return u.Language
	}
	return d.lang
}
