package orchestrator

import (
	"context"

	"github.com/NordCoder/Lessonbell/internal/domain/preference"
	"github.com/NordCoder/Lessonbell/internal/obs"
	"go.uber.org/zap"
)

type PreferenceResolver struct {
	repo preference.Repo
	log  *zap.Logger
}

func NewPreferenceResolver(repo preference.Repo, log *zap.Logger) *PreferenceResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &PreferenceResolver{repo: repo, log: log.With(zap.String("component", "orchestrator.preferences"))}
}

// Resolve never fails: a missing row or a store error yields the defaults.
// Store errors are logged since they hide a data-layer problem.
func (r *PreferenceResolver) Resolve(ctx context.Context, userID, tenantID int64) preference.Preferences {
	if r.repo == nil {
		return preference.Defaults(userID, tenantID)
	}
	p, err := r.repo.Get(ctx, userID, tenantID)
	if err != nil {
		mPrefFallback.WithLabelValues("error").Inc()
		obs.WithTrace(ctx, r.log).Warn("preferences unavailable, using defaults",
			zap.Int64("user_id", userID), zap.Int64("tenant_id", tenantID), zap.Error(err))
		return preference.Defaults(userID, tenantID)
	}
	if p == nil {
		mPrefFallback.WithLabelValues("missing").Inc()
		return preference.Defaults(userID, tenantID)
	}
	return *p
}

// ClearPushSubscription is fire-and-forget; setting null twice is harmless.
func (r *PreferenceResolver) ClearPushSubscription(ctx context.Context, userID, tenantID int64) {
	if r.repo == nil {
		return
	}
	if err := r.repo.ClearPushSubscription(ctx, userID, tenantID); err != nil {
		mPushCleared.WithLabelValues("error").Inc()
		obs.WithTrace(ctx, r.log).Warn("clear push subscription",
			zap.Int64("user_id", userID), zap.Int64("tenant_id", tenantID), zap.Error(err))
		return
	}
	mPushCleared.WithLabelValues("ok").Inc()
	r.log.Info("expired push subscription cleared", zap.Int64("user_id", userID))
}
