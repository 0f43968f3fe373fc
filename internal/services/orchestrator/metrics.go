package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mPrefFallback = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrator_preference_fallback_total",
		Help: "Preference lookups answered with defaults.",
	}, []string{"reason"})
	mPushCleared = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrator_push_subscription_cleared_total",
		Help: "Expired push subscriptions cleared.",
	}, []string{"result"})
	mAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrator_channel_attempts_total",
		Help: "Channel outcomes per user.",
	}, []string{"channel", "status"})
	mSendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orchestrator_channel_send_seconds",
		Help:    "Channel sender latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	mLogErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrator_delivery_log_errors_total",
		Help: "Delivery log writes that failed.",
	})
	mRecipients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrator_recipients_total",
		Help: "Recipients resolved across all runs.",
	})
	mBatchDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orchestrator_batch_duration_seconds",
		Help:    "Time to settle one batch.",
		Buckets: prometheus.DefBuckets,
	})
	mUsers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrator_users_total",
		Help: "Per-user dispatch outcomes.",
	}, []string{"result"})
	mTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestrator_triggers_total",
		Help: "Dispatch triggers by source and result.",
	}, []string{"source", "result"})
)
