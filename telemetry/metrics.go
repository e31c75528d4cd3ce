// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	SyntheticMessages prometheus.Counter
	PriorityMessages  prometheus.Counter
	TipsReceived      prometheus.Counter
	SessionsCreated   prometheus.Counter
	SessionsExpired   prometheus.Counter
	UploadsSucceeded  prometheus.Counter
	UploadsFailed     prometheus.Counter

	// Histograms
	UploadDuration prometheus.Observer
	TipAmountSats  prometheus.Observer

	// Gauges
	ActiveSessionsGauge  prometheus.Gauge
	FeedSubscribersGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		SyntheticMessages = promauto.NewCounter(prometheus.CounterOpts{Name: "streamroom_chat_synthetic_messages_total", Help: "Number of synthetic chat messages injected"})
		PriorityMessages = promauto.NewCounter(prometheus.CounterOpts{Name: "streamroom_chat_priority_messages_total", Help: "Number of priority (tip confirmation) chat messages appended"})
		TipsReceived = promauto.NewCounter(prometheus.CounterOpts{Name: "streamroom_tips_total", Help: "Number of confirmed tips recorded"})
		SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{Name: "streamroom_sessions_created_total", Help: "Number of chat sessions created"})
		SessionsExpired = promauto.NewCounter(prometheus.CounterOpts{Name: "streamroom_sessions_expired_total", Help: "Number of chat sessions reaped by the idle janitor"})
		UploadsSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "streamroom_uploads_succeeded_total", Help: "Number of file uploads stored"})
		UploadsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "streamroom_uploads_failed_total", Help: "Number of file uploads rejected or failed"})
		UploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "streamroom_upload_duration_seconds", Help: "Upload handling duration seconds", Buckets: prometheus.DefBuckets})
		TipAmountSats = promauto.NewHistogram(prometheus.HistogramOpts{Name: "streamroom_tip_amount_sats", Help: "Distribution of tip amounts in satoshis", Buckets: prometheus.ExponentialBuckets(10, 4, 8)})
		ActiveSessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "streamroom_active_sessions", Help: "Current number of live chat sessions"})
		FeedSubscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "streamroom_feed_subscribers", Help: "Current number of live chat feed subscribers (SSE + WebSocket)"})
	})
}

// IncCounter increments a counter if metrics are initialized.
func IncCounter(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// Observe records a value in an observer if metrics are initialized.
func Observe(o prometheus.Observer, v float64) {
	if o != nil {
		o.Observe(v)
	}
}

// SetActiveSessions records the current live session count.
func SetActiveSessions(n int) {
	if ActiveSessionsGauge != nil {
		ActiveSessionsGauge.Set(float64(n))
	}
}

// AddFeedSubscribers adjusts the live feed subscriber gauge by delta.
func AddFeedSubscribers(delta int) {
	if FeedSubscribersGauge != nil {
		FeedSubscribersGauge.Add(float64(delta))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
