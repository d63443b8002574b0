package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var HttpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests received",
	},
	[]string{"endpoint", "status", "method"},
)

var HttpRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"endpoint", "method"},
)

var HttpRateLimitRejectionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "http_rate_limit_rejections_total",
		Help: "Total number of callable requests rejected due to rate limiting",
	},
)

// DispatchesTotal counts dispatcher invocations by outcome:
// sent, missing_fields, user_not_found, no_tokens, failed, skipped.
var DispatchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "push_dispatches_total",
		Help: "Total number of notification requests processed by the dispatcher",
	},
	[]string{"outcome"},
)

// DeviceSendsTotal counts per-device sends: success, invalid_token, failed.
var DeviceSendsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "push_device_sends_total",
		Help: "Total number of per-device push sends",
	},
	[]string{"status"},
)

var DeviceSendDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "push_device_send_duration_seconds",
		Help:    "Time taken by the push provider to accept one device message",
		Buckets: prometheus.DefBuckets,
	},
)

var InvalidTokensRemovedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "push_invalid_tokens_removed_total",
		Help: "Total number of device tokens pruned after invalid-token errors",
	},
)

var SweptNotificationsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "push_swept_notifications_total",
		Help: "Total number of expired notification requests deleted",
	},
)

var SweepFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "push_sweep_failures_total",
		Help: "Total number of failed retention sweeps",
	},
)

// TopicSendsTotal counts broadcast attempts by status: success, failed.
var TopicSendsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "push_topic_sends_total",
		Help: "Total number of topic broadcasts",
	},
	[]string{"status"},
)

// Register adds every collector to reg
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HttpRequestsTotal,
		HttpRequestDuration,
		HttpRateLimitRejectionsTotal,
		DispatchesTotal,
		DeviceSendsTotal,
		DeviceSendDuration,
		InvalidTokensRemovedTotal,
		SweptNotificationsTotal,
		SweepFailuresTotal,
		TopicSendsTotal,
	)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
