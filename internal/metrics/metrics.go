package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	videosTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_videos_total",
		Help: "Total number of video summaries in database",
	})

	webhookDispatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_webhook_dispatches_total",
		Help: "Total number of outbound webhook dispatches",
	}, []string{"event", "result"})

	webhookDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_webhook_duration_seconds",
		Help:    "Duration of outbound webhook calls in seconds",
		Buckets: prometheus.DefBuckets,
	})

	errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_errors_total",
		Help: "Total number of errors",
	}, []string{"type"})

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"route", "status"})
)

// Dispatch results
const (
	ResultSuccess      = "success"
	ResultFailed       = "failed"
	ResultUnconfigured = "unconfigured"
)

func init() {
	prometheus.MustRegister(videosTotal)
	prometheus.MustRegister(webhookDispatchesTotal)
	prometheus.MustRegister(webhookDurationSeconds)
	prometheus.MustRegister(errorsTotal)
	prometheus.MustRegister(httpRequestsTotal)
}

// UpdateVideoCount updates the videos_total metric
func UpdateVideoCount(count int64) {
	videosTotal.Set(float64(count))
}

// RecordDispatch records the result of a webhook dispatch
func RecordDispatch(event, result string) {
	webhookDispatchesTotal.WithLabelValues(event, result).Inc()
}

// RecordDispatchDuration records the duration of an outbound webhook call
func RecordDispatchDuration(duration time.Duration) {
	webhookDurationSeconds.Observe(duration.Seconds())
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}

// RecordRequest records a served HTTP request
func RecordRequest(route string, status int) {
	httpRequestsTotal.WithLabelValues(route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
