package stats

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 节点自己的 Prometheus 注册表
var Registry = prometheus.NewRegistry()

var (
	vaultRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "vm",
			Name:      "requests_total",
			Help:      "Total number of executed vault requests by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	vaultDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vault",
			Subsystem: "vm",
			Name:      "request_duration_seconds",
			Help:      "Duration of vault request execution including commit.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
		},
		[]string{"kind"},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of vault events handed to the emitter.",
		},
		[]string{"type"},
	)

	eventPublishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "events",
			Name:      "publish_failures_total",
			Help:      "Emitter failures after a committed state change.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"route", "status"},
	)

	httpRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vault",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		},
	)
)

func init() {
	Registry.MustRegister(
		vaultRequests,
		vaultDuration,
		eventsPublished,
		eventPublishFailures,
		httpRequests,
		httpRateLimited,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler 暴露 /metrics
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRequest 记录一次请求执行，outcome 为 "ok" 或错误类型
func RecordRequest(kind, outcome string, d time.Duration) {
	vaultRequests.WithLabelValues(kind, outcome).Inc()
	vaultDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordEventPublished 事件交给发布器
func RecordEventPublished(eventType string) {
	eventsPublished.WithLabelValues(eventType).Inc()
}

// RecordEventPublishFailure 发布失败（状态已提交，不回滚）
func RecordEventPublishFailure() {
	eventPublishFailures.Inc()
}

// RecordHTTP 记录一次 HTTP 请求
func RecordHTTP(route string, status int) {
	httpRequests.WithLabelValues(route, statusClass(status)).Inc()
}

// RecordRateLimited 被限流拒绝
func RecordRateLimited() {
	httpRateLimited.Inc()
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
