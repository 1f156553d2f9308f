package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // WebhookOutcomes counts order webhook replies by outcome (OK, OK_DUP, IGNORED_*, HANDLED)
    WebhookOutcomes = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "order_webhook_outcomes_total", Help: "Order webhook replies by outcome."},
        []string{"outcome"},
    )
    // IdempotencyClaims counts claim attempts by backend strategy and result (claimed, duplicate, error)
    IdempotencyClaims = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "idempotency_claims_total", Help: "Idempotency claims by strategy and result."},
        []string{"strategy", "result"},
    )
    // NotifySends counts per-recipient notification results by channel and outcome
    NotifySends = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "notify_sends_total", Help: "Notification sends by channel and outcome."},
        []string{"channel", "outcome"},
    )
    // NotifyLatency tracks single send attempt latencies in milliseconds
    NotifyLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "notify_attempt_latency_ms", Help: "Notification attempt latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
        []string{"channel", "status"},
    )
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(WebhookOutcomes)
        Registry.MustRegister(IdempotencyClaims)
        Registry.MustRegister(NotifySends)
        Registry.MustRegister(NotifyLatency)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
