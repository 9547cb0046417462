// Package metrics exposes the Prometheus collectors for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth attempt results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Collector holds every metric the service records. A nil *Collector is
// valid and records nothing, which keeps handler tests free of registries.
type Collector struct {
	authAttempts      *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      prometheus.Histogram
	recurringCreated  prometheus.Counter
	rateLimitRejected *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_auth_attempts_total",
			Help: "Authentication attempts by method and result.",
		}, []string{"method", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_http_requests_total",
			Help: "HTTP responses by status code.",
		}, []string{"status"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "finance_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		recurringCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finance_recurring_transactions_created_total",
			Help: "Transactions materialized from recurring templates.",
		}),
		rateLimitRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finance_rate_limit_rejected_total",
			Help: "Requests rejected by the auth rate limiter, by route.",
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.httpRequests,
		c.httpDuration,
		c.recurringCreated,
		c.rateLimitRejected,
	)

	return c
}

// RecordAuthAttempt counts a login, registration, google or refresh attempt.
func (c *Collector) RecordAuthAttempt(method, result string) {
	if c == nil {
		return
	}
	c.authAttempts.WithLabelValues(method, result).Inc()
}

func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordRecurringCreated(count int) {
	if c == nil || count <= 0 {
		return
	}
	c.recurringCreated.Add(float64(count))
}

func (c *Collector) RecordRateLimited(route string) {
	if c == nil {
		return
	}
	c.rateLimitRejected.WithLabelValues(route).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
