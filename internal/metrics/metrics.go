// Package metrics provides Prometheus instrumentation for the auth flows.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the interface the use case layer records through, keeping it
// decoupled from the Prometheus client.
type Recorder interface {
	RecordLoginInitiated(provider string)
	RecordLoginSucceeded(provider string, newUser bool)
	RecordLoginFailed(provider string, reason string)
	RecordExchangeLatency(provider string, duration time.Duration)
	RecordSessionValidation(outcome string)
	RecordSessionsCleaned(count int64)
}

// Collector implements Recorder on top of a Prometheus registry.
type Collector struct {
	loginInitiated     *prometheus.CounterVec
	loginSucceeded     *prometheus.CounterVec
	loginFailed        *prometheus.CounterVec
	exchangeLatency    *prometheus.HistogramVec
	sessionValidations *prometheus.CounterVec
	sessionsCleaned    prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_initiated_total",
			Help: "Login attempts started, by provider.",
		}, []string{"provider"}),
		loginSucceeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_succeeded_total",
			Help: "Completed logins, by provider and whether a new user was created.",
		}, []string{"provider", "new_user"}),
		loginFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_failed_total",
			Help: "Failed logins, by provider and failure reason.",
		}, []string{"provider", "reason"}),
		exchangeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auth_exchange_latency_seconds",
			Help:    "Latency of the provider code exchange in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		sessionValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_session_validation_total",
			Help: "Session validations, by outcome (valid, refreshed, expired, missing).",
		}, []string{"outcome"}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_sessions_cleaned_total",
			Help: "Expired sessions removed by the cleanup job.",
		}),
	}

	reg.MustRegister(
		c.loginInitiated,
		c.loginSucceeded,
		c.loginFailed,
		c.exchangeLatency,
		c.sessionValidations,
		c.sessionsCleaned,
	)

	return c
}

// RecordLoginInitiated counts a login attempt start.
func (c *Collector) RecordLoginInitiated(provider string) {
	c.loginInitiated.WithLabelValues(provider).Inc()
}

// RecordLoginSucceeded counts a completed login.
func (c *Collector) RecordLoginSucceeded(provider string, newUser bool) {
	label := "false"
	if newUser {
		label = "true"
	}
	c.loginSucceeded.WithLabelValues(provider, label).Inc()
}

// RecordLoginFailed counts a failed login.
func (c *Collector) RecordLoginFailed(provider string, reason string) {
	c.loginFailed.WithLabelValues(provider, reason).Inc()
}

// RecordExchangeLatency observes the duration of a provider code exchange.
func (c *Collector) RecordExchangeLatency(provider string, duration time.Duration) {
	c.exchangeLatency.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordSessionValidation counts a session validation outcome.
func (c *Collector) RecordSessionValidation(outcome string) {
	c.sessionValidations.WithLabelValues(outcome).Inc()
}

// RecordSessionsCleaned counts sessions removed by the cleanup job.
func (c *Collector) RecordSessionsCleaned(count int64) {
	if count > 0 {
		c.sessionsCleaned.Add(float64(count))
	}
}
