package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ConsentDecisions     *prometheus.CounterVec
	ConsentPromptsShown  prometheus.Counter
	ConsentStoreErrors   *prometheus.CounterVec
	FormSubmissions      *prometheus.CounterVec
	FormValidationErrors *prometheus.CounterVec
	ActiveSessions       *prometheus.GaugeVec
	HTTPLatency          *prometheus.HistogramVec
}

// New creates and registers all metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ConsentDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sapid_consent_decisions_total",
			Help: "Consent decisions persisted, by decision kind",
		}, []string{"decision"}),
		ConsentPromptsShown: f.NewCounter(prometheus.CounterOpts{
			Name: "sapid_consent_prompts_shown_total",
			Help: "Visitors initialized without a recorded consent blob",
		}),
		ConsentStoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sapid_consent_store_errors_total",
			Help: "Preference store failures, by operation",
		}, []string{"op"}),
		FormSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sapid_form_submissions_total",
			Help: "Form submissions that passed validation, by form kind",
		}, []string{"form"}),
		FormValidationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sapid_form_validation_failures_total",
			Help: "Validation passes that reported at least one field error, by form kind",
		}, []string{"form"}),
		ActiveSessions: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sapid_active_sessions",
			Help: "In-memory consent and form instances",
		}, []string{"kind"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sapid_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// IncConsentDecision counts a persisted consent decision. Safe on nil.
func (m *Metrics) IncConsentDecision(decision string) {
	if m == nil {
		return
	}
	m.ConsentDecisions.WithLabelValues(decision).Inc()
}

// IncConsentPrompt counts a first-visit prompt. Safe on nil.
func (m *Metrics) IncConsentPrompt() {
	if m == nil {
		return
	}
	m.ConsentPromptsShown.Inc()
}

// IncConsentStoreError counts a preference store failure. Safe on nil.
func (m *Metrics) IncConsentStoreError(op string) {
	if m == nil {
		return
	}
	m.ConsentStoreErrors.WithLabelValues(op).Inc()
}

// IncFormSubmission counts an accepted submission. Safe on nil.
func (m *Metrics) IncFormSubmission(form string) {
	if m == nil {
		return
	}
	m.FormSubmissions.WithLabelValues(form).Inc()
}

// IncFormValidationFailure counts a failed validation pass. Safe on nil.
func (m *Metrics) IncFormValidationFailure(form string) {
	if m == nil {
		return
	}
	m.FormValidationErrors.WithLabelValues(form).Inc()
}

// SetActiveSessions records the size of a session registry. Safe on nil.
func (m *Metrics) SetActiveSessions(kind string, n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.WithLabelValues(kind).Set(float64(n))
}

// ObserveHTTP records request latency. Safe on nil.
func (m *Metrics) ObserveHTTP(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPLatency.WithLabelValues(route, method, status).Observe(seconds)
}
