// Package observability exposes Prometheus metrics for the store, the
// content auditor and the moderation workflow.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// Metrics implements storage.Observer and moderation.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	audits      *prometheus.CounterVec
	auditIssues *prometheus.CounterVec
	submissions *prometheus.CounterVec
	transitions *prometheus.CounterVec
	storeOps    *prometheus.HistogramVec
	storeErrors *prometheus.CounterVec
	retries     *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg selects the
// process-wide default registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	f := promauto.With(registerer)

	return &Metrics{
		gatherer: gatherer,
		audits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studyvault_audit_total",
			Help: "Audited payloads by content type and verdict",
		}, []string{"content_type", "result"}),
		auditIssues: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studyvault_audit_issues_total",
			Help: "Audit findings by severity",
		}, []string{"severity"}),
		submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studyvault_submissions_total",
			Help: "Dataset submissions by content type and outcome",
		}, []string{"content_type", "result"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studyvault_inbox_transitions_total",
			Help: "Inbox transitions by target status and outcome",
		}, []string{"to", "result"}),
		storeOps: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studyvault_store_op_duration_seconds",
			Help:    "Store operation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"op"}),
		storeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studyvault_store_errors_total",
			Help: "Failed store operations",
		}, []string{"op"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studyvault_store_retries_total",
			Help: "Optimistic write retries by document kind",
		}, []string{"key_kind"}),
	}
}

// ObserveStoreOp records the latency of one store operation.
func (m *Metrics) ObserveStoreOp(op string, d time.Duration, err error) {
	m.storeOps.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.storeErrors.WithLabelValues(op).Inc()
	}
}

// ObserveStoreRetry counts a version-conflict retry.
func (m *Metrics) ObserveStoreRetry(keyKind string) {
	m.retries.WithLabelValues(keyKind).Inc()
}

// ObserveAudit counts an audit verdict and its findings.
func (m *Metrics) ObserveAudit(ct domain.ContentType, report domain.AuditReport) {
	result := "pass"
	if !report.OverallPass {
		result = "fail"
	}
	m.audits.WithLabelValues(ct.String(), result).Inc()
	for _, is := range report.Issues {
		m.auditIssues.WithLabelValues(is.Severity.String()).Inc()
	}
}

// ObserveSubmission counts a submission outcome.
func (m *Metrics) ObserveSubmission(ct domain.ContentType, result string) {
	m.submissions.WithLabelValues(ct.String(), result).Inc()
}

// ObserveTransition counts an inbox transition outcome.
func (m *Metrics) ObserveTransition(to domain.InboxStatus, result string) {
	m.transitions.WithLabelValues(string(to), result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
