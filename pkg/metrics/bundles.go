package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Save outcomes.
const (
	SaveOutcomeSaved          = "saved"
	SaveOutcomeInvalid        = "invalid"
	SaveOutcomeHeaderFailed   = "header_failed"
	SaveOutcomePartiallySaved = "partially_saved"
	SaveOutcomeError          = "error"
)

// BundleMetrics records composer activity. A nil *BundleMetrics is a no-op.
type BundleMetrics struct {
	saves      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	violations *prometheus.CounterVec
	edits      *prometheus.CounterVec
}

// NewBundleMetrics registers the bundle metrics on the provided registerer.
func NewBundleMetrics(reg prometheus.Registerer) *BundleMetrics {
	if reg == nil {
		return &BundleMetrics{}
	}
	saves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bundle_save_total",
		Help: "Bundle save attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bundle_save_duration_seconds",
		Help:    "Duration of bundle saves in seconds, including item retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	violations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bundle_violations_total",
		Help: "Validation violations reported on save.",
	}, []string{"code"})
	edits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bundle_draft_edits_total",
		Help: "Draft edit operations applied.",
	}, []string{"op"})
	reg.MustRegister(saves, duration, violations, edits)
	return &BundleMetrics{
		saves:      saves,
		duration:   duration,
		violations: violations,
		edits:      edits,
	}
}

// ObserveSave counts one save attempt and its duration.
func (m *BundleMetrics) ObserveSave(outcome string, took time.Duration) {
	if m == nil || m.saves == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.saves.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(took.Seconds())
}

func (m *BundleMetrics) IncViolation(code string) {
	if m == nil || m.violations == nil {
		return
	}
	m.violations.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *BundleMetrics) IncEdit(op string) {
	if m == nil || m.edits == nil {
		return
	}
	m.edits.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
