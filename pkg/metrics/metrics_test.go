package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestBundleMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBundleMetrics(reg)
	m.ObserveSave(SaveOutcomeSaved, 250*time.Millisecond)
	m.ObserveSave(SaveOutcomeSaved, 10*time.Millisecond)
	m.IncViolation("too_few_items")
	m.IncEdit("add_item")
	m.IncEdit("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "bundle_save_total", "outcome", SaveOutcomeSaved); err != nil {
		t.Fatalf("fetch saves: %v", err)
	} else if got != 2 {
		t.Fatalf("expected saves=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "bundle_violations_total", "code", "too_few_items"); err != nil || got != 1 {
		t.Fatalf("expected one violation, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "bundle_draft_edits_total", "op", "unknown"); err != nil || got != 1 {
		t.Fatalf("blank op should be labeled unknown, got %f (%v)", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "bundle_save_duration_seconds", "outcome", SaveOutcomeSaved); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0.25 {
		t.Fatalf("expected duration sum > 0.25, got %f", got)
	}
}

func TestOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("bundle_saved")
	m.IncFailed("bundle_saved")
	m.IncTerminal("bundle_deleted")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for name, label := range map[string]string{
		"outbox_published_total":        "bundle_saved",
		"outbox_publish_failures_total": "bundle_saved",
		"outbox_terminal_total":         "bundle_deleted",
	} {
		if got, err := fetchCounterValue(mfs, name, "event_type", label); err != nil || got != 1 {
			t.Fatalf("%s: expected 1, got %f (%v)", name, got, err)
		}
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var b *BundleMetrics
	b.ObserveSave(SaveOutcomeError, time.Second)
	b.IncViolation("x")
	b.IncEdit("x")
	NewBundleMetrics(nil).IncEdit("x")

	var o *OutboxMetrics
	o.IncPublished("x")
	NewOutboxMetrics(nil).IncTerminal("x")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
