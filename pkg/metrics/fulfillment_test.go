package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestFulfillmentMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewFulfillmentMetrics(reg)

	metrics.IncMovements("ORDER", 3)
	metrics.IncPicksStarted()
	metrics.IncPicksCompleted()
	metrics.ObservePickDuration(400 * time.Millisecond)
	metrics.IncConflictRetries()
	metrics.IncShortfallRejections()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "inventory_movements_applied", "source_type", "ORDER"); err != nil {
		t.Fatalf("fetch movements: %v", err)
	} else if got != 3 {
		t.Fatalf("expected movements=3, got %f", got)
	}

	for _, name := range []string{
		"order_picks_started",
		"order_picks_completed",
		"stock_write_conflict_retries",
		"stock_shortfall_rejections",
	} {
		if got, err := fetchScalarCounter(mfs, name); err != nil {
			t.Fatalf("fetch %s: %v", name, err)
		} else if got != 1 {
			t.Fatalf("expected %s=1, got %f", name, got)
		}
	}

	mf := findMetricFamily(mfs, "order_pick_duration_seconds")
	if mf == nil {
		t.Fatal("pick duration histogram not found")
	}
	if sum := mf.GetMetric()[0].GetHistogram().GetSampleSum(); sum <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", sum)
	}
}

func TestFulfillmentMetricsNilRegisterer(t *testing.T) {
	metrics := NewFulfillmentMetrics(nil)

	// all recorders must be no-ops without panicking
	metrics.IncMovements("MANUAL", 1)
	metrics.IncPicksStarted()
	metrics.IncPicksCompleted()
	metrics.ObservePickDuration(time.Second)
	metrics.IncConflictRetries()
	metrics.IncShortfallRejections()
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

func fetchScalarCounter(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	if len(mf.GetMetric()) == 0 {
		return 0, fmt.Errorf("metric %q has no samples", name)
	}
	return mf.GetMetric()[0].GetCounter().GetValue(), nil
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
