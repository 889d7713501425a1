package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecordSessionStart_IncrementsCounter(t *testing.T) {
	labels := map[string]string{"outcome": "test-outcome-start"}

	before := getCounterValue(t, "musify_session_starts_total", labels)
	RecordSessionStart("test-outcome-start")
	after := getCounterValue(t, "musify_session_starts_total", labels)

	require.Equal(t, before+1, after)
}

func TestRecordCacheResult_SplitsHitAndMiss(t *testing.T) {
	hitLabels := map[string]string{"cache": "test-cache-split", "outcome": "hit"}
	missLabels := map[string]string{"cache": "test-cache-split", "outcome": "miss"}

	RecordCacheResult("test-cache-split", true)
	RecordCacheResult("test-cache-split", false)
	RecordCacheResult("test-cache-split", false)

	require.Equal(t, 1.0, getCounterValue(t, "musify_cache_requests_total", hitLabels))
	require.Equal(t, 2.0, getCounterValue(t, "musify_cache_requests_total", missLabels))
}

func TestSetCircuitBreakerState_SetsExactlyOneStateHigh(t *testing.T) {
	SetCircuitBreakerState("test-resource", "open")

	require.Equal(t, 0.0, getGaugeValue(t, "musify_circuit_breaker_state", map[string]string{"resource": "test-resource", "state": "closed"}))
	require.Equal(t, 0.0, getGaugeValue(t, "musify_circuit_breaker_state", map[string]string{"resource": "test-resource", "state": "half_open"}))
	require.Equal(t, 1.0, getGaugeValue(t, "musify_circuit_breaker_state", map[string]string{"resource": "test-resource", "state": "open"}))
}

func getCounterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	mf := findMetricFamily(t, name)
	for _, m := range mf.Metric {
		if labelsMatch(m.GetLabel(), labels) {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func getGaugeValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	mf := findMetricFamily(t, name)
	for _, m := range mf.Metric {
		if labelsMatch(m.GetLabel(), labels) {
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func findMetricFamily(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return &dto.MetricFamily{}
}

func labelsMatch(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) != len(want) {
		return false
	}
	for _, lp := range got {
		if v, ok := want[lp.GetName()]; !ok || v != lp.GetValue() {
			return false
		}
	}
	return true
}
