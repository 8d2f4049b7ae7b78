package main

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/core"
)

func TestWriteMetricsKeepsEveryFamilyType(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder, err := core.NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)
	recorder.Observe(t.Context(), "claim_item", false, 0)

	open := prometheus.NewGauge(prometheus.GaugeOpts{Name: "lostfound_items_unclaimed", Help: "Unclaimed items."})
	open.Set(3)
	latency := prometheus.NewSummary(prometheus.SummaryOpts{Name: "lostfound_export_seconds", Help: "Export latency."})
	latency.Observe(0.5)
	reg.MustRegister(open, latency)

	var out bytes.Buffer
	a := &app{registry: reg}
	require.NoError(t, a.writeMetrics(&out))
	text := out.String()
	assert.Contains(t, text, `lostfound_service_operations_total{operation="claim_item",status="error"} 1`)
	assert.Contains(t, text, "# TYPE lostfound_items_unclaimed gauge\nlostfound_items_unclaimed 3\n")
	assert.Contains(t, text, "lostfound_export_seconds_count 1")
	assert.Contains(t, text, "lostfound_export_seconds_sum 0.5")
}

func TestWriteMetricsExpvarSnapshot(t *testing.T) {
	a := &app{expvar: core.NewExpvarMetricsRecorder("")}
	a.expvar.Observe(t.Context(), "register_item", true, 0)
	var out bytes.Buffer
	require.NoError(t, a.writeMetrics(&out))
	assert.Contains(t, out.String(), `"register_item"`)

	out.Reset()
	require.NoError(t, (&app{}).writeMetrics(&out))
	assert.Empty(t, out.String())
}
