package monitoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.RecordPaths("sweep", 100, 7)
	m.RecordPaths("sweep", 50, 3)
	m.SetSweepProgress("sweep", 4)
	m.RecordError("DATA")

	assert.Equal(t, 150.0, testutil.ToFloat64(m.pathsTotal.WithLabelValues("sweep")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.ruinedPaths.WithLabelValues("sweep")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sweepPoints.WithLabelValues("sweep")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("DATA")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordPaths("x", 1, 1)
		m.SetSweepProgress("x", 1)
		m.ObserveDuration("x", time.Second)
		m.RecordError("x")
		_ = m.WriteTextfile("ignored")
	})
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveDuration("heatmap", 20*time.Millisecond)
	m.RecordPaths("bootstrap", 1000, 0)

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, m.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "sizing_lab_simulated_paths_total{analysis=\"bootstrap\"} 1000")
	assert.Contains(t, string(content), "sizing_lab_point_duration_seconds_count{analysis=\"heatmap\"} 1")
}
