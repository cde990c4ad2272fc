package observability

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown", "key", "value")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"key":"value"`)
}

func TestNewLoggerDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "bogus", Format: "bogus"}, &buf)
	logger.Debug("hidden at default level")
	assert.Empty(t, buf.String())
	logger.Info("text output")
	assert.Contains(t, buf.String(), "text output")
	assert.True(t, logger.Enabled(nil, slog.LevelInfo))
}

func TestMetricsRecording(t *testing.T) {
	m := NewMetrics()

	m.RecordDiscrepancy("traverse")
	m.RecordDiscrepancy("traverse")
	m.RecordShadowError("create_node")
	m.RecordOperation("sqlite", "create_node", "ok")
	m.RecordOperation("sqlite", "create_node", "ok")
	m.RecordOperation("sqlite", "get_node", "NOT_FOUND")
	m.ObserveDetection(50*time.Millisecond, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GraphOperations.WithLabelValues("sqlite", "create_node", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GraphOperations.WithLabelValues("sqlite", "get_node", "NOT_FOUND")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ParityDiscrepancies.WithLabelValues("traverse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ShadowErrors.WithLabelValues("create_node")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EntitiesDetected))

	require.NotNil(t, m.Handler())
}
