package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}

func TestNewSampler_FallsBackToAlwaysOn(t *testing.T) {
	assert.Contains(t, newSampler("0.25").Description(), "TraceIDRatioBased{0.25}")
	assert.Contains(t, newSampler("7").Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler("").Description(), "AlwaysOnSampler")
}

func TestNewLogger_TagsServiceAndRespectsLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogFormat, "")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := newLogger(&buf, "pos-api")
	logger.Info("dropped")
	logger.Warn("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "pos-api", entry["service"])
}

func TestServiceAttributes(t *testing.T) {
	t.Setenv(EnvServiceVersion, "1.4.0")
	t.Setenv(EnvEnvironment, "")
	attrs := attribute.NewSet(serviceAttributes("pos-worker")...)

	v, ok := attrs.Value("service.version")
	require.True(t, ok)
	assert.Equal(t, "1.4.0", v.AsString())
	v, _ = attrs.Value("deployment.environment")
	assert.Equal(t, "local", v.AsString())
}

func TestComponentLogger_NilInstruments(t *testing.T) {
	var i *Instruments
	assert.NotNil(t, i.Component("relay"))
}
