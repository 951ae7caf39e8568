package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestWithMetricFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.WithComponent("aggregator").
		WithDevice("oem/dev:11").
		WithMetric("platform", 30).
		Info().Msg("metric computed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "aggregator", entry["component"])
	assert.Equal(t, "oem/dev:11", entry["fingerprint"])
	assert.Equal(t, "platform", entry["metric"])
	assert.Equal(t, 30.0, entry["api_level"])
	assert.Equal(t, "metric computed", entry["message"])
}

func TestDisabledLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "disabled", Format: "json", Output: &buf})
	log.Warn().Msg("should not appear")
	assert.Zero(t, buf.Len())
}
