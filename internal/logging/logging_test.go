package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNewJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New("info", "json", &buf), "sweeper")
	log.Info().Int64("user_id", 7).Msg("delivered")
	log.Debug().Msg("filtered out")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "sweeper", entry["component"])
	assert.Equal(t, "delivered", entry["message"])
	assert.Equal(t, float64(7), entry["user_id"])
}

func TestCronLoggerWritesErrors(t *testing.T) {
	var buf bytes.Buffer
	cl := NewCronLogger(New("info", "json", &buf))

	cl.Info("wake", "now", "soon")
	assert.Empty(t, buf.String(), "cron info goes to debug")

	cl.Error(errors.New("boom"), "panic", "entry", 3)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "boom", entry["err"])
	assert.Equal(t, "cron", entry["component"])
	assert.Equal(t, float64(3), entry["entry"])
}
