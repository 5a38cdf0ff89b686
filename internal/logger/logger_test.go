package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "debug", false)
	require.NoError(t, err)

	botLog := Component(log, "bot")
	botLog.Info().Int("user_id", 7).Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "bot", entry["component"])
	require.Equal(t, "hello", entry["message"])
	require.Equal(t, "info", entry["level"])
	require.EqualValues(t, 7, entry["user_id"])
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn", false)
	require.NoError(t, err)

	log.Info().Msg("dropped")
	require.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, lvl)

	lvl, err = ParseLevel(" ERROR ")
	require.NoError(t, err)
	require.Equal(t, zerolog.ErrorLevel, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}
