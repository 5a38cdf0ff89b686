package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mapEnv(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(mapEnv(nil))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, 60*time.Second, cfg.AnalysisTimeout)
	require.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	require.Equal(t, "lbp", cfg.TextureBackend)
	require.Equal(t, "leaf-reports", cfg.AzureContainer)
	require.Equal(t, 100, cfg.ArchiveCapacity)
	require.False(t, cfg.BotEnabled())
	require.True(t, cfg.HTTPEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(mapEnv(map[string]string{
		"TELEGRAM_TOKEN":     "secret",
		"HTTP_ADDR":          "",
		"ANALYSIS_TIMEOUT":   "5s",
		"TEXTURE_BACKEND":    "NONE",
		"ISOLATE_FOREGROUND": "true",
		"LOG_PRETTY":         "1",
	}))
	require.NoError(t, err)
	require.True(t, cfg.BotEnabled())
	require.False(t, cfg.HTTPEnabled())
	require.Equal(t, 5*time.Second, cfg.AnalysisTimeout)
	require.Equal(t, "none", cfg.TextureBackend)
	require.True(t, cfg.IsolateForeground)
	require.True(t, cfg.LogPretty)
}

func TestFromEnv_RequiresAnEntryPoint(t *testing.T) {
	_, err := FromEnv(mapEnv(map[string]string{"HTTP_ADDR": ""}))
	require.ErrorContains(t, err, "TELEGRAM_TOKEN")
}

func TestFromEnv_InvalidValues(t *testing.T) {
	_, err := FromEnv(mapEnv(map[string]string{"ANALYSIS_TIMEOUT": "soon"}))
	require.ErrorContains(t, err, "ANALYSIS_TIMEOUT")

	_, err = FromEnv(mapEnv(map[string]string{"MAX_UPLOAD_BYTES": "0"}))
	require.ErrorContains(t, err, "MAX_UPLOAD_BYTES")

	_, err = FromEnv(mapEnv(map[string]string{"TEXTURE_BACKEND": "glcm"}))
	require.ErrorContains(t, err, "TEXTURE_BACKEND")
}
