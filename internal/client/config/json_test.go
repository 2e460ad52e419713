package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestParseJson_StringDuration(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_endpoint_addr": "10.0.0.1:7000",
		"database_path":        "cache.db",
		"request_timeout":      "2s",
	})

	cfg := &Config{}
	parseJson(cfg, []string{"-config", path})

	assert.Equal(t, "10.0.0.1:7000", cfg.ServerEndpointAddr)
	assert.Equal(t, "cache.db", cfg.DatabasePath)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestParseJson_NanosecondsAndPartialFile(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"request_timeout": int64(500 * time.Millisecond)})

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, []string{"-c", path})

	assert.Equal(t, "127.0.0.1:50051", cfg.ServerEndpointAddr)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestTimeout)
}

func TestParseJson_NoFlagNoop(t *testing.T) {
	cfg := &Config{ServerEndpointAddr: "keep"}
	parseJson(cfg, []string{"-a", "other"})
	assert.Equal(t, "keep", cfg.ServerEndpointAddr)
}

func TestParseJson_Panics(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")
	assert.Panics(t, func() { parseJson(&Config{}, []string{"-c", missing}) })

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	assert.Panics(t, func() { parseJson(&Config{}, []string{"-c", bad}) })
}
