package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vozgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Store.Kind)
	assert.Equal(t, 20, cfg.History.Limit)
	assert.False(t, cfg.Classifier.Strict)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9090"
  shutdown_timeout: 10s
store:
  kind: redis
  redis_addr: localhost:6379
  ttl: 1h
  redact: ["\\d{4,}"]
history:
  limit: 50
classifier:
  strict: true
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "redis", cfg.Store.Kind)
	assert.Equal(t, time.Hour, cfg.Store.TTL)
	assert.Equal(t, []string{`\d{4,}`}, cfg.Store.Redact)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.True(t, cfg.Classifier.Strict)
	assert.Equal(t, "*", cfg.Server.CORSOrigin, "unset keys keep defaults")

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "store:\n  kind: file\n")
	t.Setenv("VOZGRAPH_STORE_DIR", "/tmp/sessions")
	t.Setenv("VOZGRAPH_HISTORY_LIMIT", "7")
	t.Setenv("VOZGRAPH_CLASSIFIER_STRICT", "true")
	t.Setenv("VOZGRAPH_MAX_INPUT_SIZE", "99")
	t.Setenv("VOZGRAPH_STORE_REDACT", `[0-9]+,secreto`)
	t.Setenv("VOZGRAPH_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store.Kind)
	assert.Equal(t, "/tmp/sessions", cfg.Store.Dir)
	assert.Equal(t, 7, cfg.History.Limit)
	assert.True(t, cfg.Classifier.Strict)
	assert.Equal(t, []string{`[0-9]+`, "secreto"}, cfg.Store.Redact)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 1024, cfg.Input.MaxSize, "malformed variable names are ignored")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown store", "store:\n  kind: postgres\n"},
		{"redis without addr", "store:\n  kind: redis\n"},
		{"unknown key", "server:\n  port: 80\n"},
		{"short key", "store:\n  encryption_key: abcd\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"negative limit", "history:\n  limit: -1\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"bad yaml", "store: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestStoreConfig_Keys(t *testing.T) {
	key := strings.Repeat("ab", 32)
	s := StoreConfig{EncryptionKey: key, FallbackKeys: []string{strings.Repeat("01", 32)}}

	active, fallback, err := s.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Len(t, fallback, 1)

	active, fallback, err = StoreConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallback)
}
