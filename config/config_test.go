// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "mailbox.yaml")

	content := `environment: staging
mailbox:
  oobi_path: /var/lib/mailbox/oobis.json
  public_url: https://mailbox.example.com
  http_port: 9191
watcher:
  oobi: https://watcher.example.com/oobi
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "/var/lib/mailbox/oobis.json", cfg.Mailbox.OobiPath)
	assert.Equal(t, 9191, cfg.Mailbox.HTTPPort)
	assert.Equal(t, "https://watcher.example.com/oobi", cfg.Watcher.OobiURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Defaults still apply to fields the file didn't set.
	assert.Equal(t, "./data/mailbox.db", cfg.Mailbox.DBPath)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile_JSONFallback(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "mailbox.json")
	content := `{"environment":"production","mailbox":{"http_port":7000}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 7000, cfg.Mailbox.HTTPPort)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "roundtrip.yaml")

	cfg := &Config{Environment: "test"}
	setDefaults(cfg)
	cfg.Mailbox.PublicURL = "https://example.com"

	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", loaded.Mailbox.PublicURL)
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Mailbox.HTTPPort)
	assert.Equal(t, "MAILBOX_KEY_PASSPHRASE", cfg.KeyStore.PassphraseEnv)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "/healthz", cfg.Health.Path)
}
