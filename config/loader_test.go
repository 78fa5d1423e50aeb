// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoConfigFileFallsBackToDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	cfg, err := Load(LoaderOptions{ConfigDir: tmpDir, Environment: "test"})
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 8080, cfg.Mailbox.HTTPPort)
}

func TestLoad_EnvironmentSpecificFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(tmpDir, "staging.yaml"),
		[]byte("mailbox:\n  http_port: 9999\n"), 0o644,
	))

	cfg, err := Load(LoaderOptions{ConfigDir: tmpDir, Environment: "staging"})
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 9999, cfg.Mailbox.HTTPPort)
}

func TestLoad_EnvOverridesWinOverFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(tmpDir, "test.yaml"),
		[]byte("mailbox:\n  http_port: 1111\n"), 0o644,
	))
	t.Setenv("MAILBOX_HTTP_PORT", "2222")

	cfg, err := Load(LoaderOptions{ConfigDir: tmpDir, Environment: "test"})
	require.NoError(t, err)
	assert.Equal(t, 2222, cfg.Mailbox.HTTPPort)
}

func TestMustLoad_DoesNotPanicOnMissingDotEnv(t *testing.T) {
	assert.NotPanics(t, func() {
		MustLoad(LoaderOptions{ConfigDir: t.TempDir(), DotEnvPath: "/nonexistent/.env"})
	})
}
