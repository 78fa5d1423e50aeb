// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config loads the mailbox's YAML/JSON configuration, with
// MAILBOX_-prefixed environment overrides and .env support for local
// development.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the mailbox's full runtime configuration.
type Config struct {
	Environment string          `yaml:"environment" json:"environment"`
	Mailbox     *MailboxConfig  `yaml:"mailbox" json:"mailbox"`
	KeyStore    *KeyStoreConfig `yaml:"keystore" json:"keystore"`
	Watcher     *WatcherConfig  `yaml:"watcher" json:"watcher"`
	Push        *PushConfig     `yaml:"push" json:"push"`
	Logging     *LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig  `yaml:"metrics" json:"metrics"`
	Health      *HealthConfig   `yaml:"health" json:"health"`
}

// MailboxConfig holds the identity and storage location of the mailbox
// itself: where it keeps OOBI records and forwarded payloads, and the
// public address it advertises.
type MailboxConfig struct {
	OobiPath  string `yaml:"oobi_path" json:"oobi_path"`
	DBPath    string `yaml:"db_path" json:"db_path"`
	PublicURL string `yaml:"public_url" json:"public_url"`
	HTTPPort  int    `yaml:"http_port" json:"http_port"`
	ServerKey string `yaml:"server_key" json:"server_key"`
}

// KeyStoreConfig describes where the mailbox's own signing key comes
// from: a raw seed (dev/test) or a passphrase-sealed seed file read
// from PassphraseEnv.
type KeyStoreConfig struct {
	Seed          string `yaml:"seed" json:"seed"`
	SealedSeedPath string `yaml:"sealed_seed_path" json:"sealed_seed_path"`
	PassphraseEnv string `yaml:"passphrase_env" json:"passphrase_env"`
}

// WatcherConfig points at the watcher service used to resolve key
// state and to register this mailbox's own OOBI.
type WatcherConfig struct {
	OobiURL string        `yaml:"oobi" json:"oobi"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// PushConfig configures outbound push-notification delivery.
type PushConfig struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig represents health check configuration.
type HealthConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Port    int      `yaml:"port" json:"port"`
	Path    string   `yaml:"path" json:"path"`
	Checks  []string `yaml:"checks" json:"checks"`
}

// LoadFromFile loads configuration from a file, trying YAML then
// falling back to JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("config: parse file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile saves configuration to a file, choosing the format by
// extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Mailbox == nil {
		cfg.Mailbox = &MailboxConfig{}
	}
	if cfg.Mailbox.OobiPath == "" {
		cfg.Mailbox.OobiPath = "./data/oobis.json"
	}
	if cfg.Mailbox.DBPath == "" {
		cfg.Mailbox.DBPath = "./data/mailbox.db"
	}
	if cfg.Mailbox.HTTPPort == 0 {
		cfg.Mailbox.HTTPPort = 8080
	}

	if cfg.KeyStore == nil {
		cfg.KeyStore = &KeyStoreConfig{}
	}
	if cfg.KeyStore.PassphraseEnv == "" {
		cfg.KeyStore.PassphraseEnv = "MAILBOX_KEY_PASSPHRASE"
	}

	if cfg.Watcher == nil {
		cfg.Watcher = &WatcherConfig{}
	}
	if cfg.Watcher.Timeout == 0 {
		cfg.Watcher.Timeout = 10 * time.Second
	}

	if cfg.Push == nil {
		cfg.Push = &PushConfig{}
	}
	if cfg.Push.Timeout == 0 {
		cfg.Push.Timeout = 5 * time.Second
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Health == nil {
		cfg.Health = &HealthConfig{}
	}
	if cfg.Health.Port == 0 {
		cfg.Health.Port = 8081
	}
	if cfg.Health.Path == "" {
		cfg.Health.Path = "/healthz"
	}
}

// LoadDotEnv loads a local .env file, if present, into the process
// environment before Load runs. Missing files are not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// applyEnvOverrides layers MAILBOX_-prefixed environment variables on
// top of a loaded config, giving the environment the final say.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MAILBOX_ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("MAILBOX_OOBI_PATH"); v != "" {
		cfg.Mailbox.OobiPath = v
	}
	if v := os.Getenv("MAILBOX_DB_PATH"); v != "" {
		cfg.Mailbox.DBPath = v
	}
	if v := os.Getenv("MAILBOX_WATCHER_OOBI"); v != "" {
		cfg.Watcher.OobiURL = v
	}
	if v := os.Getenv("MAILBOX_PUBLIC_URL"); v != "" {
		cfg.Mailbox.PublicURL = v
	}
	if v := os.Getenv("MAILBOX_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Mailbox.HTTPPort = port
		}
	}
	if v := os.Getenv("MAILBOX_SEED"); v != "" {
		cfg.KeyStore.Seed = v
	}
	if v := os.Getenv("MAILBOX_SERVER_KEY"); v != "" {
		cfg.Mailbox.ServerKey = v
	}
	if v := os.Getenv("MAILBOX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MAILBOX_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true" || v == "1"
	}
}
