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

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/keri-mailbox/config"
	"github.com/sage-x-project/keri-mailbox/crypto"
	"github.com/sage-x-project/keri-mailbox/crypto/keys"
	"github.com/sage-x-project/keri-mailbox/httpapi"
	"github.com/sage-x-project/keri-mailbox/internal/logger"
	"github.com/sage-x-project/keri-mailbox/internal/metrics"
	"github.com/sage-x-project/keri-mailbox/kel"
	"github.com/sage-x-project/keri-mailbox/mailbox"
	"github.com/sage-x-project/keri-mailbox/oobi"
	"github.com/sage-x-project/keri-mailbox/pkg/health"
	"github.com/sage-x-project/keri-mailbox/push"
	"github.com/sage-x-project/keri-mailbox/watcher"
)

var serveFlags struct {
	configDir   string
	environment string
	oobiPath    string
	dbPath      string
	publicURL   string
	httpPort    int
	serverKey   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mailbox HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.StringVar(&serveFlags.configDir, "config-dir", "config", "directory to load <environment>.yaml/default.yaml/config.yaml from")
	flags.StringVar(&serveFlags.environment, "environment", "", "overrides automatic environment detection")
	flags.StringVar(&serveFlags.oobiPath, "oobi-path", "", "overrides mailbox.oobi_path")
	flags.StringVar(&serveFlags.dbPath, "db-path", "", "overrides mailbox.db_path (a postgres:// DSN selects the Postgres OOBI store)")
	flags.StringVar(&serveFlags.publicURL, "public-url", "", "overrides mailbox.public_url, the address this mailbox advertises in its own OOBI")
	flags.IntVar(&serveFlags.httpPort, "http-port", 0, "overrides mailbox.http_port")
	flags.StringVar(&serveFlags.serverKey, "server-key", "", "overrides mailbox.server_key, the bearer key presented to the push endpoint")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: serveFlags.configDir, Environment: serveFlags.environment})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyServeFlags(cfg)

	log := newLogger(cfg)

	keyPair, err := loadSigningKey(cfg)
	if err != nil {
		return fmt.Errorf("load signing key: %w", err)
	}

	oobiStore, err := newOobiStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open oobi store: %w", err)
	}
	if closer, ok := oobiStore.(interface{ Close() }); ok {
		defer closer.Close()
	}

	watcherClient := watcher.NewHTTPClient(cfg.Watcher.OobiURL, cfg.Watcher.Timeout)

	// Clients holding a live /live/{id} WebSocket connection open are
	// notified directly; push.HTTPSender is the fallback for everyone
	// else when a push endpoint is configured. Without one, only the
	// live WebSocket connections are notified.
	live := push.NewWebSocketSender()
	var sender push.Sender = live
	if cfg.Push.Endpoint != "" {
		sender = push.NewFallbackSender(live, push.NewHTTPSender(cfg.Push.Endpoint, cfg.Mailbox.ServerKey, cfg.Push.Timeout))
	}

	facade, err := mailbox.NewFacade(cfg, log, keyPair, kel.NewMemoryStore(), oobiStore, watcherClient, sender)
	if err != nil {
		return fmt.Errorf("build facade: %w", err)
	}

	api := httpapi.NewServer(fmt.Sprintf(":%d", cfg.Mailbox.HTTPPort), facade, log, live)
	api.Start()
	defer shutdownWithTimeout(api.Shutdown, log, "httpapi")

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		go func() {
			log.Info("starting metrics server", logger.Int("port", cfg.Metrics.Port))
			if err := metrics.StartServer(fmt.Sprintf(":%d", cfg.Metrics.Port)); err != nil {
				log.Error("metrics server error", logger.Error(err))
			}
		}()
	}

	var healthSrv *health.Server
	if cfg.Health != nil && cfg.Health.Enabled {
		checker := health.NewHealthChecker(5 * time.Second)
		checker.RegisterCheck("watcher", health.WatcherHealthCheck(func(ctx context.Context) error {
			_, err := watcherClient.QueryKeyState(ctx, nil, "")
			if errors.Is(err, watcher.ErrResponseNotReady) {
				return nil
			}
			return err
		}))
		checker.RegisterCheck("oobi_store", health.DatabaseHealthCheck(oobiStore.Ping))
		checker.RegisterCheck("keystore", health.KeyStoreHealthCheck(func() error {
			_, err := keyPair.Sign(keyHealthProbePayload)
			return err
		}))
		if cfg.Push.Endpoint != "" {
			checker.RegisterCheck("push_endpoint", health.ServiceHealthCheck(cfg.Push.Endpoint, pingHTTPEndpoint))
		}
		healthSrv = health.NewServer(checker, log, cfg.Health.Port)
		if err := healthSrv.Start(); err != nil {
			return fmt.Errorf("start health server: %w", err)
		}
		defer shutdownWithTimeout(healthSrv.Stop, log, "health")
	}

	log.Info("mailbox ready",
		logger.String("environment", cfg.Environment),
		logger.String("public_url", cfg.Mailbox.PublicURL),
		logger.Int("http_port", cfg.Mailbox.HTTPPort))

	waitForSignal()
	log.Info("shutting down")
	return nil
}

func applyServeFlags(cfg *config.Config) {
	if serveFlags.oobiPath != "" {
		cfg.Mailbox.OobiPath = serveFlags.oobiPath
	}
	if serveFlags.dbPath != "" {
		cfg.Mailbox.DBPath = serveFlags.dbPath
	}
	if serveFlags.publicURL != "" {
		cfg.Mailbox.PublicURL = serveFlags.publicURL
	}
	if serveFlags.httpPort != 0 {
		cfg.Mailbox.HTTPPort = serveFlags.httpPort
	}
	if serveFlags.serverKey != "" {
		cfg.Mailbox.ServerKey = serveFlags.serverKey
	}
}

func newLogger(cfg *config.Config) *logger.StructuredLogger {
	level := logger.InfoLevel
	if cfg.Logging != nil {
		switch strings.ToUpper(cfg.Logging.Level) {
		case "DEBUG":
			level = logger.DebugLevel
		case "WARN":
			level = logger.WarnLevel
		case "ERROR":
			level = logger.ErrorLevel
		}
	}
	return logger.NewLogger(os.Stdout, level)
}

// loadSigningKey resolves the mailbox's own Ed25519 signing key: a raw
// hex seed from configuration, a passphrase-sealed seed file, or (in
// development, when neither is set) a freshly generated key pair.
func loadSigningKey(cfg *config.Config) (crypto.KeyPair, error) {
	ks := cfg.KeyStore
	switch {
	case ks != nil && ks.Seed != "":
		seed, err := hex.DecodeString(ks.Seed)
		if err != nil {
			return nil, fmt.Errorf("decode keystore.seed as hex: %w", err)
		}
		return keys.NewEd25519KeyPairFromSeed(seed)

	case ks != nil && ks.SealedSeedPath != "":
		sealed, err := os.ReadFile(ks.SealedSeedPath)
		if err != nil {
			return nil, fmt.Errorf("read sealed seed file: %w", err)
		}
		passphrase := os.Getenv(ks.PassphraseEnv)
		if passphrase == "" {
			return nil, fmt.Errorf("passphrase env %q is unset", ks.PassphraseEnv)
		}
		seed, err := crypto.OpenSeed(sealed, passphrase)
		if err != nil {
			return nil, fmt.Errorf("open sealed seed: %w", err)
		}
		return keys.NewEd25519KeyPairFromSeed(seed)

	default:
		return keys.GenerateEd25519KeyPair()
	}
}

// keyHealthProbePayload is signed by the keystore health check; its
// content is irrelevant, only that signing succeeds.
var keyHealthProbePayload = []byte("healthcheck")

// pingHTTPEndpoint reports whether url is reachable, for the
// push-endpoint health check. Any response at all counts as reachable:
// this only verifies network/DNS/TLS health, not the provider's own
// request validation.
func pingHTTPEndpoint(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("push endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()
	return nil
}

func newOobiStore(ctx context.Context, cfg *config.Config) (oobi.Store, error) {
	if strings.HasPrefix(cfg.Mailbox.DBPath, "postgres://") {
		return oobi.NewPostgresStore(ctx, cfg.Mailbox.DBPath)
	}
	return oobi.NewMemoryStore(), nil
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}

func shutdownWithTimeout(stop func(ctx context.Context) error, log logger.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		log.Error(name+" shutdown error", logger.Error(err))
	}
}
