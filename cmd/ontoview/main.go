// Package main provides the ontoview binary entry point.
// Ontoview serves interactive diagram models for ontology documents
// over NATS: it computes semantic models, synthesizes visual graphs,
// lays them out, and resolves diagram elements back to source locations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/c360studio/ontoview/config"
	"github.com/c360studio/ontoview/layout"
	"github.com/c360studio/ontoview/service"
	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ontoview"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath    string
		workspacePath string
		logLevel      string
	)

	cmd := &cobra.Command{
		Use:   "ontoview",
		Short: "Interactive ontology diagram service",
		Long: `Ontoview serves interactive diagram models for ontology documents.

It provides:
- Diagram model synthesis from computed semantic models
- Automatic layout via an external layout engine
- Element-to-source navigation resolution
- Live recomputation when watched documents change

All requests are served over NATS request/reply.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, workspacePath, logLevel)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&workspacePath, "workspace", "", "Workspace root to watch for document changes")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func run(configPath, workspacePath, logLevel string) error {
	// Configure logging
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flag overrides config file
	if workspacePath != "" {
		absPath, err := filepath.Abs(workspacePath)
		if err != nil {
			return fmt.Errorf("resolve workspace path: %w", err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("stat workspace path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("not a directory: %s", absPath)
		}
		cfg.Workspace.Path = absPath
	}

	// Connect to NATS
	ctx := context.Background()
	natsClient, err := connectToNATS(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer natsClient.Close(ctx)

	// Raw connection for point-to-point collaborator requests (layout
	// engine, model computer, document parser, filesystem proxy)
	conn, err := nats.Connect(natsURL(cfg),
		nats.Name(appName+"-requests"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return wrapNATSError(err, natsURL(cfg))
	}
	defer conn.Close()

	slog.Info("Ontoview ready",
		"version", Version,
		"workspace", cfg.Workspace.Path)

	// Build and start the diagram-api component
	deps := component.Dependencies{
		Logger:     logger,
		NATSClient: natsClient,
	}

	rawConfig, err := json.Marshal(buildComponentConfig(cfg))
	if err != nil {
		return fmt.Errorf("marshal component config: %w", err)
	}

	comp, err := service.New(rawConfig, deps, conn)
	if err != nil {
		return fmt.Errorf("create diagram-api: %w", err)
	}
	if err := comp.Initialize(); err != nil {
		return fmt.Errorf("initialize diagram-api: %w", err)
	}

	// Setup signal handling
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := comp.Start(signalCtx); err != nil {
		return fmt.Errorf("start diagram-api: %w", err)
	}

	// Block until shutdown signal
	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	if err := comp.Stop(30 * time.Second); err != nil {
		slog.Error("Error stopping diagram-api", "error", err)
	}

	slog.Info("Ontoview shutdown complete")
	return nil
}

func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	// Layered user/project config
	return config.NewLoader(logger).Load()
}

// buildComponentConfig maps the workspace config onto the component's
// JSON config shape.
func buildComponentConfig(cfg *config.Config) map[string]any {
	return map[string]any{
		"workspace":         cfg.Workspace.Path,
		"include":           cfg.Workspace.Include,
		"debounce_ms":       cfg.Workspace.DebounceMS,
		"use_fs_proxy":      cfg.Workspace.FSProxy,
		"layout_subject":    cfg.Layout.Subject,
		"timeout_secs":      cfg.Layout.TimeoutSecs,
		"session_idle_mins": cfg.Session.IdleMins,
		"spacing":           layout.DefaultSpacing(),
	}
}

func natsURL(cfg *config.Config) string {
	// Environment variable override takes precedence
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}
	if envURL := os.Getenv("ONTOVIEW_NATS_URL"); envURL != "" {
		return envURL
	}
	return cfg.NATS.URL
}

func connectToNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	url := natsURL(cfg)
	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithCircuitBreakerThreshold(20),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or set NATS_URL environment variable to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}
