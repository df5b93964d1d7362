// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the doc2md CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc2md/internal/container"
	"github.com/pdiddy/doc2md/internal/converters"
	"github.com/pdiddy/doc2md/internal/history"
	"github.com/pdiddy/doc2md/internal/logging"
	"github.com/pdiddy/doc2md/internal/orchestrator"
	"github.com/pdiddy/doc2md/internal/secrets"
	"github.com/pdiddy/doc2md/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the effective configuration after defaults, file, env and flags.
	cfg = types.DefaultConfig()

	// logger is configured in PersistentPreRunE.
	logger = zerolog.Nop()

	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets secrets.Store
)

// envKeys are the config keys that may be set through DOC2MD_* variables.
var envKeys = []string{
	"workers", "tables_file", "history_db",
	"log.level", "log.format",
	"ocr.image", "ocr.max_pages",
	"markitdown.image",
	"remote.endpoint", "remote.timeout",
	"options.ocr_language", "options.timeout",
}

// rootCmd is the base command for the doc2md CLI.
var rootCmd = &cobra.Command{
	Use:   "doc2md",
	Short: "Convert documents to Markdown",
	Long: `doc2md converts PDF, Office, HTML, CSV and text documents to Markdown.

It detects each input's format from its content, picks a conversion strategy
(fast, accurate or ocr), runs the matching converter, validates the output and
falls back to the next strategy when a converter fails.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		logger = logging.New(cfg.Log, os.Stderr)

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./doc2md.yaml or ~/.config/doc2md/doc2md.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")
	rootCmd.PersistentFlags().String("tables", "", "YAML file overriding detection tables and fallback policy")
}

// loadConfig layers .env, the config file, DOC2MD_* variables and flags
// over the defaults, then validates the result.
func loadConfig(cmd *cobra.Command) error {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	v := viper.New()
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("doc2md")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "doc2md"))
		}
	}

	v.SetEnvPrefix("DOC2MD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	c := types.DefaultConfig()
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	if s, _ := cmd.Flags().GetString("log-level"); s != "" {
		c.Log.Level = s
	}
	if s, _ := cmd.Flags().GetString("log-format"); s != "" {
		c.Log.Format = s
	}
	if s, _ := cmd.Flags().GetString("tables"); s != "" {
		c.TablesFile = s
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c

	if used := v.ConfigFileUsed(); used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
	return nil
}

// newEngine detects a container runtime and assembles the orchestrator.
// Without a runtime the container-backed converters stay unavailable.
func newEngine() (*orchestrator.Orchestrator, container.Runtime, error) {
	rt, err := container.DetectRuntime()
	if err != nil {
		logger.Debug().Err(err).Msg("container converters disabled")
		rt = nil
	}

	eng, err := converters.NewEngine(converters.Deps{
		Config:  cfg,
		Runtime: rt,
		Secrets: loadedSecrets,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return eng, rt, nil
}

// openHistory opens the run history, or returns nil when it is disabled.
// A history that cannot be opened is logged and skipped.
func openHistory() *history.Store {
	if cfg.HistoryDB == "" {
		return nil
	}
	h, err := history.Open(cfg.HistoryDB)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.HistoryDB).Msg("run history disabled")
		return nil
	}
	return h
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
