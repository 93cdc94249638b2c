// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the creative-writer CLI.
package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from the secrets directory at startup.
	loadedSecrets map[string]string

	// logger is replaced in PersistentPreRunE once flags are parsed.
	logger = zap.NewNop()
)

// rootCmd is the base command for the creative-writer CLI.
var rootCmd = &cobra.Command{
	Use:   "creative-writer",
	Short: "Research-informed article writing with product lookup and editor review",
	Long: `creative-writer drafts articles from research notes, product lookups, and an
assignment, then revises them with an editor until the reviewer is satisfied.

The pipeline stages are subcommands: products finds catalog products for a
context, write streams a single draft, edit applies one revision, and run
performs the whole loop and saves the result. index manages the local SQLite
product catalog used by the sqlite search backend.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		l, err := newLogger()
		if err != nil {
			return err
		}
		logger = l

		dir, _ := rootCmd.PersistentFlags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", zap.Strings("keys", slices.Sorted(maps.Keys(s))))
		}
		return nil
	}

	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./creative-writer.yaml or ~/.config/creative-writer/creative-writer.yaml)")
	pf.String("secrets-dir", ".secrets/", "directory of API key files")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	pf.String("provider", "", "generation provider: openai, azure, genai, or echo")
	pf.String("model", "", "generation model or deployment")
	pf.String("backend", "", "search backend: rest or sqlite")
	pf.String("index", "", "product index name")
	pf.String("catalog", "", "SQLite catalog path (sqlite backend)")
	pf.String("prompts-dir", "", "directory of *.tmpl prompt overrides")
	pf.String("output-dir", "", "base directory for saved drafts")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("creative-writer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "creative-writer"))
		}
	}

	viper.SetEnvPrefix("CREATIVE_WRITER")
	bindEnv()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds a production logger writing to stderr, at debug level
// when --verbose is set.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l.Named("creative-writer"), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
