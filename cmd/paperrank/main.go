// Package main provides the paperrank CLI entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matsen/paperrank/internal/config"
	"github.com/matsen/paperrank/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string

	// cfg and logger are set by the root command before any subcommand runs.
	cfg    *config.Config
	logger = logging.Discard()
)

// configFlags maps command-line flags onto config keys. A flag given on
// the command line overrides the config file and PAPERRANK_* variables.
var configFlags = map[string]string{
	"top-k":           "rank.top_k",
	"tfidf-threshold": "rank.tfidf_threshold",
	"sbert-threshold": "rank.sbert_threshold",
	"text-field":      "rank.text_field",
	"log-level":       "log.level",
	"log-format":      "log.format",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// SilenceErrors hides cobra's own messages (unknown flag, missing
		// required flag), so print them here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "paperrank",
	Short: "Rank academic papers by text similarity",
	Long: `paperrank finds related academic papers by comparing their text.

It fetches paper metadata from arXiv and conference datasets from Hugging
Face, scores a target corpus against a set of source papers, and ranks the
most similar pairs within a corpus using TF-IDF and sentence embeddings.

All commands output JSON by default; pass --human for text.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	d := config.Default()
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./paperrank.yaml or ~/.config/paperrank/config.yml)")
	rootCmd.PersistentFlags().String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", d.Log.Format, "log format (text, json)")
	rootCmd.Version = Version
}

// setup loads .env and the layered configuration and builds the run logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(".env"); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	v, err := config.NewViper(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	cfg, err = config.Load(v)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	logger = logging.New(os.Stderr, cfg.Log).With(
		"run_id", uuid.NewString(),
		"command", cmd.CommandPath(),
	)
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", "config_file", v.ConfigFileUsed())
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := configFlags[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("binding --%s: %w", f.Name, err)
		}
	})
	return bindErr
}
