package main

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration as YAML.

Values are layered: built-in defaults, then the config file
(--config, ./paperrank.yaml or ~/.config/paperrank/config.yml), then
PAPERRANK_* environment variables (e.g. PAPERRANK_RANK_TOP_K), then flags.
Secrets are redacted.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	out, err := cfg.YAML()
	if err != nil {
		exitWithError(ExitError, "encoding config: %v", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
