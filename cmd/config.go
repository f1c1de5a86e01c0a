package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration a run would use, as YAML, after applying the config file,
environment variables and flags. The database password is redacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		b, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), string(b))
		return err
	},
}

func init() {
	switches.addFlags(configCmd,
		"dataset", "archive-file", "csv-file", "work-dir", "null-values", "s3-region", "http-timeout-seconds",
		"db-connection", "table-name", "batch-size",
		"date-column", "date-layout",
		"csv-output-dir", "csv-gzip", "skip-load",
		"log-file", "log-level", "log-format", "stack-dump")
	rootCmd.AddCommand(configCmd)
}
