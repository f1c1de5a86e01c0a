package cmd

import (
	"github.com/relloyd/retail-etl/actions"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: extract, transform and load",
	Long: `Run the full pipeline.

The dataset is acquired and read, column names are normalized, the required price columns
are checked, discount, sale_price and profit are derived, negative values are reported,
order dates are parsed and the target table is replaced in one transaction.
Use --skip-load to stop after the transform (optionally with --csv-output-dir).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newRunLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Close() }()
		_, err = actions.RunPipeline(cmd.Context(), log, cfg)
		return err
	},
}

func init() {
	switches.addFlags(runCmd,
		"dataset", "archive-file", "csv-file", "work-dir", "null-values", "s3-region", "http-timeout-seconds",
		"db-connection", "table-name", "batch-size",
		"date-column", "date-layout",
		"csv-output-dir", "csv-gzip", "skip-load",
		"log-file", "log-level", "log-format", "stack-dump")
	rootCmd.AddCommand(runCmd)
}
