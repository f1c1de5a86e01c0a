package cmd

import (
	"github.com/relloyd/retail-etl/actions"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the database can be reached",
	Long:  `Open the configured database connection, run a trivial query and close it.`,
	Args:  cobra.NoArgs,
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
		return actions.CheckConnection(cmd.Context(), log, cfg)
	},
}

func init() {
	switches.addFlags(checkCmd, "db-connection", "log-file", "log-level", "log-format")
	rootCmd.AddCommand(checkCmd)
}
