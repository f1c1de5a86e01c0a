package cmd

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/relloyd/retail-etl/actions"
	"github.com/relloyd/retail-etl/config"
	"github.com/relloyd/retail-etl/constants"
	"github.com/relloyd/retail-etl/logger"
	"github.com/spf13/cobra"
)

var (
	// Default values may be set at compile time.
	version      = "0.1.0"
	buildDate    = "2026-10-17T00:00+0000"
	configFile   string
	silenceUsage = true
)

var rootCmd = &cobra.Command{
	Use:   constants.AppName,
	Short: "Load the retail orders dataset into a database",
	Long: `retail-etl acquires the retail orders dataset, cleans it, derives discount, sale price
and profit, normalizes order dates and replaces a database table with the result.

Settings are layered: built-in defaults, then an optional --config file (YAML or JSON),
then environment variables (` + constants.EnvVarDbConnection + ` and ` + constants.EnvVarPrefix + `_<KEY>), then flags.
Set ` + constants.EnvVarLambdaMode + ` to run the pipeline as an AWS Lambda handler.`,
	SilenceUsage: silenceUsage,
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config `<file>` (.yaml or .json) applied before environment variables and flags")
	_ = rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml", "json")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if boolFromEnv(constants.EnvVarLambdaMode) { // if we should handle lambda execution...
		lambda.Start(lambdaHandler)
		return
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		// Execute() prints the error.
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Defaults()
	if configFile != "" {
		if err := cfg.LoadFile(configFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if cmd != nil {
		if err := applyFlags(cmd.Flags(), &cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// newRunLogger creates the logger described by cfg.
// The caller must Close() it.
func newRunLogger(cfg *config.Config) (*logger.LoggerImpl, error) {
	log, err := logger.NewFileAndConsoleLogger(constants.AppName, cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	log.PrintStackDump = cfg.StackDump
	return log, nil
}

// lambdaHandler runs the pipeline using defaults and environment variables only.
func lambdaHandler(ctx context.Context) (actions.RunReport, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return actions.RunReport{}, err
	}
	log, err := newRunLogger(cfg)
	if err != nil {
		return actions.RunReport{}, err
	}
	defer func() { _ = log.Close() }()
	return actions.RunPipeline(ctx, log, cfg)
}
