package cmd

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/relloyd/retail-etl/config"
	"github.com/relloyd/retail-etl/constants"
	"github.com/relloyd/retail-etl/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type cliFlag struct {
	name      string // name of flag, matching a config key
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"dataset": cliFlag{name: "dataset", shortHand: "d",
		desc: "Dataset to load: a local .csv or .zip path, kaggle://<owner>/<dataset>, \n" +
			"an http(s):// URL, s3://<bucket>/<key> or s3://<bucket>/<prefix>/ (searched for csv-file, then archive-file)"},
	"archive-file": cliFlag{name: "archive-file",
		desc: "File name used to save a downloaded archive in the work directory"},
	"csv-file": cliFlag{name: "csv-file", shortHand: "f",
		desc: "Name of the CSV member to read from the archive"},
	"work-dir": cliFlag{name: "work-dir", shortHand: "w",
		desc: "Directory for downloads and extracted files"},
	"null-values": cliFlag{name: "null-values", shortHand: "n",
		desc: "CSV list of cell values treated as absent (surrounding spaces are ignored)"},
	"s3-region": cliFlag{name: "s3-region", shortHand: "R",
		desc: "AWS S3 bucket region for s3:// datasets (set AWS environment variables for access)"},
	"http-timeout-seconds": cliFlag{name: "http-timeout-seconds",
		desc: "Timeout for dataset downloads (0 for no timeout)"},
	"db-connection": cliFlag{name: "db-connection", shortHand: "c",
		desc: "Database connection string, e.g. sqlite:retail_orders.db, postgres://..., mysql://..., \n" +
			"sqlserver://..., snowflake://... or netezza://... (or set " + constants.EnvVarDbConnection + "). \n" +
			"SQLite paths follow SQLAlchemy: sqlite:///orders.db is relative and sqlite:////tmp/orders.db is absolute"},
	"table-name": cliFlag{name: "table-name", shortHand: "t",
		desc: "Target table that is replaced on each run"},
	"batch-size": cliFlag{name: "batch-size", shortHand: "b",
		desc: "Max number of rows combined into a single INSERT statement"},
	"date-column": cliFlag{name: "date-column",
		desc: "Column holding the order date after column names are normalized"},
	"date-layout": cliFlag{name: "date-layout",
		desc: "Go time layout tried for every date before the format is inferred"},
	"csv-output-dir": cliFlag{name: "csv-output-dir", shortHand: "o",
		desc: "Optional directory in which to write the final table as CSV"},
	"csv-gzip": cliFlag{name: "csv-gzip", shortHand: "z",
		desc: "Compress CSV output with gzip"},
	"skip-load": cliFlag{name: "skip-load", shortHand: "s",
		desc: "Stop after the transform stages without writing to the database"},
	"log-file": cliFlag{name: "log-file",
		desc: "File to append log lines to, in addition to the console (empty for console only)"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug | trace\""},
	"log-format": cliFlag{name: "log-format",
		desc: "Log format: \"text | json\""},
	"stack-dump": cliFlag{name: "stack-dump",
		desc: "Print a stack dump with errors"},
}

// addFlags adds a flag to cobra.Command c for each config key in names.
// Flag types and defaults come from the matching field of config.Defaults().
// Values are only read back by applyFlags when the user set them, so the
// file and environment layers are not overwritten by defaults.
func (f cliFlags) addFlags(c *cobra.Command, names ...string) {
	defaults := config.Defaults()
	v := reflect.ValueOf(defaults)
	fields := fieldsByKey()
	for _, name := range names {
		sw, ok := f[name]
		if !ok {
			panic(fmt.Sprintf("unregistered CLI flag, %q", name))
		}
		idx, ok := fields[name]
		if !ok {
			panic(fmt.Sprintf("CLI flag %q has no matching config key", name))
		}
		switch d := v.Field(idx).Interface().(type) {
		case string:
			c.Flags().StringP(sw.name, sw.shortHand, d, sw.desc)
		case bool:
			c.Flags().BoolP(sw.name, sw.shortHand, d, sw.desc)
		case int:
			c.Flags().IntP(sw.name, sw.shortHand, d, sw.desc)
		case []string:
			c.Flags().StringP(sw.name, sw.shortHand, strings.Join(d, ","), sw.desc)
		default:
			panic(fmt.Sprintf("unhandled CLI flag type for %q", name))
		}
	}
}

// applyFlags merges the flags the user changed into cfg.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	values := make(map[string]interface{})
	var err error
	fs.Visit(func(fl *pflag.Flag) {
		if _, ok := switches[fl.Name]; !ok || err != nil {
			return
		}
		if fl.Name == "null-values" {
			var tokens []string
			tokens, err = helper.CsvToStringSliceTrimSpaces(fl.Value.String())
			values[fl.Name] = tokens
			return
		}
		values[fl.Name] = fl.Value.String()
	})
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	return cfg.Merge(values)
}

func fieldsByKey() map[string]int {
	t := reflect.TypeOf(config.Config{})
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		m[t.Field(i).Tag.Get("mapstructure")] = i
	}
	return m
}

// boolFromEnv reports whether environment variable name holds a true value.
func boolFromEnv(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil { // any other non-empty value switches the mode on.
		return strings.TrimSpace(v) != ""
	}
	return b
}
