package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"reflect"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/relloyd/retail-etl/constants"
	"github.com/relloyd/retail-etl/failure"
	"github.com/relloyd/retail-etl/helper"
	yamlv2 "gopkg.in/yaml.v2"
)

const stage = "config"

// Config holds every setting for one run.
// Keys are the mapstructure tags; they double as CLI flag names and, upper-cased with
// the RETL_ prefix, as environment variable names.
type Config struct {
	Dataset            string   `mapstructure:"dataset" yaml:"dataset"`
	ArchiveFile        string   `mapstructure:"archive-file" yaml:"archive-file"`
	CsvFile            string   `mapstructure:"csv-file" yaml:"csv-file"`
	WorkDir            string   `mapstructure:"work-dir" yaml:"work-dir"`
	NullValues         []string `mapstructure:"null-values" yaml:"null-values"`
	S3Region           string   `mapstructure:"s3-region" yaml:"s3-region"`
	HttpTimeoutSeconds int      `mapstructure:"http-timeout-seconds" yaml:"http-timeout-seconds"`
	DbConnection       string   `mapstructure:"db-connection" yaml:"db-connection"`
	TableName          string   `mapstructure:"table-name" yaml:"table-name"`
	BatchSize          int      `mapstructure:"batch-size" yaml:"batch-size"`
	DateColumn         string   `mapstructure:"date-column" yaml:"date-column"`
	DateLayout         string   `mapstructure:"date-layout" yaml:"date-layout"`
	CsvOutputDir       string   `mapstructure:"csv-output-dir" yaml:"csv-output-dir"`
	CsvGzip            bool     `mapstructure:"csv-gzip" yaml:"csv-gzip"`
	SkipLoad           bool     `mapstructure:"skip-load" yaml:"skip-load"`
	LogFile            string   `mapstructure:"log-file" yaml:"log-file"`
	LogLevel           string   `mapstructure:"log-level" yaml:"log-level"`
	LogFormat          string   `mapstructure:"log-format" yaml:"log-format"`
	StackDump          bool     `mapstructure:"stack-dump" yaml:"stack-dump"`
	KaggleUsername     string   `mapstructure:"-" yaml:"-"`
	KaggleKey          string   `mapstructure:"-" yaml:"-"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	nulls := make([]string, len(constants.DefaultNullValues))
	copy(nulls, constants.DefaultNullValues)
	return Config{
		Dataset:            constants.DefaultDataset,
		ArchiveFile:        constants.DefaultArchiveFile,
		CsvFile:            constants.DefaultCsvFile,
		WorkDir:            ".",
		NullValues:         nulls,
		S3Region:           constants.DefaultS3Region,
		HttpTimeoutSeconds: 300,
		DbConnection:       constants.DefaultDbConnection,
		TableName:          constants.DefaultTableName,
		BatchSize:          constants.DefaultBatchSize,
		DateColumn:         constants.DefaultDateColumn,
		DateLayout:         constants.DefaultDateLayout,
		LogFile:            constants.DefaultLogFile,
		LogLevel:           constants.DefaultLogLevel,
		LogFormat:          constants.DefaultLogFormat,
	}
}

// FileNotFoundError denotes failing to find configuration file.
type FileNotFoundError struct {
	name string
}

// Error returns the formatted configuration error.
func (f FileNotFoundError) Error() string {
	return fmt.Sprintf("config file %q not found", f.name)
}

// Keys returns the settable configuration keys in declaration order.
func Keys() []string {
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		k := t.Field(i).Tag.Get("mapstructure")
		if k != "" && k != "-" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Merge decodes values over the fields of c.
// Only keys present in values are touched; unknown keys are an error.
// Strings are converted to the field type where possible, e.g. "500" for batch-size.
// A list value replaces the current list rather than overlaying it.
func (c *Config) Merge(values map[string]interface{}) error {
	c.resetSlices(values)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           c,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(values); err != nil {
		return failure.Wrap(failure.Config, stage, err, "error decoding configuration")
	}
	return nil
}

// resetSlices sets each slice field named in values to nil, since mapstructure
// decodes into an existing slice by index.
func (c *Config) resetSlices(values map[string]interface{}) {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Type.Kind() != reflect.Slice {
			continue
		}
		if _, ok := values[t.Field(i).Tag.Get("mapstructure")]; ok {
			v.Field(i).Set(reflect.Zero(t.Field(i).Type))
		}
	}
}

// LoadFile merges the YAML or JSON file at fileName into c.
// A leading ~ is expanded to the user's home directory.
func (c *Config) LoadFile(fileName string) error {
	fullPath, err := homedir.Expand(fileName)
	if err != nil {
		return failure.Wrap(failure.Config, stage, err, "error expanding config file path")
	}
	b, err := ioutil.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return failure.Wrap(failure.Config, stage, FileNotFoundError{fullPath}, "error loading configuration")
		}
		return failure.Wrap(failure.Config, stage, err, "error reading config file")
	}
	j, err := yaml.YAMLToJSON(b) // http://ghodss.com/2014/the-right-way-to-handle-yaml-in-golang/
	if err != nil {
		return failure.Wrap(failure.Config, stage, err, fmt.Sprintf("error parsing config file %q", fullPath))
	}
	values := make(map[string]interface{})
	if err := json.Unmarshal(j, &values); err != nil {
		return failure.Wrap(failure.Config, stage, err, fmt.Sprintf("config file %q must contain a map of keys", fullPath))
	}
	return c.Merge(values)
}

// ApplyEnv merges settings found in the environment into c.
// DB_CONNECTION_STRING sets the sink DSN; RETL_<KEY> overrides any key, e.g. RETL_TABLE_NAME.
// RETL_NULL_VALUES is a comma separated list whose entries are trimmed, so empty entries are kept.
func (c *Config) ApplyEnv() error {
	values := make(map[string]interface{})
	if v, ok := os.LookupEnv(constants.EnvVarDbConnection); ok {
		values["db-connection"] = v
	}
	for _, k := range Keys() {
		v, ok := os.LookupEnv(helper.GetConfigKeyEnvVarName(k))
		if !ok {
			continue
		}
		if k == "null-values" {
			tokens, err := helper.CsvToStringSliceTrimSpaces(v)
			if err != nil {
				return failure.Wrap(failure.Config, stage, err, "error parsing null values from environment")
			}
			values[k] = tokens
			continue
		}
		values[k] = v
	}
	if len(values) > 0 {
		if err := c.Merge(values); err != nil {
			return err
		}
	}
	c.KaggleUsername = helper.ReadValueFromEnvWithDefault(constants.EnvVarKaggleUsername, c.KaggleUsername)
	c.KaggleKey = helper.ReadValueFromEnvWithDefault(constants.EnvVarKaggleKey, c.KaggleKey)
	return nil
}

// Validate reports every missing or bad setting in one error.
func (c *Config) Validate() error {
	var problems []string
	mandatory := []struct {
		key   string
		value string
		need  bool
	}{
		{"dataset", c.Dataset, true},
		{"csv-file", c.CsvFile, true},
		{"date-column", c.DateColumn, true},
		{"date-layout", c.DateLayout, true},
		{"db-connection", c.DbConnection, !c.SkipLoad},
		{"table-name", c.TableName, !c.SkipLoad},
	}
	for _, m := range mandatory {
		if m.need && strings.TrimSpace(m.value) == "" {
			problems = append(problems, fmt.Sprintf("missing value for %q", m.key))
		}
	}
	if c.BatchSize <= 0 {
		problems = append(problems, fmt.Sprintf("batch-size must be greater than 0, got %v", c.BatchSize))
	}
	if c.HttpTimeoutSeconds < 0 {
		problems = append(problems, fmt.Sprintf("http-timeout-seconds must not be negative, got %v", c.HttpTimeoutSeconds))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("log-format must be text or json, got %q", c.LogFormat))
	}
	if len(problems) > 0 {
		return failure.New(failure.Config, stage, "invalid configuration: %v", strings.Join(problems, "; "))
	}
	return nil
}

// YAML renders the effective configuration with the database password hidden.
func (c Config) YAML() ([]byte, error) {
	c.DbConnection = RedactDsn(c.DbConnection)
	nulls := make([]string, len(c.NullValues))
	copy(nulls, c.NullValues)
	c.NullValues = nulls
	return yamlv2.Marshal(c)
}
