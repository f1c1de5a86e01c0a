package shared

import (
	om "github.com/cevaris/ordered_map"
	"github.com/relloyd/retail-etl/logger"
)

type SqlStatementGeneratorConfig struct {
	Log             logger.Logger
	Dialect         *Dialect
	OutputSchema    string
	SchemaSeparator string
	OutputTable     string
	TargetCols      *om.OrderedMap // ordered map of: key = table field name; value = target table column name
}

type sqlCoreCfg struct {
	sqlStmt                string
	sqlStmtTemplate        string
	sqlValues              []interface{} // slice to hold data values for all rows in batch
	batchSize              int
	rowsInBatch            int
	previousNumRowsInBatch int
}

// FixSqlStatementGeneratorConfig sets the schema separator to match the presence of a schema.
func FixSqlStatementGeneratorConfig(cfg *SqlStatementGeneratorConfig) {
	if cfg.OutputSchema == "" {
		cfg.SchemaSeparator = ""
	} else {
		cfg.SchemaSeparator = "."
	}
}
