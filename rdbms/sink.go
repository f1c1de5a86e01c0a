package rdbms

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/relloyd/retail-etl/constants"
	"github.com/relloyd/retail-etl/failure"
	"github.com/relloyd/retail-etl/helper"
	"github.com/relloyd/retail-etl/logger"
	"github.com/relloyd/retail-etl/rdbms/shared"
	"github.com/relloyd/retail-etl/table"
	tabledefinition "github.com/relloyd/retail-etl/table-definition"
	"github.com/spf13/cast"
)

const stageLoad = "load"

// Sink replaces a database table with the contents of a table.Table.
type Sink struct {
	log       logger.Logger
	conn      shared.Connector
	redacted  string
	batchSize int
}

// OpenSink parses dsn and prepares a connection.
// Nothing is sent to the database until Ping or Replace is called.
func OpenSink(log logger.Logger, dsn string, batchSize int) (*Sink, error) {
	d, err := GetConnectionDetails(dsn)
	if err != nil {
		return nil, failure.Wrap(failure.Config, stageLoad, err, "error parsing database connection string")
	}
	conn, err := OpenDbConnection(log, d)
	if err != nil {
		return nil, failure.Wrap(failure.Connectivity, stageLoad, err, fmt.Sprintf("error opening database %v", d.Redacted))
	}
	s := NewSink(log, conn, batchSize)
	s.redacted = d.Redacted
	return s, nil
}

// NewSink wraps an open Connector.
// A batchSize below 1 uses the default.
func NewSink(log logger.Logger, conn shared.Connector, batchSize int) *Sink {
	if batchSize < 1 {
		batchSize = constants.DefaultBatchSize
	}
	return &Sink{log: log, conn: conn, batchSize: batchSize, redacted: conn.GetType()}
}

func (s *Sink) String() string {
	return s.redacted
}

// Ping checks the database can be reached and can run a query.
func (s *Sink) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return failure.Wrap(failure.Connectivity, stageLoad, err, fmt.Sprintf("unable to connect to %v", s))
	}
	s.log.Info("successful database connection to ", s)
	return nil
}

// Replace drops tableName if it exists, creates it with columns typed from t and inserts every row of t.
// All of this happens in one transaction so a failed write leaves any previous table in place
// on databases with transactional DDL.
// It returns the number of rows written.
func (s *Sink) Replace(ctx context.Context, tableName string, t *table.Table) (written int64, err error) {
	dialect := s.conn.GetDialect()
	st := SchemaTable{SchemaTable: tableName}
	quotedTable := st.Quote(dialect.Quote)
	writeFailure := func(e error, msg string) error {
		return failure.Wrap(failure.Write, stageLoad, e, msg)
	}
	// Build the DDL.
	mapper, err := tabledefinition.GetMapper(s.conn.GetType())
	if err != nil {
		return 0, writeFailure(err, "error fetching data type mapper")
	}
	defs := tabledefinition.GetTableDefinition(t)
	ddl, err := tabledefinition.GetCreateTableDDL(mapper, dialect.Quote, quotedTable, defs)
	if err != nil {
		return 0, writeFailure(err, "error building table definition")
	}
	// Start the transaction.
	tx, err := s.conn.BeginTx(ctx)
	if err != nil {
		return 0, failure.Wrap(failure.Connectivity, stageLoad, err, fmt.Sprintf("unable to start transaction on %v", s))
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Warn("error during rollback: ", rbErr)
			}
			written = 0
		}
	}()
	drop := dialect.DropTableIfExists(quotedTable)
	s.log.Debug("executing: ", drop)
	if _, err = tx.ExecContext(ctx, drop); err != nil {
		return 0, writeFailure(err, fmt.Sprintf("error dropping table %v", quotedTable))
	}
	s.log.Debug("executing: ", ddl)
	if _, err = tx.ExecContext(ctx, ddl); err != nil {
		return 0, writeFailure(err, fmt.Sprintf("error creating table %v", quotedTable))
	}
	// Insert the rows in batches.
	gen := shared.NewInsertGenerator(&shared.SqlStatementGeneratorConfig{
		Log:          s.log,
		Dialect:      dialect,
		OutputSchema: unquote(st.GetSchema()),
		OutputTable:  unquote(st.GetTable()),
		TargetCols:   helper.StringSliceToOrderedMap(t.Columns()),
	})
	rowsPerStmt := dialect.RowsPerStatement(s.batchSize, len(t.Columns()))
	s.log.Debug("inserting up to ", rowsPerStmt, " rows per statement")
	execBatch := func() error {
		if gen.GetRowCount() == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, gen.GetStatement(), gen.GetValues()...); err != nil {
			return err
		}
		written += int64(gen.GetRowCount())
		gen.InitBatch(rowsPerStmt)
		return nil
	}
	gen.InitBatch(rowsPerStmt)
	for i := 0; i < t.Len(); i++ { // for each row...
		var batchIsFull bool
		if batchIsFull, err = gen.AddValuesToBatch(bindValues(dialect, t.Values(i))); err != nil {
			return 0, writeFailure(err, fmt.Sprintf("error adding row %v to batch", i))
		}
		if batchIsFull {
			if err = execBatch(); err != nil {
				return 0, writeFailure(err, fmt.Sprintf("error inserting into %v", quotedTable))
			}
		}
	}
	if err = execBatch(); err != nil { // flush the partial batch.
		return 0, writeFailure(err, fmt.Sprintf("error inserting into %v", quotedTable))
	}
	if err = tx.Commit(); err != nil {
		return 0, writeFailure(err, fmt.Sprintf("error committing load of %v", quotedTable))
	}
	s.log.Info("replaced table ", quotedTable, " with ", written, " rows")
	return written, nil
}

// CountRows returns select count(*) for tableName.
func (s *Sink) CountRows(ctx context.Context, tableName string) (int64, error) {
	st := SchemaTable{SchemaTable: tableName}
	rc := &ResultCollector{}
	q := fmt.Sprintf("select count(*) from %v", st.Quote(s.conn.GetDialect().Quote))
	if err := SqlQuery(ctx, s.log, s.conn, q, rc); err != nil {
		return 0, failure.Wrap(failure.Write, stageLoad, err, "error counting rows")
	}
	if len(rc.Rows) != 1 || len(rc.Rows[0]) != 1 {
		return 0, failure.New(failure.Write, stageLoad, "unexpected result counting rows in %v", tableName)
	}
	n, err := cast.ToInt64E(rc.Rows[0][0])
	if err != nil {
		return 0, failure.Wrap(failure.Write, stageLoad, err, "error reading row count")
	}
	return n, nil
}

// Close releases the connection pool.
func (s *Sink) Close() error {
	return s.conn.Close()
}

// bindValues converts values into types every driver accepts.
func bindValues(d *shared.Dialect, values []interface{}) []interface{} {
	for idx, v := range values {
		switch x := v.(type) {
		case time.Time:
			values[idx] = d.BindTime(x)
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				values[idx] = nil
			}
		}
	}
	return values
}
