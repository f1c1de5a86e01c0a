package rdbms

import (
	"context"
	"fmt"

	"github.com/relloyd/retail-etl/logger"
	"github.com/relloyd/retail-etl/rdbms/shared"
)

// SqlQuery runs sqltext and sends the column names followed by every row to i.
func SqlQuery(ctx context.Context, log logger.Logger, db shared.Connector, sqltext string, i shared.SqlResultHandler) error {
	rows, err := db.QueryContext(ctx, sqltext)
	if err != nil {
		return fmt.Errorf("error during database query using SQL: '%v': %w", sqltext, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	// Set up column types for Scan(...)
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("error fetching column types: %w", err)
	}
	for _, v := range colTypes {
		log.Trace("column ", v.Name(), " scan type = ", v.ScanType())
	}
	// Scan the values dynamically.
	lenColTypes := len(colTypes)
	scanPtrs := make([]interface{}, lenColTypes)
	scanVals := make([]interface{}, lenColTypes)
	for idx := 0; idx < lenColTypes; idx++ { // for each column...
		scanPtrs[idx] = &scanVals[idx] // save the value.
	}
	// Build and send the header.
	header := make([]interface{}, lenColTypes)
	for idx := range colTypes {
		header[idx] = colTypes[idx].Name()
	}
	if err = i.HandleHeader(header); err != nil {
		return err
	}
	// Send the rows via callback interface.
	for rows.Next() {
		if err := ctx.Err(); err != nil { // quit if asked to...
			return err
		}
		if err := rows.Scan(scanPtrs...); err != nil {
			return fmt.Errorf("error scanning row: %v", err)
		}
		// Make a new row.
		row := make([]interface{}, lenColTypes)
		copy(row, scanVals)
		if err = i.HandleRow(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ResultCollector is a SqlResultHandler that keeps everything in memory.
type ResultCollector struct {
	Header []string
	Rows   [][]interface{}
}

func (r *ResultCollector) HandleHeader(i []interface{}) error {
	r.Header = make([]string, len(i))
	for idx, v := range i {
		r.Header[idx] = fmt.Sprintf("%v", v)
	}
	return nil
}

func (r *ResultCollector) HandleRow(i []interface{}) error {
	r.Rows = append(r.Rows, i)
	return nil
}
