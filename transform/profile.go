package transform

import (
	"github.com/relloyd/retail-etl/table"
)

// Profile reports the shape of the raw table and the columns that hold absent values.
func Profile(t *table.Table) []Event {
	cols := t.Columns()
	events := []Event{
		newEvent(StageProfile, LevelInfo, map[string]interface{}{"rows": t.Len(), "columns": len(cols)},
			"read %v rows and %v columns", t.Len(), len(cols)),
	}
	for _, col := range cols {
		if n := t.NullCount(col); n > 0 {
			events = append(events, newEvent(StageProfile, LevelInfo, map[string]interface{}{"column": col, "nulls": n},
				"column %q has %v absent values", col, n))
		}
	}
	return events
}
