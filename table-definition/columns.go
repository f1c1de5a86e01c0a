package tabledefinition

import (
	"fmt"
	"strings"
	"time"

	"github.com/relloyd/retail-etl/table"
)

// DataType classifies a column so it can be mapped to a database type.
type DataType uint32

const (
	DataTypeUnclassified DataType = iota
	DataTypeInteger
	DataTypeNumber
	DataTypeDate
	DataTypeDateTime
	DataTypeBoolean
	DataTypeText
)

func (d DataType) String() string {
	switch d {
	case DataTypeInteger:
		return "integer"
	case DataTypeNumber:
		return "number"
	case DataTypeDate:
		return "date"
	case DataTypeDateTime:
		return "datetime"
	case DataTypeBoolean:
		return "boolean"
	case DataTypeText:
		return "text"
	default:
		return "unclassified"
	}
}

// ColumnDefinition is a column name and its classified type.
type ColumnDefinition struct {
	Name     string
	DataType DataType
}

// GetTableDefinition classifies every column of t using its present values.
// Integers mixed with floats are numbers, dates mixed with date-times are date-times,
// any other mix is text. Columns with no values at all are text.
func GetTableDefinition(t *table.Table) []ColumnDefinition {
	cols := t.Columns()
	retval := make([]ColumnDefinition, len(cols))
	for idx, name := range cols { // for each column...
		dt := DataTypeUnclassified
		for i := 0; i < t.Len() && dt != DataTypeText; i++ { // for each row until we know it's text...
			dt = widen(dt, classify(t.Value(i, name)))
		}
		if dt == DataTypeUnclassified {
			dt = DataTypeText
		}
		retval[idx] = ColumnDefinition{Name: name, DataType: dt}
	}
	return retval
}

func classify(v interface{}) DataType {
	switch x := v.(type) {
	case nil:
		return DataTypeUnclassified
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		return DataTypeInteger
	case float32, float64:
		return DataTypeNumber
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return DataTypeDate
		}
		return DataTypeDateTime
	case bool:
		return DataTypeBoolean
	default:
		return DataTypeText
	}
}

func widen(current DataType, next DataType) DataType {
	switch {
	case next == DataTypeUnclassified || next == current:
		return current
	case current == DataTypeUnclassified:
		return next
	case isOneOf(current, next, DataTypeInteger, DataTypeNumber):
		return DataTypeNumber
	case isOneOf(current, next, DataTypeDate, DataTypeDateTime):
		return DataTypeDateTime
	default:
		return DataTypeText
	}
}

func isOneOf(a, b, x, y DataType) bool {
	return (a == x || a == y) && (b == x || b == y)
}

// GetCreateTableDDL builds a CREATE TABLE statement for cols.
// quotedTable must already be quoted; quote is applied to each column name.
func GetCreateTableDDL(m Mapper, quote func(string) string, quotedTable string, cols []ColumnDefinition) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("no columns supplied for table %v", quotedTable)
	}
	defs := make([]string, len(cols))
	for idx, c := range cols {
		dbType, err := m.Map(c.DataType)
		if err != nil {
			return "", err
		}
		defs[idx] = fmt.Sprintf("%v %v", quote(c.Name), dbType)
	}
	return fmt.Sprintf("create table %v (%v)", quotedTable, strings.Join(defs, ", ")), nil
}
