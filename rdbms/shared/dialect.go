package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/relloyd/retail-etl/constants"
)

// Dialect holds the SQL differences between supported databases.
type Dialect struct {
	Name              string
	Placeholder       func(n int) string // n counts from 1
	Quote             func(identifier string) string
	DropTableIfExists func(quotedTable string) string
	BindTime          func(t time.Time) interface{}
	MaxBindVars       int
}

func questionMark(int) string {
	return "?"
}

func dollarN(n int) string {
	return fmt.Sprintf("$%v", n)
}

func atPN(n int) string {
	return fmt.Sprintf("@p%v", n)
}

func quoteDouble(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteBacktick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func quoteBracket(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

func dropIfExists(quotedTable string) string {
	return "DROP TABLE IF EXISTS " + quotedTable
}

func bindTimeNative(t time.Time) interface{} {
	return t
}

// bindTimeText is for databases without a native date type.
// Dates without a time of day are written as YYYY-MM-DD.
func bindTimeText(t time.Time) interface{} {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

var dialects = map[string]*Dialect{
	constants.ConnectionTypeSqlite: {
		Name:              constants.ConnectionTypeSqlite,
		Placeholder:       questionMark,
		Quote:             quoteDouble,
		DropTableIfExists: dropIfExists,
		BindTime:          bindTimeText,
		MaxBindVars:       32766,
	},
	constants.ConnectionTypePostgres: {
		Name:              constants.ConnectionTypePostgres,
		Placeholder:       dollarN,
		Quote:             quoteDouble,
		DropTableIfExists: dropIfExists,
		BindTime:          bindTimeNative,
		MaxBindVars:       65535,
	},
	constants.ConnectionTypeMysql: {
		Name:              constants.ConnectionTypeMysql,
		Placeholder:       questionMark,
		Quote:             quoteBacktick,
		DropTableIfExists: dropIfExists,
		BindTime:          bindTimeNative,
		MaxBindVars:       65535,
	},
	constants.ConnectionTypeSqlServer: {
		Name:              constants.ConnectionTypeSqlServer,
		Placeholder:       atPN,
		Quote:             quoteBracket,
		DropTableIfExists: dropIfExists, // SQL Server 2016+
		BindTime:          bindTimeNative,
		MaxBindVars:       2000, // the server allows 2100 parameters per request.
	},
	constants.ConnectionTypeSnowflake: {
		Name:              constants.ConnectionTypeSnowflake,
		Placeholder:       questionMark,
		Quote:             quoteDouble,
		DropTableIfExists: dropIfExists,
		BindTime:          bindTimeNative,
		MaxBindVars:       16384,
	},
	constants.ConnectionTypeNetezza: {
		Name:        constants.ConnectionTypeNetezza,
		Placeholder: dollarN,
		Quote:       quoteDouble,
		DropTableIfExists: func(quotedTable string) string {
			return "DROP TABLE " + quotedTable + " IF EXISTS"
		},
		BindTime:    bindTimeNative,
		MaxBindVars: 10000,
	},
}

// GetDialect returns the Dialect for the given connection type.
func GetDialect(connectionType string) (*Dialect, error) {
	d, ok := dialects[strings.ToLower(connectionType)]
	if !ok {
		return nil, fmt.Errorf("unsupported database type, %q", connectionType)
	}
	return d, nil
}

// RowsPerStatement returns how many rows of numCols values fit in one INSERT.
// The result is at most batchSize and at least 1.
func (d *Dialect) RowsPerStatement(batchSize int, numCols int) int {
	rows := batchSize
	if numCols > 0 && d.MaxBindVars/numCols < rows {
		rows = d.MaxBindVars / numCols
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}
