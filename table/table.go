// Package table holds the in-memory tabular dataset that flows between pipeline stages.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cevaris/ordered_map"
)

// Table is an ordered set of uniquely named columns and the rows that populate them.
// Column order is insertion order.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Record
}

// NewTable returns an empty Table with the given columns.
// An error is returned if any column name is repeated.
func NewTable(columns []string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	var dupes []string
	for _, c := range columns {
		if _, ok := t.index[c]; ok {
			dupes = append(dupes, c)
			continue
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	if len(dupes) > 0 {
		return nil, fmt.Errorf("duplicate column names: %v", strings.Join(dupes, ", "))
	}
	return t, nil
}

// MustNewTable is NewTable that panics on error, for use with literal column lists.
func MustNewTable(columns ...string) *Table {
	t, err := NewTable(columns)
	if err != nil {
		panic(err)
	}
	return t
}

// AppendRow adds a row whose values are supplied in column order.
func (t *Table) AppendRow(values ...interface{}) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row has %v values but the table has %v columns", len(values), len(t.columns))
	}
	r := Record{data: make(map[string]interface{}, len(t.columns))}
	for idx, c := range t.columns {
		r.data[c] = values[idx]
	}
	t.rows = append(t.rows, r)
	return nil
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	retval := make([]string, len(t.columns))
	copy(retval, t.columns)
	return retval
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns row i.
func (t *Table) Row(i int) Record {
	return t.rows[i]
}

// Value returns the value of column name in row i; nil means absent.
func (t *Table) Value(i int, name string) interface{} {
	return t.rows[i].data[name]
}

// Column returns the values of column name in row order.
func (t *Table) Column(name string) ([]interface{}, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("column %q not found", name)
	}
	retval := make([]interface{}, len(t.rows))
	for idx, r := range t.rows {
		retval[idx] = r.data[name]
	}
	return retval, nil
}

// Values returns row i as a slice in column order.
func (t *Table) Values(i int) []interface{} {
	retval := make([]interface{}, len(t.columns))
	for idx, c := range t.columns {
		retval[idx] = t.rows[i].data[c]
	}
	return retval
}

// SetColumn sets column name to the values returned by fn for each row.
// A new column is appended; an existing column is replaced in place.
func (t *Table) SetColumn(name string, fn func(r Record) interface{}) {
	if !t.HasColumn(name) {
		t.index[name] = len(t.columns)
		t.columns = append(t.columns, name)
	}
	for _, r := range t.rows {
		r.data[name] = fn(r)
	}
}

// DropColumns removes the named columns, skipping any that do not exist.
// It returns the columns that were dropped.
func (t *Table) DropColumns(names ...string) (dropped []string) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		if t.HasColumn(n) {
			drop[n] = struct{}{}
			dropped = append(dropped, n)
		}
	}
	if len(drop) == 0 {
		return nil
	}
	cols := make([]string, 0, len(t.columns)-len(drop))
	for _, c := range t.columns {
		if _, ok := drop[c]; !ok {
			cols = append(cols, c)
		}
	}
	for _, r := range t.rows {
		for n := range drop {
			r.DeleteData(n)
		}
	}
	t.setColumns(cols)
	return dropped
}

// RenameColumns renames columns using mapping, an ordered map of old name to new name.
// Columns missing from mapping keep their names.
// The result must still have unique column names.
func (t *Table) RenameColumns(mapping *ordered_map.OrderedMap) error {
	cols := make([]string, len(t.columns))
	seen := make(map[string]string, len(t.columns))
	for idx, c := range t.columns {
		n := c
		if v, ok := mapping.Get(c); ok {
			n = v.(string)
		}
		if prior, ok := seen[n]; ok {
			return fmt.Errorf("columns %q and %q both rename to %q", prior, c, n)
		}
		seen[n] = c
		cols[idx] = n
	}
	// Renames go via a temporary key so that swapped names do not clobber each other.
	for _, r := range t.rows {
		for idx, c := range t.columns {
			if cols[idx] != c {
				r.RenameData(c, renameKey(idx))
			}
		}
		for idx, c := range t.columns {
			if cols[idx] != c {
				r.RenameData(renameKey(idx), cols[idx])
			}
		}
	}
	t.setColumns(cols)
	return nil
}

// NullCount returns the number of absent values in column name.
func (t *Table) NullCount(name string) int {
	n := 0
	for _, r := range t.rows {
		if r.IsAbsent(name) {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the table structure; values themselves are shared as they are immutable.
func (t *Table) Clone() *Table {
	c := &Table{rows: make([]Record, len(t.rows))}
	c.setColumns(t.Columns())
	for idx, r := range t.rows {
		c.rows[idx] = r.Copy()
	}
	return c
}

func renameKey(idx int) string {
	return "\x00" + strconv.Itoa(idx)
}

func (t *Table) setColumns(cols []string) {
	t.columns = cols
	t.index = make(map[string]int, len(cols))
	for idx, c := range cols {
		t.index[c] = idx
	}
}
