package rdbms

import (
	"regexp"
	"strings"
)

var (
	reQuotedDottedTable = regexp.MustCompile(`^".+\..+"$`)  // "random.table"
	reQuotedSchemaTable = regexp.MustCompile(`".+"\.".+"`) // "schema"."table"
)

// SchemaTable is a target table name of the form [<schema>.]<table> where either part may be double quoted.
type SchemaTable struct {
	SchemaTable string `errorTxt:"[<schema>.]<object>" mandatory:"yes"`
}

func NewSchemaTable(schema string, table string) SchemaTable {
	if schema == "" {
		return SchemaTable{table}
	} else {
		return SchemaTable{schema + "." + table}
	}
}

func (st *SchemaTable) isQuotedTable() bool {
	// if the schemaTable is a quoted "random.table" and not a regular "schema"."table"...
	return reQuotedDottedTable.MatchString(st.SchemaTable) && !reQuotedSchemaTable.MatchString(st.SchemaTable)
}

func (st *SchemaTable) GetTable() string {
	if st.isQuotedTable() {
		return st.SchemaTable // return the "random.table"
	}
	// else we have a schema.table...
	sep := "."
	i := strings.Index(st.SchemaTable, sep)
	if i < 0 { // if we have just a table...
		return st.SchemaTable
	} // else we have schema.table...
	return st.SchemaTable[i+len(sep):] // return table
}

func (st *SchemaTable) GetSchema() string {
	if st.isQuotedTable() {
		return ""
	}
	// else we have a schema.table...
	sep := "."
	i := strings.Index(st.SchemaTable, sep)
	if i < 0 { // if we have just a table...
		return ""
	} // else we have schema.table...
	return st.SchemaTable[:i] // return schema
}

// Quote returns the schema and table quoted using fn.
// Existing double quotes are removed first so each part is quoted exactly once.
func (st *SchemaTable) Quote(fn func(string) string) string {
	table := fn(unquote(st.GetTable()))
	schema := st.GetSchema()
	if schema == "" {
		return table
	}
	return fn(unquote(schema)) + "." + table
}

func (st *SchemaTable) String() string {
	return st.SchemaTable
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}
