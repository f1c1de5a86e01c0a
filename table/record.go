package table

import "fmt"

// Record is one row of a Table.
// Absent values are stored as nil interfaces.
type Record struct {
	data map[string]interface{}
}

func (sr Record) SetData(name string, value interface{}) {
	sr.data[name] = value
}

// GetData returns the value of field name and panics if the field does not exist.
func (sr Record) GetData(name string) interface{} {
	val, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("Invalid key name %q supplied while trying to fetch value from record: %v", name, sr.data))
	}
	return val
}

// Lookup returns the value of field name and whether the field exists.
func (sr Record) Lookup(name string) (interface{}, bool) {
	val, ok := sr.data[name]
	return val, ok
}

// IsAbsent is true if the field is missing or holds a nil value.
func (sr Record) IsAbsent(name string) bool {
	return sr.data[name] == nil
}

func (sr Record) GetDataLen() int {
	return len(sr.data)
}

func (sr Record) DeleteData(name string) {
	delete(sr.data, name)
}

// RenameData moves the value of field from into field to.
func (sr Record) RenameData(from string, to string) {
	if from == to {
		return
	}
	v, ok := sr.data[from]
	if !ok {
		return
	}
	delete(sr.data, from)
	sr.data[to] = v
}

// Copy returns a new Record containing the same fields and values.
func (sr Record) Copy() Record {
	t := Record{data: make(map[string]interface{}, len(sr.data))}
	for k, v := range sr.data {
		t.data[k] = v
	}
	return t
}
