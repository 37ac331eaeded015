package query

import (
	"bytes"
	"encoding/json"
)

// Row is one result row. Values are kept in the column order reported by
// the database, so duplicate column names from joins survive.
type Row struct {
	columns []string
	values  []interface{}
}

// NewRow pairs columns with values. Both slices are retained, not copied.
func NewRow(columns []string, values []interface{}) Row {
	return Row{columns: columns, values: values}
}

func (r Row) Columns() []string {
	return r.columns
}

func (r Row) Values() []interface{} {
	return r.values
}

func (r Row) Len() int {
	return len(r.values)
}

// At returns the value in column position i.
func (r Row) At(i int) interface{} {
	return r.values[i]
}

// Get returns the value of the first column called name.
func (r Row) Get(name string) (interface{}, bool) {
	for i, col := range r.columns {
		if col == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map flattens the row into a map. When a column name repeats, the first
// occurrence wins, matching Get.
func (r Row) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.columns))
	for i, col := range r.columns {
		if _, ok := m[col]; ok {
			continue
		}
		m[col] = r.values[i]
	}
	return m
}

// MarshalJSON writes the row as an object whose keys follow column order.
// Repeated column names are written once, first occurrence wins.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	seen := make(map[string]struct{}, len(r.columns))
	first := true
	for i, col := range r.columns {
		if _, ok := seen[col]; ok {
			continue
		}
		seen[col] = struct{}{}

		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
