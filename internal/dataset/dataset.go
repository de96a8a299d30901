// Package dataset holds the immutable participant list loaded once at boot.
// A Dataset is safe for concurrent reads; nothing in it can be modified after
// construction.
package dataset

import (
	"bytes"
	"encoding/json"
)

// Schema is the ordered set of field names taken from the header row.
// Duplicate header names collapse onto their first position; the value of the
// last column carrying the name wins.
type Schema struct {
	columns int
	fields  []string
	index   map[string]int
}

// NewSchema builds a Schema from a header row.
func NewSchema(header []string) *Schema {
	s := &Schema{columns: len(header), index: make(map[string]int, len(header))}
	for i, name := range header {
		if _, seen := s.index[name]; !seen {
			s.fields = append(s.fields, name)
		}
		s.index[name] = i
	}
	return s
}

// Columns is the number of columns a data row must carry.
func (s *Schema) Columns() int { return s.columns }

// Fields returns the distinct field names in header order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Record is one participant row.
type Record struct {
	schema *Schema
	values []string
}

// Get returns the value of the named field.
func (r Record) Get(name string) (string, bool) {
	if r.schema == nil {
		return "", false
	}
	i, ok := r.schema.index[name]
	if !ok {
		return "", false
	}
	return r.values[i], true
}

// Fields returns the record's field names in header order.
func (r Record) Fields() []string {
	if r.schema == nil {
		return nil
	}
	return r.schema.Fields()
}

// Map returns a copy of the record as a plain map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.Fields()))
	for _, name := range r.Fields() {
		out[name], _ = r.Get(name)
	}
	return out
}

// MarshalJSON encodes the record as an object with keys in header order.
func (r Record) MarshalJSON() ([]byte, error) {
	var fields []string
	if r.schema != nil {
		fields = r.schema.fields
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[r.schema.index[name]])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Stats summarises a load.
type Stats struct {
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

// Dataset is the ordered, read-only sequence of records.
type Dataset struct {
	schema  *Schema
	records []Record
	stats   Stats
}

// Empty returns a dataset with no schema and no records.
func Empty() *Dataset { return &Dataset{schema: NewSchema(nil)} }

// Schema returns the header schema.
func (d *Dataset) Schema() *Schema { return d.schema }

// Len reports the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// At returns the record at position i.
func (d *Dataset) At(i int) Record { return d.records[i] }

// Stats returns the row counters collected while loading.
func (d *Dataset) Stats() Stats { return d.stats }

// Records returns every record in file order.
func (d *Dataset) Records() []Record { return d.Slice(0, d.Len()) }

// Slice returns records[lo:hi] with both bounds clamped to the dataset, so an
// out-of-range end truncates and an out-of-range start yields an empty slice.
// The result is capacity-limited; appending to it never touches the dataset.
func (d *Dataset) Slice(lo, hi int) []Record {
	n := d.Len()
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if lo >= hi {
		return []Record{}
	}
	return d.records[lo:hi:hi]
}
