package xmlbind

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

var recordPtrType = reflect.TypeFor[*Record]()

// Record is the mapped object of a record schema: a map-like instance whose
// values are read by field name.
type Record struct {
	schema *Schema
	values map[string]any
}

func newRecord(s *Schema) *Record {
	return &Record{schema: s, values: make(map[string]any, len(s.fields))}
}

// Schema returns the schema the record was built from.
func (r *Record) Schema() *Schema { return r.schema }

// Get returns the value bound to field name. ok is false for absent values
// and unknown names.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether field name has a value.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// String formats the value of field name, "" when absent.
func (r *Record) String(name string) string {
	v, ok := r.values[name]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Record returns the nested record bound to field name, or nil.
func (r *Record) Record(name string) *Record {
	rec, _ := r.values[name].(*Record)
	return rec
}

// Records returns the nested records of a collection field.
func (r *Record) Records(name string) []*Record {
	recs, _ := r.values[name].([]*Record)
	return recs
}

// Fields lists the names of the fields that have a value, in declaration
// order.
func (r *Record) Fields() []string {
	names := make([]string, 0, len(r.values))
	for _, f := range r.schema.fields {
		if _, ok := r.values[f.name]; ok {
			names = append(names, f.name)
		}
	}
	return names
}

// Map copies the bound values into a map, converting nested records and
// collections of records recursively.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for name, v := range r.values {
		switch v := v.(type) {
		case *Record:
			m[name] = v.Map()
		case []*Record:
			items := make([]any, len(v))
			for i, rec := range v {
				items[i] = rec.Map()
			}
			m[name] = items
		default:
			m[name] = v
		}
	}
	return m
}

// MarshalJSON writes the record as an object with keys in declaration order.
// Absent fields are left out.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[name])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) set(name string, v any) {
	r.values[name] = v
}
