package xmlbind

import (
	"reflect"
	"slices"
	"sync"
)

// Registry holds the schemas of mapped types, struct types keyed by their
// reflect.Type and record types by name. Declarations must be complete
// before documents are parsed against them.
type Registry struct {
	mu      sync.RWMutex
	types   map[reflect.Type]*Schema
	records map[string]*Schema
}

var defaultRegistry = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:   make(map[reflect.Type]*Schema),
		records: make(map[string]*Schema),
	}
}

// DefaultRegistry is the registry used when no WithRegistry option is given.
func DefaultRegistry() *Registry { return defaultRegistry }

// Declare creates the schema of struct type T.
func Declare[T any](r *Registry, opts SchemaOptions) (*Schema, error) {
	return r.DeclareType(reflect.TypeFor[T](), opts)
}

// DeclareType creates the schema of struct type t. A type is declared once.
func (r *Registry) DeclareType(t reflect.Type, opts SchemaOptions) (*Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.declareType(t, opts)
}

func (r *Registry) declareType(t reflect.Type, opts SchemaOptions) (*Schema, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, schemaErrorf(typeName(t), "", "mapped types must be structs")
	}
	if _, ok := r.types[t]; ok {
		return nil, schemaErrorf(t.Name(), "", "type is already declared")
	}
	s := newSchema(t.Name(), t, opts)
	r.types[t] = s
	return s, nil
}

// DeclareRecord creates a record schema. Instances are *Record values.
func (r *Registry) DeclareRecord(name string, opts SchemaOptions) (*Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		return nil, schemaErrorf(name, "", "record name is empty")
	}
	if _, ok := r.records[name]; ok {
		return nil, schemaErrorf(name, "", "record is already declared")
	}
	s := newSchema(name, nil, opts)
	r.records[name] = s
	return s, nil
}

// Schema returns the schema of struct type t.
func (r *Registry) Schema(t reflect.Type) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.types[t]
	return s, ok
}

// Record returns the record schema declared under name.
func (r *Registry) Record(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.records[name]
	return s, ok
}

// RecordNames lists the declared record schemas in sorted order.
func (r *Registry) RecordNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// dropRecords removes record schemas declared by a failed load.
func (r *Registry) dropRecords(schemas []*Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range schemas {
		delete(r.records, s.name)
	}
}

func (r *Registry) lookupLocked(ref typeRef) (*Schema, bool) {
	if ref.goType != nil {
		s, ok := r.types[ref.goType]
		return s, ok
	}
	s, ok := r.records[ref.name]
	return s, ok
}

// resolve maps every nested type reachable from root to its schema. It
// fails when a referenced type was never declared, so a parse can report
// the problem before any instance is built.
func (r *Registry) resolve(root *Schema) (map[typeRef]*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := make(map[typeRef]*Schema)
	visited := map[*Schema]bool{root: true}
	queue := []*Schema{root}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, f := range s.fields {
			elem := f.typ.Elem()
			if !elem.IsNested() {
				continue
			}
			nested, ok := r.lookupLocked(elem.ref)
			if !ok {
				return nil, schemaErrorf(s.name, f.name, "type %v is not declared", elem.ref)
			}
			resolved[elem.ref] = nested
			if !visited[nested] {
				visited[nested] = true
				queue = append(queue, nested)
			}
		}
	}
	return resolved, nil
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
