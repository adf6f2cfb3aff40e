// Package xmlbind binds XML documents to typed Go values according to
// schemas declared per type.
//
// A schema lists which child elements, attributes and text content a type
// expects. Element declarations may name several candidate tags in priority
// order: the field takes the value of the first candidate that yields a
// non-empty value, falling through to the next tag otherwise. Fields whose
// Go type is a slice collect every matching child in document order.
//
// Schemas are usually derived from struct tags:
//
//	type Address struct {
//	    Street   string   `xml:"street"`
//	    Location string   `xml:"city|state|country"`
//	    Code     *string  `xml:"code,attr"`
//	    Images   []string `xml:"image"`
//	    Text     *string  `xml:",chardata"`
//	}
//
//	addr, err := xmlbind.Parse[Address](data)
//
// or declared explicitly, for struct types with Declare and for map-like
// Record values with DeclareRecord or LoadYAML:
//
//	s, _ := xmlbind.Declare[Address](reg, xmlbind.SchemaOptions{Tag: "address"})
//	_ = s.Element(xmlbind.Element{Name: "Location", Tags: []string{"city", "state", "country"}})
//
// Declarations are checked when they are made and must be complete before
// documents are parsed. Parsing never changes a schema, so any number of
// documents may be parsed concurrently against the same registry.
//
// Callbacks registered with Schema.AfterParse run once the whole document
// has been bound, and never for a parse that fails.
package xmlbind

import (
	"fmt"
	"io"
	"reflect"

	"go.uber.org/zap"
)

// Decoder binds a document read from an io.Reader into a struct value.
type Decoder struct {
	r    io.Reader
	opts *options
}

// NewDecoder creates a new decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return &Decoder{r: r, opts: newOptions(opts)}
}

// Parse binds data to a new instance of struct type T. T is registered from
// its struct tags first if its schema is not declared yet. When the
// document does not contain the element T is declared for, Parse returns
// nil and no error.
func Parse[T any](data []byte, opts ...Option) (*T, error) {
	o := newOptions(opts)
	s, err := o.registry.ensure(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	v, err := bindDocument(data, s, o)
	if err != nil || !v.IsValid() {
		return nil, err
	}
	return v.Interface().(*T), nil
}

// Parse binds data to a new instance of the declared struct type t and
// returns it as a pointer.
func (r *Registry) Parse(data []byte, t reflect.Type, opts ...Option) (any, error) {
	s, ok := r.Schema(t)
	if !ok {
		return nil, schemaErrorf(typeName(t), "", "type is not declared")
	}
	o := newOptions(opts)
	o.registry = r
	v, err := bindDocument(data, s, o)
	if err != nil || !v.IsValid() {
		return nil, err
	}
	return v.Interface(), nil
}

// ParseRecord binds data to a new Record of the record schema name.
func (r *Registry) ParseRecord(data []byte, name string, opts ...Option) (*Record, error) {
	s, ok := r.Record(name)
	if !ok {
		return nil, schemaErrorf(name, "", "record is not declared")
	}
	o := newOptions(opts)
	o.registry = r
	v, err := bindDocument(data, s, o)
	if err != nil || !v.IsValid() {
		return nil, err
	}
	return v.Interface().(*Record), nil
}

// Decode reads the whole document and binds it into v, which must be a
// non-nil pointer to a struct. On error v is reset to its zero value.
func (d *Decoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer")
	}
	s, err := d.opts.registry.ensure(rv.Elem().Type())
	if err != nil {
		return err
	}
	data, err := io.ReadAll(d.r)
	if err != nil {
		return &DocumentError{Err: err}
	}
	root, b, err := prepare(data, s, d.opts)
	if err != nil {
		return err
	}
	if root == nil {
		return ErrRootNotFound
	}

	rv.Elem().SetZero()
	if err := b.constructInto(root, s, rv, ""); err != nil {
		rv.Elem().SetZero()
		return err
	}
	fireCallbacks(b.queue)
	return nil
}

// bindDocument runs a complete parse: schema resolution, document reading,
// construction of the root instance and finally the callbacks.
func bindDocument(data []byte, s *Schema, o *options) (reflect.Value, error) {
	root, b, err := prepare(data, s, o)
	if err != nil || root == nil {
		return reflect.Value{}, err
	}
	inst := allocate(s)
	if err := b.constructInto(root, s, inst, ""); err != nil {
		return reflect.Value{}, err
	}
	fireCallbacks(b.queue)
	return inst, nil
}

// prepare resolves the schema graph of s, reads the document and locates
// the node the root instance is bound from. A nil node means the document
// holds no such element.
func prepare(data []byte, s *Schema, o *options) (Node, *binder, error) {
	schemas, err := o.registry.resolve(s)
	if err != nil {
		return nil, nil, err
	}
	root, err := o.provider.ReadDocument(data)
	if err != nil {
		return nil, nil, &DocumentError{Err: err}
	}
	b := &binder{opts: o, schemas: schemas}

	tag := s.opts.Tag
	if tag == "" || root.LocalName() == tag {
		return root, b, nil
	}
	o.logger.Debug("Root element does not match, searching descendants",
		zap.String("root", root.LocalName()), zap.String("tag", tag))
	return findDescendant(root, tag), b, nil
}
