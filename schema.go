package xmlbind

import (
	"encoding/xml"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// FieldKind tells where a field is sourced from on a node.
type FieldKind int

const (
	// KindElement fields are sourced from child elements.
	KindElement FieldKind = iota
	// KindAttribute fields are sourced from an attribute of the node.
	KindAttribute
	// KindContent fields are sourced from the node's own text.
	KindContent
)

func (k FieldKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindAttribute:
		return "attribute"
	case KindContent:
		return "content"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Multiplicity tells whether an element field binds one value or all
// matching children.
type Multiplicity int

const (
	Single Multiplicity = iota
	Collection
)

func (m Multiplicity) String() string {
	if m == Collection {
		return "collection"
	}
	return "single"
}

type typeClass int

const (
	classNone typeClass = iota
	classScalar
	classNested
	classCollection
)

// typeRef identifies a schema: struct schemas by Go type, record schemas
// by name.
type typeRef struct {
	goType reflect.Type
	name   string
}

func (r typeRef) String() string {
	if r.goType != nil {
		return r.goType.String()
	}
	return r.name
}

// FieldType is the target type of a field: a scalar, a nested mapped type,
// or a collection of either.
type FieldType struct {
	class  typeClass
	scalar reflect.Type
	ref    typeRef
	elem   *FieldType
}

// Scalar is a type bound from text by the Coercer.
func Scalar(t reflect.Type) FieldType {
	return FieldType{class: classScalar, scalar: t}
}

// ScalarOf is Scalar for a type parameter.
func ScalarOf[T any]() FieldType {
	return Scalar(reflect.TypeFor[T]())
}

// Nested refers to the schema declared for struct type t.
func Nested(t reflect.Type) FieldType {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return FieldType{class: classNested, ref: typeRef{goType: t}}
}

// NestedOf is Nested for a type parameter.
func NestedOf[T any]() FieldType {
	return Nested(reflect.TypeFor[T]())
}

// NestedRecord refers to the record schema declared under name.
func NestedRecord(name string) FieldType {
	return FieldType{class: classNested, ref: typeRef{name: name}}
}

// CollectionOf is an ordered sequence of elem values.
func CollectionOf(elem FieldType) FieldType {
	return FieldType{class: classCollection, elem: &elem}
}

// IsZero reports whether the type was left unset.
func (t FieldType) IsZero() bool { return t.class == classNone }

// IsScalar reports whether t is a scalar type.
func (t FieldType) IsScalar() bool { return t.class == classScalar }

// IsNested reports whether t refers to a mapped type.
func (t FieldType) IsNested() bool { return t.class == classNested }

// IsCollection reports whether t is a collection.
func (t FieldType) IsCollection() bool { return t.class == classCollection }

// Elem returns the element type of a collection, or t itself.
func (t FieldType) Elem() FieldType {
	if t.class == classCollection {
		return *t.elem
	}
	return t
}

// ScalarType returns the Go type of a scalar, or nil.
func (t FieldType) ScalarType() reflect.Type { return t.scalar }

func (t FieldType) String() string {
	switch t.class {
	case classScalar:
		return t.scalar.String()
	case classNested:
		return t.ref.String()
	case classCollection:
		return "[]" + t.elem.String()
	default:
		return "<unset>"
	}
}

// goType is the Go type of values the binder produces for t.
func (t FieldType) goType() reflect.Type {
	switch t.class {
	case classScalar:
		return t.scalar
	case classNested:
		if t.ref.goType != nil {
			return reflect.PointerTo(t.ref.goType)
		}
		return recordPtrType
	case classCollection:
		return reflect.SliceOf(t.elem.goType())
	}
	return nil
}

func (t FieldType) equal(o FieldType) bool {
	if t.class != o.class {
		return false
	}
	switch t.class {
	case classScalar:
		return t.scalar == o.scalar
	case classNested:
		return t.ref == o.ref
	case classCollection:
		return t.elem.equal(*o.elem)
	}
	return true
}

// Element declares a field sourced from child elements. Tags lists the
// candidate tag names in priority order and defaults to the field name. A
// "prefix:" on the tags is an alternative way to give the namespace.
type Element struct {
	Name      string
	Type      FieldType
	Namespace string
	Tags      []string
}

// Attribute declares a field sourced from an attribute. Tag defaults to the
// field name.
type Attribute struct {
	Name      string
	Type      FieldType
	Tag       string
	Namespace string
}

// Content declares the field sourced from the node's own text.
type Content struct {
	Name string
	Type FieldType
}

// Field is a validated declaration as stored in a Schema.
type Field struct {
	kind      FieldKind
	name      string
	typ       FieldType
	namespace string
	tags      []string
	// index locates the Go field of struct schemas.
	index []int
}

func (f *Field) Kind() FieldKind { return f.kind }
func (f *Field) Name() string    { return f.name }
func (f *Field) Type() FieldType { return f.typ }

// Namespace is the namespace prefix or URI the field's tags are qualified
// with, or "" for unqualified matching.
func (f *Field) Namespace() string { return f.namespace }

// Tags returns the candidate tag names in priority order. Attribute fields
// have exactly one tag, content fields none.
func (f *Field) Tags() []string { return slices.Clone(f.tags) }

// Multiplicity of the field.
func (f *Field) Multiplicity() Multiplicity {
	if f.typ.IsCollection() {
		return Collection
	}
	return Single
}

// SchemaOptions are type level settings.
type SchemaOptions struct {
	// Tag is the element name instances of the type are read from. When the
	// document root has another name, the first descendant with this name is
	// bound instead.
	Tag string
	// Namespace qualifies element declarations that do not name their own.
	Namespace string
}

// Schema is the ordered set of field declarations and callbacks of one
// mapped type. Declaration methods are additive; a Schema must not be
// changed once documents are being parsed against it.
type Schema struct {
	name      string
	goType    reflect.Type
	opts      SchemaOptions
	fields    []*Field
	byName    map[string]*Field
	content   *Field
	xmlName   []int
	callbacks []Callback
}

var xmlNameType = reflect.TypeFor[xml.Name]()

func newSchema(name string, goType reflect.Type, opts SchemaOptions) *Schema {
	s := &Schema{
		name:   name,
		goType: goType,
		opts:   opts,
		byName: make(map[string]*Field),
	}
	if goType != nil {
		if sf, ok := goType.FieldByName("XMLName"); ok && sf.Type == xmlNameType && len(sf.Index) == 1 {
			s.xmlName = sf.Index
		}
	}
	return s
}

// Name is the Go type name for struct schemas, the record name otherwise.
func (s *Schema) Name() string { return s.name }

// GoType is the struct type of the schema, nil for record schemas.
func (s *Schema) GoType() reflect.Type { return s.goType }

// Options returns the type level settings.
func (s *Schema) Options() SchemaOptions { return s.opts }

// Fields returns the declarations in declaration order.
func (s *Schema) Fields() []*Field { return slices.Clone(s.fields) }

// Field returns the declaration named name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// ContentField returns the content declaration, if any.
func (s *Schema) ContentField() *Field { return s.content }

// Callbacks returns the registered callbacks in registration order.
func (s *Schema) Callbacks() []Callback { return slices.Clone(s.callbacks) }

// AfterParse appends a callback invoked with every instance of the type
// built by a successful parse.
func (s *Schema) AfterParse(cb Callback) {
	s.callbacks = append(s.callbacks, cb)
}

// Element declares an element field.
func (s *Schema) Element(d Element) error {
	if err := s.checkName(d.Name); err != nil {
		return err
	}
	tags := d.Tags
	if len(tags) == 0 {
		tags = []string{d.Name}
	}
	ns, tags, err := splitTags(tags)
	if err != nil {
		return s.errorf(d.Name, "%v", err)
	}
	switch {
	case ns != "" && d.Namespace != "" && ns != d.Namespace:
		return s.errorf(d.Name, "tag prefix %q conflicts with namespace %q", ns, d.Namespace)
	case ns == "":
		ns = d.Namespace
	}
	if ns == "" {
		ns = s.opts.Namespace
	}

	f := &Field{kind: KindElement, name: d.Name, namespace: ns, tags: tags}
	if err := s.resolveType(f, d.Type); err != nil {
		return err
	}
	if f.typ.IsCollection() && f.typ.Elem().IsCollection() {
		return s.errorf(d.Name, "collections of collections are not supported")
	}

	for _, other := range s.fields {
		if other.kind != KindElement || other.namespace != ns {
			continue
		}
		for _, tag := range tags {
			if slices.Contains(other.tags, tag) {
				return s.errorf(d.Name, "tag %q is already used by field %q", tag, other.name)
			}
		}
	}
	s.add(f)
	return nil
}

// Attribute declares an attribute field.
func (s *Schema) Attribute(d Attribute) error {
	if err := s.checkName(d.Name); err != nil {
		return err
	}
	tag := d.Tag
	if tag == "" {
		tag = d.Name
	}
	ns, tags, err := splitTags([]string{tag})
	if err != nil {
		return s.errorf(d.Name, "%v", err)
	}
	if ns != "" && d.Namespace != "" && ns != d.Namespace {
		return s.errorf(d.Name, "tag prefix %q conflicts with namespace %q", ns, d.Namespace)
	}
	if ns == "" {
		ns = d.Namespace
	}

	f := &Field{kind: KindAttribute, name: d.Name, namespace: ns, tags: tags}
	if err := s.resolveType(f, d.Type); err != nil {
		return err
	}
	if !f.typ.IsScalar() {
		return s.errorf(d.Name, "attribute type must be scalar, got %v", f.typ)
	}
	for _, other := range s.fields {
		if other.kind == KindAttribute && other.namespace == ns && other.tags[0] == tags[0] {
			return s.errorf(d.Name, "attribute %q is already used by field %q", tags[0], other.name)
		}
	}
	s.add(f)
	return nil
}

// Content declares the content field. A schema has at most one.
func (s *Schema) Content(d Content) error {
	if s.content != nil {
		return s.errorf(d.Name, "content is already declared by field %q", s.content.name)
	}
	if err := s.checkName(d.Name); err != nil {
		return err
	}
	f := &Field{kind: KindContent, name: d.Name}
	if err := s.resolveType(f, d.Type); err != nil {
		return err
	}
	if !f.typ.IsScalar() {
		return s.errorf(d.Name, "content type must be scalar, got %v", f.typ)
	}
	s.add(f)
	s.content = f
	return nil
}

func (s *Schema) add(f *Field) {
	s.fields = append(s.fields, f)
	s.byName[f.name] = f
}

func (s *Schema) checkName(name string) error {
	if name == "" {
		return s.errorf("", "field name is empty")
	}
	if _, ok := s.byName[name]; ok {
		return s.errorf(name, "field is already declared")
	}
	return nil
}

func (s *Schema) errorf(field, format string, args ...any) error {
	return schemaErrorf(s.name, field, format, args...)
}

// resolveType sets f.typ. Record schemas need an explicit type; struct
// schemas derive it from the Go field, and an explicit type must agree.
func (s *Schema) resolveType(f *Field, declared FieldType) error {
	if s.goType == nil {
		if declared.IsZero() {
			return s.errorf(f.name, "type is required")
		}
		if declared.IsScalar() && !isScalarType(declared.scalar) {
			return s.errorf(f.name, "invalid scalar type %v", declared.scalar)
		}
		f.typ = declared
		return nil
	}

	sf, ok := s.goType.FieldByName(f.name)
	if !ok {
		return s.errorf(f.name, "%v has no such field", s.goType)
	}
	if !sf.IsExported() {
		return s.errorf(f.name, "field is not exported")
	}
	if !directPath(s.goType, sf.Index) {
		return s.errorf(f.name, "field is promoted through an embedded pointer")
	}
	derived, err := deriveFieldType(sf.Type)
	if err != nil {
		return s.errorf(f.name, "%v", err)
	}
	if !declared.IsZero() && !declared.equal(derived) {
		return s.errorf(f.name, "declared type %v does not match Go type %v", declared, sf.Type)
	}
	f.typ = derived
	f.index = sf.Index
	return nil
}

// deriveFieldType maps a Go field type to a FieldType.
func deriveFieldType(t reflect.Type) (FieldType, error) {
	if isScalarType(t) {
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		return Scalar(t), nil
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Array {
			return FieldType{}, fmt.Errorf("arrays are not supported, use a slice")
		}
		elem, err := deriveFieldType(t.Elem())
		if err != nil {
			return FieldType{}, err
		}
		if elem.IsCollection() {
			return FieldType{}, fmt.Errorf("collections of collections are not supported")
		}
		return CollectionOf(elem), nil
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Struct {
			return Nested(t.Elem()), nil
		}
	case reflect.Struct:
		return Nested(t), nil
	}
	return FieldType{}, fmt.Errorf("invalid target type %v", t)
}

// directPath reports whether the field at index can be reached without
// dereferencing an embedded pointer.
func directPath(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		t = t.Field(i).Type
		if t.Kind() == reflect.Pointer {
			return false
		}
	}
	return true
}

// splitTags strips a shared "prefix:" from the tags.
func splitTags(tags []string) (string, []string, error) {
	var prefix string
	out := make([]string, len(tags))
	for i, tag := range tags {
		if tag == "" || strings.ContainsAny(tag, " \t\n") {
			return "", nil, fmt.Errorf("invalid tag %q", tag)
		}
		p, local, found := strings.Cut(tag, ":")
		if !found {
			out[i] = tag
			continue
		}
		if local == "" {
			return "", nil, fmt.Errorf("invalid tag %q", tag)
		}
		if prefix != "" && p != prefix {
			return "", nil, fmt.Errorf("tags mix prefixes %q and %q", prefix, p)
		}
		prefix = p
		out[i] = local
	}
	if prefix != "" {
		for i, tag := range tags {
			if !strings.Contains(tag, ":") {
				return "", nil, fmt.Errorf("tag %q has no prefix while others use %q", out[i], prefix)
			}
		}
	}
	return prefix, out, nil
}
