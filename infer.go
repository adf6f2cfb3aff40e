package xmlbind

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// ParseAny binds a document without a declared schema. Record schemas are
// inferred from the document itself:
//
//   - every distinct child tag becomes a field named after the tag, made
//     identifier safe ("my-items" and "myItems" both become "my_items")
//   - a tag repeated under one parent becomes a collection
//   - a child with children or attributes of its own becomes a nested
//     record, otherwise a string
//   - attributes become string fields
//   - non-blank text of a nested record goes to a field named "content"
//
// Occurrences of the same element path are merged, so a field seen on any
// of them is declared for all. Inferred schemas live in a private registry;
// WithRegistry and WithNamespaces have no effect.
func ParseAny(data []byte, opts ...Option) (*Record, error) {
	o := newOptions(opts)
	root, err := o.provider.ReadDocument(data)
	if err != nil {
		return nil, &DocumentError{Err: err}
	}

	sh := newShape(root.LocalName())
	sh.collect(root)

	o.registry = NewRegistry()
	s, err := sh.declare(o.registry, root.LocalName())
	if err != nil {
		return nil, err
	}
	o.logger.Debug("Inferred schema", zap.String("root", root.LocalName()),
		zap.Strings("records", o.registry.RecordNames()))

	schemas, err := o.registry.resolve(s)
	if err != nil {
		return nil, err
	}
	b := &binder{opts: o, schemas: schemas}
	inst := allocate(s)
	if err := b.constructInto(root, s, inst, ""); err != nil {
		return nil, err
	}
	return inst.Interface().(*Record), nil
}

// shape accumulates what the occurrences of one element path hold.
type shape struct {
	tag      string
	attrs    []Attr
	tags     []string
	children map[string]*shape
	repeated map[string]bool
	text     bool
}

func newShape(tag string) *shape {
	return &shape{
		tag:      tag,
		children: make(map[string]*shape),
		repeated: make(map[string]bool),
	}
}

func (sh *shape) collect(n Node) {
	for _, a := range n.Attrs() {
		if !sh.hasAttr(a) {
			sh.attrs = append(sh.attrs, Attr{Space: a.Space, Local: a.Local})
		}
	}
	if strings.TrimSpace(n.Text()) != "" {
		sh.text = true
	}

	counts := make(map[string]int)
	for _, c := range n.Children() {
		tag := c.LocalName()
		counts[tag]++
		cs, ok := sh.children[tag]
		if !ok {
			cs = newShape(tag)
			sh.children[tag] = cs
			sh.tags = append(sh.tags, tag)
		}
		cs.collect(c)
	}
	for tag, count := range counts {
		if count > 1 {
			sh.repeated[tag] = true
		}
	}
}

func (sh *shape) hasAttr(a Attr) bool {
	for _, have := range sh.attrs {
		if have.Space == a.Space && have.Local == a.Local {
			return true
		}
	}
	return false
}

func (sh *shape) nested() bool {
	return len(sh.attrs) > 0 || len(sh.tags) > 0
}

// declare creates the record schema name for sh and, depth first, those of
// its nested children. Children are named after their path.
func (sh *shape) declare(r *Registry, name string) (*Schema, error) {
	s, err := r.DeclareRecord(name, SchemaOptions{Tag: sh.tag})
	if err != nil {
		return nil, err
	}
	str := ScalarOf[string]()

	for _, a := range sh.attrs {
		err := s.Attribute(Attribute{
			Name:      uniqueName(s, identifier(a.Local)),
			Type:      str,
			Tag:       a.Local,
			Namespace: a.Space,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, tag := range sh.tags {
		cs := sh.children[tag]
		ft := str
		if cs.nested() {
			path := name + "/" + tag
			if _, err := cs.declare(r, path); err != nil {
				return nil, err
			}
			ft = NestedRecord(path)
		}
		if sh.repeated[tag] {
			ft = CollectionOf(ft)
		}
		err := s.Element(Element{Name: uniqueName(s, identifier(tag)), Type: ft, Tags: []string{tag}})
		if err != nil {
			return nil, err
		}
	}

	if sh.text {
		if err := s.Content(Content{Name: uniqueName(s, "content"), Type: str}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// identifier turns a tag into a snake case name made of letters, digits
// and underscores.
func identifier(tag string) string {
	var sb strings.Builder
	var prev rune
	for i, r := range tag {
		switch {
		case unicode.IsUpper(r):
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		case unicode.IsLetter(r) || r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
		prev = r
	}
	return sb.String()
}

// uniqueName suffixes name with a counter while s already has such a field.
func uniqueName(s *Schema, name string) string {
	if _, ok := s.Field(name); !ok {
		return name
	}
	for i := 2; ; i++ {
		n := fmt.Sprintf("%s_%d", name, i)
		if _, ok := s.Field(n); !ok {
			return n
		}
	}
}
