package xmlbind

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// binder holds the state of one parse: the resolved schema graph and the
// instances waiting for their callbacks.
type binder struct {
	opts    *options
	schemas map[typeRef]*Schema
	queue   []pending
}

// bind resolves f against n and stores the result in dst. It reports false
// when the field resolves to the absence value and dst was left untouched.
func (b *binder) bind(n Node, f *Field, dst reflect.Value, path string) (bool, error) {
	switch f.kind {
	case KindAttribute:
		return b.bindAttribute(n, f, dst, path)
	case KindContent:
		return b.bindContent(n, f, dst, path)
	}
	if f.typ.IsCollection() {
		return true, b.bindCollection(n, f, dst, path)
	}
	return b.bindSingle(n, f, dst, path)
}

// bindSingle tries the candidate tags in priority order and, per tag, the
// matching children in document order. The first child with a non-empty
// value wins: scalars are empty when their text is, nested types never are.
func (b *binder) bindSingle(n Node, f *Field, dst reflect.Value, path string) (bool, error) {
	for _, tag := range f.tags {
		for _, c := range n.Children() {
			if !b.matches(c, tag, f.namespace) {
				continue
			}
			if f.typ.IsNested() {
				return true, b.constructAt(c, b.schemas[f.typ.ref], dst, path)
			}
			text := strings.TrimSpace(c.InnerText())
			if text == "" {
				continue
			}
			v, err := b.coerce(text, f.typ.scalar, path+"/"+c.LocalName())
			if err != nil {
				return false, err
			}
			dst.Set(adapt(v, dst.Type()))
			return true, nil
		}
		if len(f.tags) > 1 {
			b.opts.logger.Debug("No value for candidate tag, trying next",
				zap.String("field", f.name), zap.String("tag", tag))
		}
	}
	return false, nil
}

// bindCollection binds every child matching any candidate tag, in document
// order. The result is never absent; an empty slice is stored when nothing
// matches.
func (b *binder) bindCollection(n Node, f *Field, dst reflect.Value, path string) error {
	var matched []Node
	for _, c := range n.Children() {
		if b.matchesAny(c, f.tags, f.namespace) {
			matched = append(matched, c)
		}
	}

	elem := f.typ.Elem()
	out := reflect.MakeSlice(dst.Type(), len(matched), len(matched))
	for i, c := range matched {
		slot := out.Index(i)
		if elem.IsNested() {
			if err := b.constructAt(c, b.schemas[elem.ref], slot, path); err != nil {
				return err
			}
			continue
		}
		text := strings.TrimSpace(c.InnerText())
		if text == "" {
			continue
		}
		v, err := b.coerce(text, elem.scalar, path+"/"+c.LocalName())
		if err != nil {
			return err
		}
		slot.Set(adapt(v, slot.Type()))
	}
	dst.Set(out)
	return nil
}

func (b *binder) bindAttribute(n Node, f *Field, dst reflect.Value, path string) (bool, error) {
	var ns string
	if f.namespace != "" {
		ns = b.opts.resolveNamespace(f.namespace)
	}
	for _, a := range n.Attrs() {
		if a.Local != f.tags[0] || (ns != "" && a.Space != ns) {
			continue
		}
		v, err := b.coerce(a.Value, f.typ.scalar, path+"/@"+a.Local)
		if err != nil {
			return false, err
		}
		dst.Set(adapt(v, dst.Type()))
		return true, nil
	}
	return false, nil
}

// bindContent binds the node's own text, ignoring the text of children.
func (b *binder) bindContent(n Node, f *Field, dst reflect.Value, path string) (bool, error) {
	text := strings.TrimSpace(n.Text())
	if text == "" {
		return false, nil
	}
	v, err := b.coerce(text, f.typ.scalar, path)
	if err != nil {
		return false, err
	}
	dst.Set(adapt(v, dst.Type()))
	return true, nil
}

func (b *binder) coerce(text string, t reflect.Type, path string) (reflect.Value, error) {
	v, err := b.opts.coercer.Coerce(text, t)
	if err != nil {
		return reflect.Value{}, &CoercionError{Path: path, Text: text, Type: t, Err: err}
	}
	switch {
	case !v.IsValid():
		err = errors.New("coercer returned no value")
	case v.Type() != t:
		err = fmt.Errorf("coercer returned %s", v.Type())
	}
	if err != nil {
		return reflect.Value{}, &CoercionError{Path: path, Text: text, Type: t, Err: err}
	}
	return v, nil
}

// matches checks if a child element satisfies a candidate tag. Without a
// namespace only the local name is compared.
func (b *binder) matches(c Node, tag, ns string) bool {
	if c.LocalName() != tag {
		return false
	}
	if ns == "" {
		return true
	}
	return c.NamespaceURI() == b.opts.resolveNamespace(ns)
}

func (b *binder) matchesAny(c Node, tags []string, ns string) bool {
	if !slices.Contains(tags, c.LocalName()) {
		return false
	}
	return ns == "" || c.NamespaceURI() == b.opts.resolveNamespace(ns)
}

// logUnmapped reports children no element declaration of s asks for.
func (b *binder) logUnmapped(n Node, s *Schema) {
	if !b.opts.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	for _, c := range n.Children() {
		mapped := slices.ContainsFunc(s.fields, func(f *Field) bool {
			return f.kind == KindElement && b.matchesAny(c, f.tags, f.namespace)
		})
		if !mapped {
			b.opts.logger.Debug("Unexpected tag, ignoring",
				zap.String("parent", n.LocalName()), zap.String("tag", c.LocalName()))
		}
	}
}
