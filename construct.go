package xmlbind

import (
	"encoding/xml"
	"reflect"
)

// allocate returns a new, empty instance of s: a *T for struct schemas, a
// *Record otherwise.
func allocate(s *Schema) reflect.Value {
	if s.goType == nil {
		return reflect.ValueOf(newRecord(s))
	}
	return reflect.New(s.goType)
}

// constructAt builds an instance of s from n and stores it in slot. A slot
// of pointer type receives a newly allocated instance; a struct slot is
// filled in place, so instances nested by value keep a stable address for
// their callbacks.
func (b *binder) constructAt(n Node, s *Schema, slot reflect.Value, path string) error {
	if slot.Kind() != reflect.Pointer {
		return b.constructInto(n, s, slot.Addr(), path)
	}
	inst := allocate(s)
	if err := b.constructInto(n, s, inst, path); err != nil {
		return err
	}
	slot.Set(inst)
	return nil
}

// constructInto binds every declaration of s, in declaration order, into
// inst and queues inst for its callbacks. inst must be empty.
func (b *binder) constructInto(n Node, s *Schema, inst reflect.Value, path string) error {
	path += "/" + n.LocalName()
	rec, _ := inst.Interface().(*Record)

	for _, f := range s.fields {
		var dst reflect.Value
		if rec != nil {
			dst = reflect.New(f.typ.goType()).Elem()
		} else {
			dst = inst.Elem().FieldByIndex(f.index)
		}
		bound, err := b.bind(n, f, dst, path)
		if err != nil {
			return err
		}
		if bound && rec != nil {
			rec.set(f.name, dst.Interface())
		}
	}
	if s.xmlName != nil {
		name := xml.Name{Space: n.NamespaceURI(), Local: n.LocalName()}
		inst.Elem().FieldByIndex(s.xmlName).Set(reflect.ValueOf(name))
	}
	b.logUnmapped(n, s)

	b.queue = append(b.queue, pending{schema: s, instance: inst.Interface()})
	return nil
}

// adapt converts a coerced scalar to the type of the slot receiving it.
func adapt(v reflect.Value, to reflect.Type) reflect.Value {
	from := v.Type()
	switch {
	case from == to:
		return v
	case to.Kind() == reflect.Pointer && from == to.Elem():
		p := reflect.New(from)
		p.Elem().Set(v)
		return p
	}
	return v.Convert(to)
}
