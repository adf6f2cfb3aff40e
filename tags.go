package xmlbind

import (
	"reflect"
	"strings"
)

// Register declares the schema of struct type T from its xml struct tags,
// along with the schemas of the struct types its fields nest that are not
// declared yet.
//
// Tag forms:
//
//	`xml:"street"`              element, single or collection by Go type
//	`xml:"city|state|country"`  element with candidate tags in priority order
//	`xml:"ns1:bio"`             element qualified by namespace prefix ns1
//	`xml:"code,attr"`           attribute
//	`xml:",chardata"`           content
//	`xml:"-"`                   ignored
//
// An XMLName xml.Name field sets the type's tag and namespace and receives
// the name of the element an instance was bound from. Untagged fields are
// ignored. If *T implements AfterParser, its AfterParse method becomes the
// first callback of the schema.
func Register[T any](r *Registry) (*Schema, error) {
	return r.RegisterType(reflect.TypeFor[T]())
}

// RegisterType is Register for a reflect.Type.
func (r *Registry) RegisterType(t reflect.Type) (*Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(t)
}

// ensure returns the schema of t, registering it from struct tags when it
// was never declared.
func (r *Registry) ensure(t reflect.Type) (*Schema, error) {
	if s, ok := r.Schema(t); ok {
		return s, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.types[t]; ok {
		return s, nil
	}
	return r.registerLocked(t)
}

// registerLocked registers t and its nested types. Nothing is left behind
// in the registry when any of them fails.
func (r *Registry) registerLocked(t reflect.Type) (*Schema, error) {
	var created []reflect.Type
	s, err := r.registerTags(t, &created)
	if err != nil {
		for _, c := range created {
			delete(r.types, c)
		}
		return nil, err
	}
	return s, nil
}

func (r *Registry) registerTags(t reflect.Type, created *[]reflect.Type) (*Schema, error) {
	s, err := r.declareType(t, typeOptions(t))
	if err != nil {
		return nil, err
	}
	*created = append(*created, t)

	var nested []reflect.Type
	for i := range t.NumField() {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("xml")
		if !ok || tag == "-" || sf.Name == "XMLName" || !sf.IsExported() {
			continue
		}
		if err := declareTagged(s, sf.Name, tag); err != nil {
			return nil, err
		}
		f, ok := s.byName[sf.Name]
		if !ok {
			// namespace declarations bind nothing
			continue
		}
		if elem := f.typ.Elem(); elem.IsNested() {
			nested = append(nested, elem.ref.goType)
		}
	}

	if reflect.PointerTo(t).Implements(reflect.TypeFor[AfterParser]()) {
		s.AfterParse(CallbackFunc(func(instance any) {
			instance.(AfterParser).AfterParse()
		}))
	}

	for _, nt := range nested {
		if _, ok := r.types[nt]; ok {
			continue
		}
		if _, err := r.registerTags(nt, created); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// declareTagged adds the declaration described by one struct tag.
func declareTagged(s *Schema, field, tag string) error {
	name, rest, _ := strings.Cut(tag, ",")
	var attr, chardata bool
	if rest != "" {
		for _, flag := range strings.Split(rest, ",") {
			switch flag {
			case "attr":
				attr = true
			case "chardata":
				chardata = true
			case "omitempty":
			default:
				return s.errorf(field, "unsupported tag option %q", flag)
			}
		}
	}

	switch {
	case attr && chardata:
		return s.errorf(field, "tag cannot combine attr and chardata")
	case chardata:
		return s.Content(Content{Name: field})
	case attr:
		if strings.HasPrefix(name, "xmlns") {
			return nil
		}
		return s.Attribute(Attribute{Name: field, Tag: name})
	}

	var tags []string
	if name != "" {
		tags = strings.Split(name, "|")
	}
	return s.Element(Element{Name: field, Tags: tags})
}

// typeOptions reads the type's tag and namespace from an XMLName field,
// written either as "local", "prefix:local" or "namespace-uri local".
func typeOptions(t reflect.Type) SchemaOptions {
	sf, ok := t.FieldByName("XMLName")
	if !ok || sf.Type != xmlNameType {
		return SchemaOptions{}
	}
	tag, _, _ := strings.Cut(sf.Tag.Get("xml"), ",")
	if ns, local, found := strings.Cut(tag, " "); found {
		return SchemaOptions{Tag: local, Namespace: ns}
	}
	if prefix, local, found := strings.Cut(tag, ":"); found {
		return SchemaOptions{Tag: local, Namespace: prefix}
	}
	return SchemaOptions{Tag: tag}
}
