package xmlbind

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// SchemaFile is the result of loading a YAML declaration file.
type SchemaFile struct {
	// Namespaces maps the prefixes used by the declarations to URIs, ready
	// to be passed to WithNamespaces.
	Namespaces map[string]string
	// Types lists the declared record names in sorted order.
	Types []string
}

type fileDecl struct {
	Namespaces map[string]string   `yaml:"namespaces"`
	Types      map[string]typeDecl `yaml:"types"`
}

type typeDecl struct {
	Tag        string          `yaml:"tag"`
	Namespace  string          `yaml:"namespace"`
	Elements   []elementDecl   `yaml:"elements"`
	Attributes []attributeDecl `yaml:"attributes"`
	Content    *contentDecl    `yaml:"content"`
}

type elementDecl struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Namespace  string   `yaml:"namespace,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
	Collection bool     `yaml:"collection,omitempty"`
}

type attributeDecl struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Tag       string `yaml:"tag,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

type contentDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// LoadFile reads a YAML declaration file. See LoadYAML.
func (r *Registry) LoadFile(path string) (*SchemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.LoadYAML(data)
}

// LoadYAML declares the record schemas described by a YAML document:
//
//	namespaces:
//	  geo: http://example.com/geo
//	types:
//	  address:
//	    tag: address
//	    elements:
//	      - {name: street, type: string}
//	      - {name: location, type: string, tags: [city, state, country]}
//	      - {name: country, type: country}
//	      - {name: images, type: string, tags: [image], collection: true}
//	    attributes:
//	      - {name: id, type: int}
//	    content: {name: text, type: string}
//
// A type is either a scalar name ("string", "int", "uint", "float", "bool",
// "date", "time", "duration", "lang", "bytes") or the name of a record
// declared in the same file or earlier in the registry.
func (r *Registry) LoadYAML(data []byte) (*SchemaFile, error) {
	var decl fileDecl
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&decl); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	names := make([]string, 0, len(decl.Types))
	for name := range decl.Types {
		names = append(names, name)
	}
	slices.Sort(names)

	var schemas []*Schema
	fail := func(err error) (*SchemaFile, error) {
		r.dropRecords(schemas)
		return nil, err
	}
	for _, name := range names {
		ts := decl.Types[name]
		s, err := r.DeclareRecord(name, SchemaOptions{Tag: ts.Tag, Namespace: ts.Namespace})
		if err != nil {
			return fail(err)
		}
		schemas = append(schemas, s)
		if err := declareFromFile(s, ts); err != nil {
			return fail(err)
		}
	}

	for _, s := range schemas {
		if _, err := r.resolve(s); err != nil {
			return fail(err)
		}
	}
	return &SchemaFile{Namespaces: decl.Namespaces, Types: names}, nil
}

func declareFromFile(s *Schema, ts typeDecl) error {
	for _, e := range ts.Elements {
		ft := typeByName(e.Type)
		if e.Collection {
			ft = CollectionOf(ft)
		}
		if err := s.Element(Element{Name: e.Name, Type: ft, Namespace: e.Namespace, Tags: e.Tags}); err != nil {
			return err
		}
	}
	for _, a := range ts.Attributes {
		if err := s.Attribute(Attribute{Name: a.Name, Type: typeByName(a.Type), Tag: a.Tag, Namespace: a.Namespace}); err != nil {
			return err
		}
	}
	if ts.Content != nil {
		if err := s.Content(Content{Name: ts.Content.Name, Type: typeByName(ts.Content.Type)}); err != nil {
			return err
		}
	}
	return nil
}

// typeByName maps a type name to a scalar or a record reference. An empty
// name stays unset, which the declaration rejects.
func typeByName(name string) FieldType {
	if name == "" {
		return FieldType{}
	}
	if t, ok := ScalarType(name); ok {
		return Scalar(t)
	}
	return NestedRecord(name)
}
