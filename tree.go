package xmlbind

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// TokenProvider builds the node tree from encoding/xml tokens. The standard
// decoder already resolves element and attribute prefixes to namespace URIs,
// so the tree carries URIs regardless of the prefixes used in the document.
type TokenProvider struct {
	// Lenient turns off xml.Decoder.Strict.
	Lenient bool
}

// ReadDocument decodes data and returns the root element.
func (p TokenProvider) ReadDocument(data []byte) (Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = !p.Lenient

	// Read tokens until we find the root element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errors.New("document has no root element")
		}
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			root, err := readTokenNode(dec, start)
			if err != nil {
				return nil, err
			}
			return root, nil
		}
	}
}

type tokenNode struct {
	name     xml.Name
	attrs    []Attr
	children []Node
	// parts holds character data and child nodes in document order.
	parts []any
}

// readTokenNode consumes tokens up to the end element matching start.
func readTokenNode(dec *xml.Decoder, start xml.StartElement) (*tokenNode, error) {
	n := &tokenNode{name: start.Name}
	for _, a := range start.Attr {
		// Skip xmlns declarations (they're handled by xml.Decoder)
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		n.attrs = append(n.attrs, Attr{Space: a.Name.Space, Local: a.Name.Local, Value: a.Value})
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			child, err := readTokenNode(dec, tok)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
			n.parts = append(n.parts, child)
		case xml.CharData:
			n.parts = append(n.parts, string(tok))
		case xml.EndElement:
			return n, nil
		}
	}
}

func (n *tokenNode) LocalName() string { return n.name.Local }

func (n *tokenNode) NamespaceURI() string { return n.name.Space }

func (n *tokenNode) Attrs() []Attr { return n.attrs }

func (n *tokenNode) Children() []Node { return n.children }

func (n *tokenNode) Text() string {
	var sb strings.Builder
	for _, p := range n.parts {
		if s, ok := p.(string); ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

func (n *tokenNode) InnerText() string {
	var sb strings.Builder
	n.writeInnerText(&sb)
	return sb.String()
}

func (n *tokenNode) writeInnerText(sb *strings.Builder) {
	for _, p := range n.parts {
		switch p := p.(type) {
		case string:
			sb.WriteString(p)
		case *tokenNode:
			p.writeInnerText(sb)
		}
	}
}
