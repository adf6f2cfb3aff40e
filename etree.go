package xmlbind

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
)

// EtreeProvider reads documents with github.com/beevik/etree. It is the
// default DocumentProvider.
type EtreeProvider struct {
	// Settings are passed to every etree.Document created by the provider.
	Settings *etree.ReadSettings
}

// ReadDocument parses data into an etree document and returns its root.
func (p EtreeProvider) ReadDocument(data []byte) (Node, error) {
	doc := etree.NewDocument()
	if p.Settings != nil {
		doc.ReadSettings = *p.Settings
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return newEtreeNode(root), nil
}

// etreeNode adapts an *etree.Element. Children and attributes are computed
// once, the binder walks them repeatedly while resolving candidate tags.
type etreeNode struct {
	el       *etree.Element
	attrs    []Attr
	children []Node
}

func newEtreeNode(el *etree.Element) *etreeNode {
	n := &etreeNode{el: el}
	for i := range el.Attr {
		a := &el.Attr[i]
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		space := a.NamespaceURI()
		if space == "" {
			space = a.Space
		}
		n.attrs = append(n.attrs, Attr{Space: space, Local: a.Key, Value: a.Value})
	}
	for _, c := range el.ChildElements() {
		n.children = append(n.children, newEtreeNode(c))
	}
	return n
}

func (n *etreeNode) LocalName() string { return n.el.Tag }

func (n *etreeNode) NamespaceURI() string {
	if uri := n.el.NamespaceURI(); uri != "" {
		return uri
	}
	return n.el.Space
}

func (n *etreeNode) Attrs() []Attr { return n.attrs }

func (n *etreeNode) Children() []Node { return n.children }

func (n *etreeNode) Text() string {
	var sb strings.Builder
	for _, tok := range n.el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return sb.String()
}

func (n *etreeNode) InnerText() string {
	var sb strings.Builder
	writeInnerText(&sb, n.el)
	return sb.String()
}

func writeInnerText(sb *strings.Builder, el *etree.Element) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			writeInnerText(sb, t)
		}
	}
}
