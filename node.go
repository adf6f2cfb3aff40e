package xmlbind

// Node is the read-only view of a parsed element the binder works on.
// Implementations must return attributes and children in document order.
type Node interface {
	// LocalName is the element name without prefix.
	LocalName() string
	// NamespaceURI is the resolved namespace of the element, or "".
	NamespaceURI() string
	// Attrs lists the element's attributes, excluding namespace declarations.
	Attrs() []Attr
	// Children lists the child elements.
	Children() []Node
	// Text returns only the character data directly under the element.
	Text() string
	// InnerText returns the character data of the element and all of its
	// descendants, concatenated in document order.
	InnerText() string
}

// Attr is a single attribute of a Node. Space holds the resolved namespace
// URI; when a prefix cannot be resolved, the prefix itself.
type Attr struct {
	Space string
	Local string
	Value string
}

// DocumentProvider turns raw document bytes into a tree of Nodes.
type DocumentProvider interface {
	ReadDocument(data []byte) (Node, error)
}

// findDescendant returns the first node, depth first and in document order,
// whose local name is tag. The node itself is considered first.
func findDescendant(n Node, tag string) Node {
	if n.LocalName() == tag {
		return n
	}
	for _, c := range n.Children() {
		if found := findDescendant(c, tag); found != nil {
			return found
		}
	}
	return nil
}
