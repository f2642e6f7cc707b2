package xmldoc

import (
	"strings"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

// Attr is a single attribute. Attribute lists are slices so that output
// order matches insertion order.
type Attr struct {
	Name  string
	Value string
}

// Attrs builds an attribute list from alternating name/value pairs.
// A trailing name without a value is ignored.
func Attrs(pairs ...string) []Attr {
	attrs := make([]Attr, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		attrs = append(attrs, Attr{Name: pairs[i], Value: pairs[i+1]})
	}
	return attrs
}

// Node is either a group (Children may be empty) or a leaf tag.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string
	Escape   bool
	leaf     bool
}

// Document is a stack-based XML writer.
type Document struct {
	root  *Node
	stack []*Node
}

// New returns an empty document with only the implicit root open.
func New() *Document {
	root := &Node{}
	return &Document{root: root, stack: []*Node{root}}
}

func (d *Document) top() *Node {
	return d.stack[len(d.stack)-1]
}

// OpenGroup appends a group under the current top and makes it the new top.
func (d *Document) OpenGroup(name string, attrs ...Attr) {
	group := &Node{Name: name, Attrs: attrs}
	parent := d.top()
	parent.Children = append(parent.Children, group)
	d.stack = append(d.stack, group)
}

// CloseGroup closes the current top group.
func (d *Document) CloseGroup() error {
	if len(d.stack) <= 1 {
		return foundationerrors.StructuralError("close group with no open group").Build()
	}
	d.stack = d.stack[:len(d.stack)-1]
	return nil
}

// AddTag appends a leaf under the current top. With escape set the text is
// written as CDATA; otherwise markup-special characters are entity-escaped.
func (d *Document) AddTag(name, text string, escape bool, attrs ...Attr) {
	leaf := &Node{Name: name, Text: text, Escape: escape, Attrs: attrs, leaf: true}
	parent := d.top()
	parent.Children = append(parent.Children, leaf)
}

// Depth returns the number of open groups, excluding the root.
func (d *Document) Depth() int {
	return len(d.stack) - 1
}

// Bytes serializes the document. It fails if any group is still open.
func (d *Document) Bytes() ([]byte, error) {
	s, err := d.String()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// String serializes the document. It fails if any group is still open.
func (d *Document) String() (string, error) {
	if open := d.Depth(); open != 0 {
		return "", foundationerrors.StructuralError("serialize with open groups").
			WithContext("open_groups", open).
			WithContext("top", d.top().Name).
			Build()
	}
	var sb strings.Builder
	for _, child := range d.root.Children {
		writeNode(&sb, child, 0)
	}
	return sb.String(), nil
}

func writeNode(sb *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("\t", depth)
	sb.WriteString(indent)
	sb.WriteByte('<')
	sb.WriteString(n.Name)
	writeAttrs(sb, n.Attrs)

	if n.leaf {
		if n.Text == "" {
			sb.WriteString(" />\n")
			return
		}
		sb.WriteByte('>')
		if n.Escape {
			sb.WriteString(cdata(n.Text))
		} else {
			sb.WriteString(escapeText(n.Text))
		}
		sb.WriteString("</")
		sb.WriteString(n.Name)
		sb.WriteString(">\n")
		return
	}

	sb.WriteString(">\n")
	for _, child := range n.Children {
		writeNode(sb, child, depth+1)
	}
	sb.WriteString(indent)
	sb.WriteString("</")
	sb.WriteString(n.Name)
	sb.WriteString(">\n")
}

func writeAttrs(sb *strings.Builder, attrs []Attr) {
	for _, a := range attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		sb.WriteString(attrEscaper.Replace(a.Value))
		sb.WriteByte('"')
	}
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "\r", "&#13;", "\n", "&#10;", "\t", "&#9;")
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// cdata wraps s in a CDATA section. An embedded "]]>" terminator is split
// across two sections.
func cdata(s string) string {
	return "<![CDATA[" + strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>") + "]]>"
}
