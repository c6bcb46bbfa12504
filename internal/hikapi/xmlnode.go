// Package hikapi decodes the XML payloads exposed by a Hikvision camera's
// ISAPI surface (device info, event triggers, and alert notifications) and
// carries the event-type taxonomy used to interpret them.
package hikapi

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// node is a namespace-agnostic XML element tree. Hikvision firmwares are
// wildly inconsistent about which XML namespace (if any) decorates a given
// element, so lookups below only ever compare the element's local name.
//
// No generic XML-tree library appears anywhere in the example pack, so this
// is built directly on encoding/xml's ",any" struct tag instead of reaching
// for a third-party dependency.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
	Text     string     `xml:",chardata"`
}

func parseXML(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root node
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	return &root, nil
}

// localName returns the element's tag name without any namespace prefix.
func (n *node) localName() string {
	return n.XMLName.Local
}

// child returns the first direct child with the given local name.
func (n *node) child(name string) *node {
	for i := range n.Children {
		if n.Children[i].localName() == name {
			return &n.Children[i]
		}
	}
	return nil
}

// text returns the element's own character data, trimmed.
func (n *node) text() string {
	return strings.TrimSpace(n.Text)
}

// childText returns the trimmed text of the first child with the given
// name, and whether it was found at all.
func (n *node) childText(name string) (string, bool) {
	c := n.child(name)
	if c == nil {
		return "", false
	}
	return c.text(), true
}
