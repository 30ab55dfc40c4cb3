// Package dom provides the small set of element operations the formset
// controller needs on top of golang.org/x/net/html: attribute and class
// manipulation, descendant queries and browser-compatible field values.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Predicate reports whether a node matches a query
type Predicate func(n *html.Node) bool

// Parse parses a complete HTML document
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseString parses a complete HTML document from a string
func ParseString(s string) (*html.Node, error) {
	return Parse(strings.NewReader(s))
}

// IsElement reports whether n is an element node
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Attr returns the value of an attribute and whether it is present
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or def when it is absent
func AttrOr(n *html.Node, key, def string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return def
}

// HasAttr reports whether the attribute is present
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets an attribute, replacing an existing value
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes an attribute if present
func RemoveAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}

// Walk visits every descendant of root in document order, excluding root
// itself. Returning false from fn stops the walk.
func Walk(root *html.Node, fn func(n *html.Node) bool) {
	walk(root, fn)
}

func walk(n *html.Node, fn func(n *html.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !fn(c) {
			return false
		}
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// FindAll returns all descendant elements matching pred in document order
func FindAll(root *html.Node, pred Predicate) []*html.Node {
	var found []*html.Node
	if root == nil {
		return found
	}
	Walk(root, func(n *html.Node) bool {
		if IsElement(n) && pred(n) {
			found = append(found, n)
		}
		return true
	})
	return found
}

// Find returns the first descendant element matching pred, or nil
func Find(root *html.Node, pred Predicate) *html.Node {
	var found *html.Node
	if root == nil {
		return nil
	}
	Walk(root, func(n *html.Node) bool {
		if IsElement(n) && pred(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// WithAttr matches elements carrying the attribute
func WithAttr(key string) Predicate {
	return func(n *html.Node) bool {
		return HasAttr(n, key)
	}
}

// WithAttrValue matches elements whose attribute equals val
func WithAttrValue(key, val string) Predicate {
	return func(n *html.Node) bool {
		v, ok := Attr(n, key)
		return ok && v == val
	}
}

// WithID matches the element with the given id
func WithID(id string) Predicate {
	return WithAttrValue("id", id)
}

// WithName matches elements with the given name attribute
func WithName(name string) Predicate {
	return WithAttrValue("name", name)
}

// IsField matches input, select and textarea elements
func IsField(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Input, atom.Select, atom.Textarea:
		return true
	}
	return false
}

// Fields returns all form fields below root in document order
func Fields(root *html.Node) []*html.Node {
	return FindAll(root, IsField)
}

// Document returns the topmost ancestor of n
func Document(n *html.Node) *html.Node {
	for n != nil && n.Parent != nil {
		n = n.Parent
	}
	return n
}

// Contains reports whether n is root or one of its descendants
func Contains(root, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// Remove detaches n from its parent
func Remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertAfter inserts n as the next sibling of ref
func InsertAfter(ref, n *html.Node) {
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// CloneShallow copies an element with its attributes but without children
func CloneShallow(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	clone.Attr = make([]html.Attribute, len(n.Attr))
	copy(clone.Attr, n.Attr)
	return clone
}

// InnerHTML serializes the children of n
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render node: %w", err)
		}
	}
	return buf.String(), nil
}

// OuterHTML serializes n including its own tag
func OuterHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render node: %w", err)
	}
	return buf.String(), nil
}

// SetInnerHTML replaces the children of n with markup parsed in the context of n
func SetInnerHTML(n *html.Node, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("failed to parse fragment: %w", err)
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// Text returns the concatenated text content of n
func Text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// SetText replaces the children of n with a single text node
func SetText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
