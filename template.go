package formset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/livefir/formset/internal/dom"
	"golang.org/x/net/html"
)

// Template is the hidden form markup new forms are instantiated from
type Template struct {
	node        *html.Node
	prefix      string
	placeholder string
	attrs       DataAttributes
}

func findTemplate(root *html.Node, prefix string, config Config) (*Template, error) {
	node := dom.Find(root, dom.WithAttr(config.Attributes.template()))
	if node == nil {
		return nil, &ConfigError{
			Prefix: prefix,
			Anchor: config.Attributes.template(),
			Reason: "template element not found",
		}
	}

	return &Template{
		node:        node,
		prefix:      dom.AttrOr(node, config.Attributes.template(), ""),
		placeholder: config.Placeholder,
		attrs:       config.Attributes,
	}, nil
}

// Node returns the template element
func (t *Template) Node() *html.Node { return t.node }

// Prefix returns the unresolved form prefix, e.g. "items-__prefix__"
func (t *Template) Prefix() string { return t.prefix }

// PrefixFor resolves the form prefix for an index
func (t *Template) PrefixFor(index int) string {
	return strings.Replace(t.prefix, t.placeholder, strconv.Itoa(index), 1)
}

// Markup returns the template content with every placeholder replaced by index.
// A template without the placeholder yields its content unchanged.
func (t *Template) Markup(index int) (string, error) {
	inner, err := dom.InnerHTML(t.node)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(inner, t.placeholder, strconv.Itoa(index)), nil
}

// Instantiate builds a detached form element for index. The copy loses the
// inline style that hides the template and is tagged as a form, so a
// re-parsed document discovers it like any other form.
func (t *Template) Instantiate(index int) (*html.Node, error) {
	markup, err := t.Markup(index)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize template: %w", err)
	}

	node := dom.CloneShallow(t.node)
	dom.RemoveAttr(node, "style")
	dom.RemoveAttr(node, t.attrs.template())
	dom.SetAttr(node, t.attrs.form(), t.PrefixFor(index))
	dom.AddClass(node, "added")

	if err := dom.SetInnerHTML(node, markup); err != nil {
		return nil, fmt.Errorf("failed to build form %d: %w", index, err)
	}
	return node, nil
}

// FieldDefaults maps each template field name, without the template
// prefix, to its default value
func (t *Template) FieldDefaults() map[string]string {
	defaults := make(map[string]string)
	for _, field := range dom.Fields(t.node) {
		name := strings.Replace(dom.Name(field), t.prefix+"-", "", 1)
		defaults[name] = dom.Value(field)
	}
	return defaults
}
