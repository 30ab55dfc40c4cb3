package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Name returns the name attribute of a field
func Name(n *html.Node) string {
	return AttrOr(n, "name", "")
}

// Value returns the current value of a field the way a browser reports
// element.value: input value attribute (checkbox and radio default to "on"),
// textarea text, and the selected option of a select.
func Value(n *html.Node) string {
	switch n.DataAtom {
	case atom.Textarea:
		return Text(n)
	case atom.Select:
		opt := selectedOption(n)
		if opt == nil {
			return ""
		}
		return optionValue(opt)
	}
	if v, ok := Attr(n, "value"); ok {
		return v
	}
	switch strings.ToLower(AttrOr(n, "type", "")) {
	case "checkbox", "radio":
		return "on"
	}
	return ""
}

// SetValue updates the current value of a field
func SetValue(n *html.Node, val string) {
	switch n.DataAtom {
	case atom.Textarea:
		SetText(n, val)
	case atom.Select:
		for _, opt := range options(n) {
			if optionValue(opt) == val {
				SetAttr(opt, "selected", "")
			} else {
				RemoveAttr(opt, "selected")
			}
		}
	default:
		SetAttr(n, "value", val)
	}
}

// Checked reports whether a checkbox or radio input is checked
func Checked(n *html.Node) bool {
	return n != nil && HasAttr(n, "checked")
}

// SetChecked sets or clears the checked attribute
func SetChecked(n *html.Node, checked bool) {
	if checked {
		SetAttr(n, "checked", "")
	} else {
		RemoveAttr(n, "checked")
	}
}

func options(sel *html.Node) []*html.Node {
	return FindAll(sel, func(n *html.Node) bool { return n.DataAtom == atom.Option })
}

// selectedOption follows single-select semantics: the last option marked
// selected wins, otherwise the first option.
func selectedOption(sel *html.Node) *html.Node {
	opts := options(sel)
	if len(opts) == 0 {
		return nil
	}
	var selected *html.Node
	for _, opt := range opts {
		if HasAttr(opt, "selected") {
			selected = opt
		}
	}
	if selected == nil {
		selected = opts[0]
	}
	return selected
}

func optionValue(opt *html.Node) string {
	if v, ok := Attr(opt, "value"); ok {
		return v
	}
	return strings.Join(strings.Fields(Text(opt)), " ")
}
