package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Classes returns the class list of n
func Classes(n *html.Node) []string {
	return strings.Fields(AttrOr(n, "class", ""))
}

// HasClass reports whether n carries the class
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass adds a class unless it is already present
func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	classes := append(Classes(n), class)
	SetAttr(n, "class", strings.Join(classes, " "))
}

// RemoveClass removes every occurrence of the class
func RemoveClass(n *html.Node, class string) {
	if !HasAttr(n, "class") {
		return
	}
	var kept []string
	for _, c := range Classes(n) {
		if c != class {
			kept = append(kept, c)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// ToggleClass adds the class when on is true and removes it otherwise
func ToggleClass(n *html.Node, class string, on bool) {
	if on {
		AddClass(n, class)
	} else {
		RemoveClass(n, class)
	}
}

type styleDecl struct {
	prop, val string
}

func parseStyle(s string) []styleDecl {
	var decls []styleDecl
	for _, part := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		decls = append(decls, styleDecl{prop: prop, val: strings.TrimSpace(val)})
	}
	return decls
}

func writeStyle(n *html.Node, decls []styleDecl) {
	if len(decls) == 0 {
		RemoveAttr(n, "style")
		return
	}
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.prop + ": " + d.val + ";"
	}
	SetAttr(n, "style", strings.Join(parts, " "))
}

// StyleProperty returns an inline style property value
func StyleProperty(n *html.Node, prop string) (string, bool) {
	prop = strings.ToLower(prop)
	for _, d := range parseStyle(AttrOr(n, "style", "")) {
		if d.prop == prop {
			return d.val, true
		}
	}
	return "", false
}

// SetStyleProperty sets an inline style property, keeping other declarations
func SetStyleProperty(n *html.Node, prop, val string) {
	prop = strings.ToLower(prop)
	decls := parseStyle(AttrOr(n, "style", ""))
	for i, d := range decls {
		if d.prop == prop {
			decls[i].val = val
			writeStyle(n, decls)
			return
		}
	}
	writeStyle(n, append(decls, styleDecl{prop: prop, val: val}))
}

// RemoveStyleProperty removes an inline style property; the style attribute
// is dropped once it is empty
func RemoveStyleProperty(n *html.Node, prop string) {
	if !HasAttr(n, "style") {
		return
	}
	prop = strings.ToLower(prop)
	decls := parseStyle(AttrOr(n, "style", ""))
	kept := decls[:0]
	for _, d := range decls {
		if d.prop != prop {
			kept = append(kept, d)
		}
	}
	writeStyle(n, kept)
}

// IsHidden reports whether n is hidden with an inline display: none
func IsHidden(n *html.Node) bool {
	v, ok := StyleProperty(n, "display")
	return ok && v == "none"
}

// SetHidden shows or hides n through its inline display property
func SetHidden(n *html.Node, hidden bool) {
	if hidden {
		SetStyleProperty(n, "display", "none")
	} else {
		RemoveStyleProperty(n, "display")
	}
}
