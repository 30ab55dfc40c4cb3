package formset

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/livefir/formset/internal/dom"
	"golang.org/x/net/html"
)

// Page holds the controllers of every formset found in a document
type Page struct {
	doc      *html.Node
	formsets []*Formset
}

// Attach initializes a controller for every formset root in doc, in
// document order. Any configuration error fails the whole page.
func Attach(doc *html.Node, opts ...Option) (*Page, error) {
	config, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	page := &Page{doc: doc}
	for _, root := range dom.FindAll(doc, dom.WithAttr(config.Attributes.formset())) {
		fs, err := newFormset(root, config)
		if err != nil {
			return nil, err
		}
		page.formsets = append(page.formsets, fs)
	}

	config.Logger.Printf("FORMSET: attached %d formsets", len(page.formsets))
	return page, nil
}

// AttachReader parses an HTML document and attaches its formsets
func AttachReader(r io.Reader, opts ...Option) (*Page, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, err
	}
	return Attach(doc, opts...)
}

// AttachString parses markup and attaches its formsets
func AttachString(markup string, opts ...Option) (*Page, error) {
	return AttachReader(strings.NewReader(markup), opts...)
}

// Document returns the page document
func (p *Page) Document() *html.Node { return p.doc }

// Formsets returns the page's formsets in document order
func (p *Page) Formsets() []*Formset {
	out := make([]*Formset, len(p.formsets))
	copy(out, p.formsets)
	return out
}

// Formset returns the formset with the given prefix
func (p *Page) Formset(prefix string) (*Formset, bool) {
	for _, fs := range p.formsets {
		if fs.Prefix() == prefix {
			return fs, true
		}
	}
	return nil, false
}

// Snapshot returns the state of every formset
func (p *Page) Snapshot() []State {
	states := make([]State, 0, len(p.formsets))
	for _, fs := range p.formsets {
		states = append(states, fs.Snapshot())
	}
	return states
}

// Render writes the current document
func (p *Page) Render(w io.Writer) error {
	if err := html.Render(w, p.doc); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// HTML returns the current document as a string
func (p *Page) HTML() (string, error) {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
