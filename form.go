package formset

import (
	"strings"

	"github.com/livefir/formset/internal/dom"
	"golang.org/x/net/html"
)

// Entry is one repeatable form within a formset. Entries are created and
// destroyed only by their Formset.
type Entry interface {
	// Prefix returns the resolved field name prefix, e.g. "items-2"
	Prefix() string
	// Node returns the form's root element
	Node() *html.Node
	// IsDeleted reports whether the delete toggle is present and checked
	IsDeleted() bool
	// IsExtra reports whether the form is an untouched extra form that can
	// be pruned at startup
	IsExtra(fieldDefaults map[string]string, pkName string) bool
	// Delete and Undelete are no-ops when already in the requested state
	Delete()
	Undelete()
	// Render updates the form's deleted state and delete toggle visibility
	Render()
}

// EntryFactory wraps a form element found in, or added to, a formset
type EntryFactory func(fs *Formset, node *html.Node, prefix string) Entry

// DefaultEntryFactory wraps elements with NewForm
func DefaultEntryFactory(fs *Formset, node *html.Node, prefix string) Entry {
	return NewForm(fs, node, prefix)
}

// Form is the default Entry. Its delete checkbox is named "{prefix}-DELETE"
// and its parent element is shown or hidden depending on whether the
// formset allows another deletion.
type Form struct {
	formset   *Formset
	node      *html.Node
	prefix    string
	deleteEl  *html.Node
	deleteCon *html.Node
}

// NewForm wraps a form element and renders it
func NewForm(fs *Formset, node *html.Node, prefix string) *Form {
	f := &Form{
		formset: fs,
		node:    node,
		prefix:  prefix,
	}

	// CSS hook for layouts that differ once the controller is active
	dom.AddClass(node, "js-enabled")

	f.deleteEl = dom.Find(node, dom.WithName(prefix+"-"+DeleteField))
	if f.deleteEl != nil && dom.IsElement(f.deleteEl.Parent) {
		f.deleteCon = f.deleteEl.Parent
	}

	f.Render()
	return f
}

// Prefix returns the resolved field name prefix
func (f *Form) Prefix() string { return f.prefix }

// Node returns the form's root element
func (f *Form) Node() *html.Node { return f.node }

// DeleteControl returns the delete checkbox, or nil when the form has none
func (f *Form) DeleteControl() *html.Node { return f.deleteEl }

// IsDeleted reports whether the delete checkbox is present and checked
func (f *Form) IsDeleted() bool {
	return f.deleteEl != nil && dom.Checked(f.deleteEl)
}

// IsExtra reports whether every field still holds its template default and
// the primary key is empty. A field unknown to the template, a non-default
// value or a primary key makes the form not extra.
func (f *Form) IsExtra(fieldDefaults map[string]string, pkName string) bool {
	for _, field := range dom.Fields(f.node) {
		name := strings.Replace(dom.Name(field), f.prefix+"-", "", 1)
		value := dom.Value(field)

		if name == pkName && value != "" {
			return false
		}
		if def, ok := fieldDefaults[name]; ok && value == def {
			continue
		}
		return false
	}
	return true
}

// Delete marks the form deleted
func (f *Form) Delete() {
	f.SetDeleteChecked(true)
}

// Undelete clears the deleted mark
func (f *Form) Undelete() {
	f.SetDeleteChecked(false)
}

// SetDeleteChecked is the change handler of the delete checkbox: it is the
// single input edge for delete and undelete. Setting the current state
// again does nothing, the way a browser fires no change event.
func (f *Form) SetDeleteChecked(checked bool) {
	if f.deleteEl == nil || dom.Checked(f.deleteEl) == checked {
		return
	}
	dom.SetChecked(f.deleteEl, checked)
	f.changed()
}

func (f *Form) changed() {
	if f.IsDeleted() {
		f.formset.FormDeleted(f)
	} else {
		f.formset.FormUndeleted(f)
	}
}

// Render updates the deleted class and hides the delete control when the
// formset is at its minimum
func (f *Form) Render() {
	if f.deleteCon == nil {
		return
	}

	dom.ToggleClass(f.node, "deleted", f.IsDeleted())
	dom.SetHidden(f.deleteCon, !f.formset.CanDelete())
}
