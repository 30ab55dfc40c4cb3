package formset

import (
	"github.com/livefir/formset/internal/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AddButtonClass marks the default add control
const AddButtonClass = "fastview-add"

// AddAffordance is the control that lets a user add a form. The formset
// shows it only while CanAdd is true.
type AddAffordance interface {
	Node() *html.Node
	SetVisible(visible bool)
}

// AddAffordanceFactory builds the add control for a formset
type AddAffordanceFactory func(fs *Formset) (AddAffordance, error)

// AddButton is the default add control: a button appended to the root
type AddButton struct {
	formset *Formset
	node    *html.Node
}

// NewAddButton appends an "Add" button to the formset root, reusing one
// left by an earlier session on the same markup
func NewAddButton(fs *Formset) (AddAffordance, error) {
	for c := fs.Root().FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == atom.Button && dom.HasClass(c, AddButtonClass) {
			return &AddButton{formset: fs, node: c}, nil
		}
	}

	node := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Button,
		Data:     "button",
		Attr: []html.Attribute{
			{Key: "type", Val: "button"},
			{Key: "class", Val: AddButtonClass},
		},
	}
	dom.SetText(node, "Add")
	fs.Root().AppendChild(node)

	return &AddButton{formset: fs, node: node}, nil
}

// Node returns the button element
func (b *AddButton) Node() *html.Node { return b.node }

// SetVisible shows or hides the button
func (b *AddButton) SetVisible(visible bool) {
	dom.SetHidden(b.node, !visible)
}

// Visible reports whether the button is shown
func (b *AddButton) Visible() bool {
	return !dom.IsHidden(b.node)
}

// Click adds a form, like the button's click handler
func (b *AddButton) Click() (Entry, error) {
	return b.formset.AddForm()
}
