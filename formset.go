// Package formset manages dynamic collections of repeatable form entries in
// an HTML document: the visible list of forms, the hidden management
// counters a server reads on submit, and the min/max bounds, kept consistent
// while forms are added and deleted.
package formset

import (
	"fmt"
	"log"
	"slices"

	"github.com/livefir/formset/internal/dom"
	"golang.org/x/net/html"
)

// Formset controls one collection of forms under a root element. A Formset
// is not safe for concurrent use; every operation runs to completion.
type Formset struct {
	root     *html.Node
	prefix   string
	pkName   string
	config   Config
	counters *Counters
	template *Template
	forms    []Entry
	add      AddAffordance
	events   Emitter
	logger   *log.Logger
}

// New discovers the formset rooted at root, prunes untouched extra forms
// left over from the previous render and renders the result. Missing
// management fields or template are reported as *ConfigError.
func New(root *html.Node, opts ...Option) (*Formset, error) {
	config, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return newFormset(root, config)
}

func newFormset(root *html.Node, config Config) (*Formset, error) {
	prefix, ok := dom.Attr(root, config.Attributes.formset())
	if !ok || prefix == "" {
		return nil, &ConfigError{Anchor: config.Attributes.formset(), Reason: "root element has no formset prefix"}
	}

	counters, err := loadCounters(root, prefix)
	if err != nil {
		return nil, err
	}

	tmpl, err := findTemplate(root, prefix, config)
	if err != nil {
		return nil, err
	}

	fs := &Formset{
		root:     root,
		prefix:   prefix,
		pkName:   dom.AttrOr(root, config.Attributes.pk(), ""),
		config:   config,
		counters: counters,
		template: tmpl,
		logger:   config.Logger,
	}
	for _, l := range config.Listeners {
		fs.events.Subscribe(l)
	}

	nodes := dom.FindAll(root, dom.WithAttr(config.Attributes.form()))

	// The page may have been reloaded with a stale counter
	counters.setTotal(len(nodes))

	removing := len(nodes) > counters.Initial()
	var defaults map[string]string
	if removing {
		defaults = tmpl.FieldDefaults()
	}

	// Walk backwards so extra forms are discarded from the end. Every form
	// is re-examined while removing, not only a trailing run.
	kept := make([]Entry, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		node := nodes[i]
		entry := config.EntryFactory(fs, node, dom.AttrOr(node, config.Attributes.form(), ""))

		if removing && entry.IsExtra(defaults, fs.pkName) {
			dom.Remove(node)
			counters.setTotal(counters.Total() - 1)
			fs.logger.Printf("FORMSET: %s: pruned extra form %s", prefix, entry.Prefix())
			fs.emit(EventDestroyed, entry)
			continue
		}
		kept = append(kept, entry)
	}
	slices.Reverse(kept)
	fs.forms = kept

	fs.add, err = config.AddAffordanceFactory(fs)
	if err != nil {
		return nil, fmt.Errorf("failed to create add control for formset %q: %w", prefix, err)
	}

	fs.Render()

	fs.logger.Printf("FORMSET: %s: initialized with %d forms (initial=%d min=%d max=%d)",
		prefix, counters.Total(), counters.Initial(), counters.Min(), counters.Max())

	return fs, nil
}

// Prefix returns the formset prefix
func (fs *Formset) Prefix() string { return fs.prefix }

// Root returns the formset root element
func (fs *Formset) Root() *html.Node { return fs.root }

// PKName returns the primary-key field name, empty when not configured
func (fs *Formset) PKName() string { return fs.pkName }

// Counters returns the management counters
func (fs *Formset) Counters() *Counters { return fs.counters }

// Template returns the form template
func (fs *Formset) Template() *Template { return fs.template }

// AddAffordance returns the add control
func (fs *Formset) AddAffordance() AddAffordance { return fs.add }

// Total returns the number of counted forms
func (fs *Formset) Total() int { return fs.counters.Total() }

// Forms returns the live forms in document order
func (fs *Formset) Forms() []Entry {
	return slices.Clone(fs.forms)
}

// Form returns the live form with the given prefix
func (fs *Formset) Form(prefix string) (Entry, bool) {
	for _, f := range fs.forms {
		if f.Prefix() == prefix {
			return f, true
		}
	}
	return nil, false
}

// Subscribe adds a lifecycle listener and returns a function removing it
func (fs *Formset) Subscribe(l Listener) (cancel func()) {
	return fs.events.Subscribe(l)
}

// CanAdd reports whether the maximum has not been reached
func (fs *Formset) CanAdd() bool {
	return fs.counters.Total() < fs.counters.Max()
}

// CanDelete reports whether there are more forms than the minimum
func (fs *Formset) CanDelete() bool {
	return fs.counters.Total() > fs.counters.Min()
}

// AddForm instantiates the template at the next index, inserts it after
// the last form (or after the template when there are none) and counts it.
// Bounds are not checked here; the add control is hidden at the maximum.
func (fs *Formset) AddForm() (Entry, error) {
	// Forms are 0-indexed, so the next free index is the current count
	index := fs.counters.Total()

	node, err := fs.template.Instantiate(index)
	if err != nil {
		return nil, fmt.Errorf("failed to add form to formset %q: %w", fs.prefix, err)
	}

	last := fs.template.Node()
	if n := len(fs.forms); n > 0 {
		last = fs.forms[n-1].Node()
	}
	dom.InsertAfter(last, node)

	entry := fs.config.EntryFactory(fs, node, fs.template.PrefixFor(index))
	fs.forms = append(fs.forms, entry)
	fs.counters.setTotal(index + 1)
	fs.Render()

	fs.logger.Printf("FORMSET: %s: added form %s (total=%d)", fs.prefix, entry.Prefix(), fs.counters.Total())

	fs.emit(EventCreated, entry)
	fs.emit(EventAdded, entry)
	return entry, nil
}

// FormDeleted is called by an entry after it was marked deleted. The form
// stays in the document so the server can process the deletion.
func (fs *Formset) FormDeleted(e Entry) {
	fs.counters.setTotal(fs.counters.Total() - 1)
	fs.Render()
	fs.logger.Printf("FORMSET: %s: deleted form %s (total=%d)", fs.prefix, e.Prefix(), fs.counters.Total())
	fs.emit(EventDeleted, e)
}

// FormUndeleted is called by an entry after its deleted mark was cleared
func (fs *Formset) FormUndeleted(e Entry) {
	fs.counters.setTotal(fs.counters.Total() + 1)
	fs.Render()
	fs.logger.Printf("FORMSET: %s: restored form %s (total=%d)", fs.prefix, e.Prefix(), fs.counters.Total())
	fs.emit(EventAdded, e)
}

// Render re-renders every form and shows the add control only while
// another form may be added
func (fs *Formset) Render() {
	for _, f := range fs.forms {
		f.Render()
	}
	if fs.add != nil {
		fs.add.SetVisible(fs.CanAdd())
	}
}

func (fs *Formset) emit(kind EventKind, e Entry) {
	fs.events.Emit(Event{Kind: kind, Formset: fs, Form: e})
}

// State is a serializable snapshot of a formset
type State struct {
	Prefix    string      `json:"prefix"`
	Total     int         `json:"total"`
	Initial   int         `json:"initial"`
	Min       int         `json:"min"`
	Max       int         `json:"max"`
	CanAdd    bool        `json:"can_add"`
	CanDelete bool        `json:"can_delete"`
	Forms     []FormState `json:"forms"`
}

// FormState describes one live form
type FormState struct {
	Prefix  string `json:"prefix"`
	Deleted bool   `json:"deleted"`
	Added   bool   `json:"added,omitempty"`
}

// Snapshot returns the current counters and form states
func (fs *Formset) Snapshot() State {
	state := State{
		Prefix:    fs.prefix,
		Total:     fs.counters.Total(),
		Initial:   fs.counters.Initial(),
		Min:       fs.counters.Min(),
		Max:       fs.counters.Max(),
		CanAdd:    fs.CanAdd(),
		CanDelete: fs.CanDelete(),
		Forms:     make([]FormState, 0, len(fs.forms)),
	}
	for _, f := range fs.forms {
		state.Forms = append(state.Forms, FormState{
			Prefix:  f.Prefix(),
			Deleted: f.IsDeleted(),
			Added:   dom.HasClass(f.Node(), "added"),
		})
	}
	return state
}
