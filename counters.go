package formset

import (
	"strconv"
	"strings"

	"github.com/livefir/formset/internal/dom"
	"golang.org/x/net/html"
)

// Management field suffixes
const (
	TotalFormsField   = "TOTAL_FORMS"
	InitialFormsField = "INITIAL_FORMS"
	MinNumFormsField  = "MIN_NUM_FORMS"
	MaxNumFormsField  = "MAX_NUM_FORMS"
	DeleteField       = "DELETE"
)

// Counters holds the management counters and mirrors the total into its
// hidden field so the server reads it on submit. Only the controller
// writes the total.
type Counters struct {
	totalEl   *html.Node
	initialEl *html.Node

	total   int
	initial int
	min     int
	max     int
}

// Total returns the number of forms counted as part of the submission
func (c *Counters) Total() int { return c.total }

// Initial returns the number of previously persisted forms
func (c *Counters) Initial() int { return c.initial }

// Min returns the minimum number of forms
func (c *Counters) Min() int { return c.min }

// Max returns the maximum number of forms
func (c *Counters) Max() int { return c.max }

// TotalField returns the hidden TOTAL_FORMS element
func (c *Counters) TotalField() *html.Node { return c.totalEl }

func (c *Counters) setTotal(n int) {
	c.total = n
	dom.SetValue(c.totalEl, strconv.Itoa(n))
}

// loadCounters finds the management fields by id anywhere in the document,
// falling back to their name inside the formset root
func loadCounters(root *html.Node, prefix string) (*Counters, error) {
	doc := dom.Document(root)

	find := func(suffix string) (*html.Node, error) {
		name := prefix + "-" + suffix
		el := dom.Find(doc, dom.WithID("id_"+name))
		if el == nil {
			el = dom.Find(root, dom.WithName(name))
		}
		if el == nil {
			return nil, &ConfigError{Prefix: prefix, Anchor: name, Reason: "management field not found"}
		}
		return el, nil
	}

	parse := func(el *html.Node, suffix string) (int, error) {
		raw := strings.TrimSpace(dom.Value(el))
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, &ConfigError{
				Prefix: prefix,
				Anchor: prefix + "-" + suffix,
				Reason: "expected a non-negative integer, got " + strconv.Quote(raw),
			}
		}
		return n, nil
	}

	c := &Counters{}
	var err error

	// The total is recomputed from the discovered forms, so only its
	// presence matters here
	if c.totalEl, err = find(TotalFormsField); err != nil {
		return nil, err
	}
	if c.initialEl, err = find(InitialFormsField); err != nil {
		return nil, err
	}
	if c.initial, err = parse(c.initialEl, InitialFormsField); err != nil {
		return nil, err
	}

	minEl, err := find(MinNumFormsField)
	if err != nil {
		return nil, err
	}
	if c.min, err = parse(minEl, MinNumFormsField); err != nil {
		return nil, err
	}

	maxEl, err := find(MaxNumFormsField)
	if err != nil {
		return nil, err
	}
	if c.max, err = parse(maxEl, MaxNumFormsField); err != nil {
		return nil, err
	}

	return c, nil
}
