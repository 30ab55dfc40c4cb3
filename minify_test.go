package formset

import (
	"strings"
	"testing"
)

func TestMinifyHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		absent   []string
	}{
		{
			name:     "collapses whitespace",
			input:    "<div>\n    <p>  Hello   world  </p>\n</div>",
			contains: []string{"<div><p>Hello world</p></div>"},
		},
		{
			name:     "keeps hidden counters",
			input:    `<input type="hidden" name="items-TOTAL_FORMS" value="0">`,
			contains: []string{`type="hidden"`, `value="0"`},
		},
		{
			name:     "keeps empty defaults",
			input:    `<input type="text" name="items-0-title" value="">`,
			contains: []string{`type="text"`, `value=""`},
		},
		{
			name:     "keeps data attributes",
			input:    `<div data-fastview-formset-template="items-__prefix__" style="display: none;">  <span>x</span>  </div>`,
			contains: []string{`data-fastview-formset-template="items-__prefix__"`, "</div>"},
		},
		{
			name:   "plain text",
			input:  "  just   text ",
			absent: []string{"  "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinifyHTML(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("MinifyHTML(%q) = %q, missing %q", tt.input, got, want)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(got, unwanted) {
					t.Errorf("MinifyHTML(%q) = %q, should not contain %q", tt.input, got, unwanted)
				}
			}
		})
	}
}

func TestMinifiedPageReattaches(t *testing.T) {
	markup := itemsPage(2, 2, 0, 5, testEntry{pk: "1", title: "A"}, testEntry{pk: "2", title: "B b"})

	page, err := AttachString(MinifyHTML(markup))
	if err != nil {
		t.Fatalf("AttachString failed: %v", err)
	}
	fs, _ := page.Formset("items")
	if fs.Total() != 2 {
		t.Errorf("Total = %d, want 2", fs.Total())
	}
}
