package formset

import (
	"strings"
	"testing"

	"github.com/livefir/formset/internal/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateMarkup(t *testing.T) {
	fs, _ := attachItems(t, itemsPage(0, 0, 0, 5))
	tmpl := fs.Template()

	inner, err := dom.InnerHTML(tmpl.Node())
	require.NoError(t, err)

	markup, err := tmpl.Markup(5)
	require.NoError(t, err)

	assert.NotContains(t, markup, DefaultPlaceholder)
	assert.Equal(t, strings.ReplaceAll(inner, "__prefix__", "5"), markup)
	assert.Contains(t, markup, `name="items-5-title"`)
	assert.Contains(t, markup, `for="id_items-5-title"`)
	assert.Contains(t, markup, "Title 5")

	// Everything but the placeholder is untouched
	assert.Equal(t, len(inner)-strings.Count(inner, "__prefix__")*(len("__prefix__")-1), len(markup))
}

func TestTemplatePrefix(t *testing.T) {
	fs, _ := attachItems(t, itemsPage(0, 0, 0, 5))
	tmpl := fs.Template()

	assert.Equal(t, "items-__prefix__", tmpl.Prefix())
	assert.Equal(t, "items-0", tmpl.PrefixFor(0))
	assert.Equal(t, "items-12", tmpl.PrefixFor(12))
}

func TestTemplateInstantiate(t *testing.T) {
	fs, _ := attachItems(t, itemsPage(0, 0, 0, 5))
	tmpl := fs.Template()

	node, err := tmpl.Instantiate(3)
	require.NoError(t, err)

	assert.Nil(t, node.Parent, "instantiated form should be detached")
	assert.False(t, dom.HasAttr(node, "style"))
	assert.False(t, dom.HasAttr(node, "data-fastview-formset-template"))
	assert.Equal(t, "items-3", dom.AttrOr(node, "data-fastview-formset-form", ""))
	assert.Equal(t, []string{"item", "added"}, dom.Classes(node))
	assert.NotNil(t, dom.Find(node, dom.WithName("items-3-DELETE")))

	// The template itself stays hidden and unchanged
	assert.True(t, dom.IsHidden(tmpl.Node()))
	assert.NotNil(t, dom.Find(tmpl.Node(), dom.WithName("items-__prefix__-title")))
}

func TestTemplateWithoutPlaceholder(t *testing.T) {
	markup := strings.NewReplacer("__prefix__-", "fixed-", "Title __prefix__", "Title").Replace(itemsPage(0, 0, 0, 5))
	fs, _ := attachItems(t, markup)

	inner, err := dom.InnerHTML(fs.Template().Node())
	require.NoError(t, err)

	got, err := fs.Template().Markup(7)
	require.NoError(t, err)
	assert.Equal(t, inner, got, "a template without the placeholder yields its content unchanged")
}

func TestTemplateFieldDefaults(t *testing.T) {
	markup := strings.Replace(itemsPage(0, 0, 0, 5),
		`<p class="del">`,
		`<select name="items-__prefix__-size"><option value="s">S</option><option value="m" selected>M</option></select>`+
			`<textarea name="items-__prefix__-notes">n/a</textarea><p class="del">`, 1)
	fs, _ := attachItems(t, markup)

	want := map[string]string{
		"id":     "",
		"title":  "",
		"size":   "m",
		"notes":  "n/a",
		"DELETE": "on",
	}
	assert.Equal(t, want, fs.Template().FieldDefaults())
}

func TestCustomPlaceholder(t *testing.T) {
	markup := strings.ReplaceAll(itemsPage(0, 0, 0, 5), "__prefix__", "{i}")
	fs, _ := attachItems(t, markup, WithPlaceholder("{i}"))

	entry, err := fs.AddForm()
	require.NoError(t, err)
	assert.Equal(t, "items-0", entry.Prefix())
	assert.NotNil(t, dom.Find(entry.Node(), dom.WithName("items-0-title")))
}
