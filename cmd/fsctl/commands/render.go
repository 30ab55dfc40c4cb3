package commands

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/livefir/formset"
	"github.com/livefir/formset/cmd/fsctl/internal/config"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>.formset-form.deleted { opacity: 0.5; }</style>
</head>
<body>
<form method="post" action="{{.Action}}">
{{.Formset}}
<button type="submit" class="formset-submit">Save</button>
</form>
</body>
</html>
`))

// Render handles `fsctl render <definition.yaml> [--page]`
func Render(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("definition file required: fsctl render <definition.yaml> [--page]")
	}

	wrap := false
	for _, arg := range args[1:] {
		switch arg {
		case "--page":
			wrap = true
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	def, err := config.LoadDefinition(args[0])
	if err != nil {
		return err
	}

	var markup []byte
	if wrap {
		markup, err = renderPage(def, cfg, "")
	} else {
		var buf bytes.Buffer
		err = formset.RenderDefinition(&buf, def, formsetOptions(cfg)...)
		markup = buf.Bytes()
	}
	if err != nil {
		return err
	}

	return writeHTML(string(markup), cfg.Minify)
}

// renderPage renders def inside a complete HTML document with a form
// posting to action
func renderPage(def *formset.Definition, cfg *config.Config, action string) ([]byte, error) {
	var fsBuf bytes.Buffer
	if err := formset.RenderDefinition(&fsBuf, def, formsetOptions(cfg)...); err != nil {
		return nil, err
	}

	title := def.Title
	if title == "" {
		title = def.Prefix
	}

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title   string
		Action  string
		Formset template.HTML
	}{
		Title:   title,
		Action:  action,
		Formset: template.HTML(fsBuf.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}
