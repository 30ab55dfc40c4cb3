package formset

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Definition describes a formset for server-side rendering. It mirrors the
// options of an inline formset: extra blank forms, bounds and deletion.
type Definition struct {
	Prefix    string              `yaml:"prefix" json:"prefix" validate:"required,excludesall=<>'\""`
	Title     string              `yaml:"title,omitempty" json:"title,omitempty"`
	PKField   string              `yaml:"pk_field,omitempty" json:"pk_field,omitempty"`
	Fields    []FieldDef          `yaml:"fields" json:"fields" validate:"required,min=1,dive"`
	Initial   []map[string]string `yaml:"initial,omitempty" json:"initial,omitempty"`
	Extra     *int                `yaml:"extra,omitempty" json:"extra,omitempty" validate:"omitempty,min=0"`
	MinNum    int                 `yaml:"min_num,omitempty" json:"min_num,omitempty" validate:"min=0"`
	MaxNum    *int                `yaml:"max_num,omitempty" json:"max_num,omitempty" validate:"omitempty,min=0"`
	CanDelete *bool               `yaml:"can_delete,omitempty" json:"can_delete,omitempty"`
}

// FieldDef describes one field of each form
type FieldDef struct {
	Name    string   `yaml:"name" json:"name" validate:"required,excludesall=<>'\""`
	Label   string   `yaml:"label,omitempty" json:"label,omitempty"`
	Type    string   `yaml:"type,omitempty" json:"type,omitempty" validate:"omitempty,oneof=text number email date hidden checkbox textarea select"`
	Default string   `yaml:"default,omitempty" json:"default,omitempty"`
	Choices []Choice `yaml:"choices,omitempty" json:"choices,omitempty" validate:"required_if=Type select,dive"`
}

// Choice is one option of a select field
type Choice struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// Defaults used when a Definition leaves them unset
const (
	DefaultExtra   = 3
	DefaultMaxNum  = 1000
	DefaultPKField = "id"
)

// Validate checks the definition
func (d *Definition) Validate() error {
	if err := validate.Struct(d); err != nil {
		return validationToMultiError(err)
	}
	for _, f := range d.Fields {
		if strings.ContainsAny(f.Name, " \t\n") {
			return FieldError{Field: "Fields", Message: fmt.Sprintf("field name %q contains whitespace", f.Name)}
		}
		if f.Name == d.pkField() {
			return FieldError{Field: "Fields", Message: fmt.Sprintf("%s is reserved for the primary key", f.Name)}
		}
		if f.Name == DeleteField {
			return FieldError{Field: "Fields", Message: DeleteField + " is reserved for the delete toggle"}
		}
	}
	return nil
}

func (d *Definition) pkField() string {
	if d.PKField == "" {
		return DefaultPKField
	}
	return d.PKField
}

func (d *Definition) extra() int {
	if d.Extra == nil {
		return DefaultExtra
	}
	return *d.Extra
}

func (d *Definition) maxNum() int {
	if d.MaxNum == nil {
		return DefaultMaxNum
	}
	return *d.MaxNum
}

func (d *Definition) canDelete() bool {
	return d.CanDelete == nil || *d.CanDelete
}

// TotalForms returns the number of forms rendered: the initial rows plus
// extra blank forms, at least MinNum and at most MaxNum unless more rows
// already exist
func (d *Definition) TotalForms() int {
	total := len(d.Initial) + d.extra()
	if total < d.MinNum {
		total = d.MinNum
	}
	limit := d.maxNum()
	if len(d.Initial) > limit {
		limit = len(d.Initial)
	}
	if total > limit {
		total = limit
	}
	return total
}

var titleCaser = cases.Title(language.English)

func humanize(name string) string {
	return titleCaser.String(strings.NewReplacer("_", " ", "-", " ").Replace(name))
}

type renderField struct {
	Name    string
	ID      string
	Label   string
	Type    string
	Value   string
	Checked bool
	Choices []renderChoice
}

type renderChoice struct {
	Value    string
	Label    string
	Selected bool
}

type renderForm struct {
	Attr      template.HTMLAttr
	Hidden    bool
	PKName    string
	PKValue   string
	Fields    []renderField
	CanDelete bool
	DeleteID  string
	Delete    string
}

type renderData struct {
	RootAttr template.HTMLAttr
	PKAttr   template.HTMLAttr
	Prefix   string
	Title    string
	Total    int
	Initial  int
	Min      int
	Max      int
	Forms    []renderForm
	Template renderForm
}

var definitionTemplate = template.Must(template.New("formset").Parse(`
{{- define "field" -}}
{{- if eq .Type "hidden" -}}
<input type="hidden" name="{{.Name}}" id="{{.ID}}" value="{{.Value}}">
{{- else -}}
<p class="formset-field">
<label for="{{.ID}}">{{.Label}}</label>
{{- if eq .Type "textarea"}}
<textarea name="{{.Name}}" id="{{.ID}}">{{.Value}}</textarea>
{{- else if eq .Type "select"}}
<select name="{{.Name}}" id="{{.ID}}">
{{- range .Choices}}
<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
{{- end}}
</select>
{{- else if eq .Type "checkbox"}}
<input type="checkbox" name="{{.Name}}" id="{{.ID}}"{{if .Checked}} checked{{end}}>
{{- else}}
<input type="{{.Type}}" name="{{.Name}}" id="{{.ID}}" value="{{.Value}}">
{{- end}}
</p>
{{- end -}}
{{- end -}}

{{- define "form" -}}
<div {{.Attr}} class="formset-form"{{if .Hidden}} style="display: none;"{{end}}>
<input type="hidden" name="{{.PKName}}" value="{{.PKValue}}">
{{- range .Fields}}
{{template "field" .}}
{{- end}}
{{- if .CanDelete}}
<p class="formset-delete"><label for="{{.DeleteID}}">Delete</label><input type="checkbox" name="{{.Delete}}" id="{{.DeleteID}}"></p>
{{- end}}
</div>
{{- end -}}

<div {{.RootAttr}}{{if .PKAttr}} {{.PKAttr}}{{end}} class="formset">
<h3 class="formset-title">{{.Title}}</h3>
<input type="hidden" name="{{.Prefix}}-TOTAL_FORMS" id="id_{{.Prefix}}-TOTAL_FORMS" value="{{.Total}}">
<input type="hidden" name="{{.Prefix}}-INITIAL_FORMS" id="id_{{.Prefix}}-INITIAL_FORMS" value="{{.Initial}}">
<input type="hidden" name="{{.Prefix}}-MIN_NUM_FORMS" id="id_{{.Prefix}}-MIN_NUM_FORMS" value="{{.Min}}">
<input type="hidden" name="{{.Prefix}}-MAX_NUM_FORMS" id="id_{{.Prefix}}-MAX_NUM_FORMS" value="{{.Max}}">
{{- range .Forms}}
{{template "form" .}}
{{- end}}
{{template "form" .Template}}
</div>
`))

func dataAttr(name, val string) template.HTMLAttr {
	return template.HTMLAttr(fmt.Sprintf(`data-%s="%s"`, name, html.EscapeString(val)))
}

func (d *Definition) buildForm(formPrefix string, row map[string]string) renderForm {
	pk := d.pkField()
	form := renderForm{
		PKName:    formPrefix + "-" + pk,
		PKValue:   row[pk],
		CanDelete: d.canDelete(),
		Delete:    formPrefix + "-" + DeleteField,
		DeleteID:  "id_" + formPrefix + "-" + DeleteField,
	}

	for _, def := range d.Fields {
		value, ok := row[def.Name]
		if !ok {
			value = def.Default
		}

		fieldType := def.Type
		if fieldType == "" {
			fieldType = "text"
		}
		label := def.Label
		if label == "" {
			label = humanize(def.Name)
		}

		field := renderField{
			Name:  formPrefix + "-" + def.Name,
			ID:    "id_" + formPrefix + "-" + def.Name,
			Label: label,
			Type:  fieldType,
			Value: value,
		}
		switch fieldType {
		case "checkbox":
			checked, _ := strconv.ParseBool(value)
			field.Checked = checked || value == "on"
		case "select":
			for _, c := range def.Choices {
				choiceLabel := c.Label
				if choiceLabel == "" {
					choiceLabel = c.Value
				}
				field.Choices = append(field.Choices, renderChoice{
					Value:    c.Value,
					Label:    choiceLabel,
					Selected: c.Value == value,
				})
			}
		}
		form.Fields = append(form.Fields, field)
	}
	return form
}

// RenderDefinition writes the formset markup for def: management fields,
// one form per initial row, extra blank forms and the hidden template.
// Only the data attribute and placeholder options are used.
func RenderDefinition(w io.Writer, def *Definition, opts ...Option) error {
	config, err := newConfig(opts...)
	if err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid formset definition: %w", err)
	}

	attrs := config.Attributes
	data := renderData{
		RootAttr: dataAttr(attrs.Formset, def.Prefix),
		PKAttr:   dataAttr(attrs.PK, def.pkField()),
		Prefix:   def.Prefix,
		Title:    def.Title,
		Total:    def.TotalForms(),
		Initial:  len(def.Initial),
		Min:      def.MinNum,
		Max:      def.maxNum(),
	}
	if data.Title == "" {
		data.Title = humanize(def.Prefix)
	}

	for i := 0; i < data.Total; i++ {
		var row map[string]string
		if i < len(def.Initial) {
			row = def.Initial[i]
		}
		formPrefix := def.Prefix + "-" + strconv.Itoa(i)
		form := def.buildForm(formPrefix, row)
		form.Attr = dataAttr(attrs.Form, formPrefix)
		data.Forms = append(data.Forms, form)
	}

	templatePrefix := def.Prefix + "-" + config.Placeholder
	data.Template = def.buildForm(templatePrefix, nil)
	data.Template.Attr = dataAttr(attrs.Template, templatePrefix)
	data.Template.Hidden = true

	if err := definitionTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render formset %q: %w", def.Prefix, err)
	}
	return nil
}
