package formset

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// absoluteMaxOffset bounds how many forms a submission may claim beyond
// its maximum before it is treated as tampered
const absoluteMaxOffset = 1000

// ManagementForm holds the counters a submitted formset carried
type ManagementForm struct {
	Total   int `json:"total"`
	Initial int `json:"initial"`
	Min     int `json:"min"`
	Max     int `json:"max"`
}

// ParseManagementForm reads the management counters for prefix. TOTAL_FORMS
// and INITIAL_FORMS are required; MIN_NUM_FORMS and MAX_NUM_FORMS default
// to 0 and DefaultMaxNum.
func ParseManagementForm(values url.Values, prefix string) (ManagementForm, error) {
	read := func(suffix string, required bool, def int) (int, error) {
		name := prefix + "-" + suffix
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			if required {
				return 0, fmt.Errorf("%w: %s is missing", ErrManagementForm, name)
			}
			return def, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %s=%q is not a non-negative integer", ErrManagementForm, name, raw)
		}
		return n, nil
	}

	var mf ManagementForm
	var err error
	if mf.Total, err = read(TotalFormsField, true, 0); err != nil {
		return ManagementForm{}, err
	}
	if mf.Initial, err = read(InitialFormsField, true, 0); err != nil {
		return ManagementForm{}, err
	}
	if mf.Min, err = read(MinNumFormsField, false, 0); err != nil {
		return ManagementForm{}, err
	}
	if mf.Max, err = read(MaxNumFormsField, false, DefaultMaxNum); err != nil {
		return ManagementForm{}, err
	}
	if mf.Total > mf.Max+absoluteMaxOffset {
		return ManagementForm{}, fmt.Errorf("%w: %d forms exceeds the absolute maximum", ErrManagementForm, mf.Total)
	}
	return mf, nil
}

// SubmittedForm is one form read back from a submission
type SubmittedForm struct {
	Index     int               `json:"index"`
	Prefix    string            `json:"prefix"`
	Values    map[string]string `json:"values"`
	Deleted   bool              `json:"deleted"`
	Persisted bool              `json:"persisted"`
}

// Get returns a field value without the form prefix
func (f SubmittedForm) Get(field string) string {
	return f.Values[field]
}

// Submission is a formset read back from submitted form values
type Submission struct {
	Prefix     string          `json:"prefix"`
	Management ManagementForm  `json:"management"`
	Forms      []SubmittedForm `json:"forms"`
}

// ParseSubmission reads TOTAL_FORMS forms for prefix from values
func ParseSubmission(values url.Values, prefix string) (*Submission, error) {
	mf, err := ParseManagementForm(values, prefix)
	if err != nil {
		return nil, err
	}

	sub := &Submission{Prefix: prefix, Management: mf}
	for i := 0; i < mf.Total; i++ {
		formPrefix := prefix + "-" + strconv.Itoa(i)
		form := SubmittedForm{
			Index:     i,
			Prefix:    formPrefix,
			Values:    make(map[string]string),
			Persisted: i < mf.Initial,
		}
		for key, vals := range values {
			field, ok := strings.CutPrefix(key, formPrefix+"-")
			if !ok || len(vals) == 0 {
				continue
			}
			if field == DeleteField {
				form.Deleted = checkboxValue(vals[0])
				continue
			}
			form.Values[field] = vals[0]
		}
		sub.Forms = append(sub.Forms, form)
	}
	return sub, nil
}

// checkboxValue interprets a submitted checkbox the way HTML forms send it:
// present means checked, unless it carries an explicit false value
func checkboxValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "false", "0", "off":
		return false
	}
	return true
}

// Active returns the forms not marked deleted
func (s *Submission) Active() []SubmittedForm {
	var active []SubmittedForm
	for _, f := range s.Forms {
		if !f.Deleted {
			active = append(active, f)
		}
	}
	return active
}

// Deleted returns the persisted forms marked for deletion
func (s *Submission) Deleted() []SubmittedForm {
	var deleted []SubmittedForm
	for _, f := range s.Forms {
		if f.Deleted && f.Persisted {
			deleted = append(deleted, f)
		}
	}
	return deleted
}

// Validate checks the number of active forms against the submitted bounds
func (s *Submission) Validate(validateMin, validateMax bool) error {
	var errs MultiError
	active := len(s.Active())
	if validateMax && active > s.Management.Max {
		errs = append(errs, FieldError{
			Field:   s.Prefix,
			Message: fmt.Sprintf("Please submit at most %d form(s).", s.Management.Max),
		})
	}
	if validateMin && active < s.Management.Min {
		errs = append(errs, FieldError{
			Field:   s.Prefix,
			Message: fmt.Sprintf("Please submit at least %d form(s).", s.Management.Min),
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SubmittedPrefixes lists the formset prefixes that carry a TOTAL_FORMS
// counter in values, sorted
func SubmittedPrefixes(values url.Values) []string {
	var prefixes []string
	suffix := "-" + TotalFormsField
	for key := range values {
		if prefix, ok := strings.CutSuffix(key, suffix); ok && prefix != "" {
			prefixes = append(prefixes, prefix)
		}
	}
	sort.Strings(prefixes)
	return prefixes
}
