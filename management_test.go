package formset

import (
	"errors"
	"net/url"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func managementValues(total, initial, min, max string) url.Values {
	v := url.Values{}
	v.Set("items-TOTAL_FORMS", total)
	v.Set("items-INITIAL_FORMS", initial)
	if min != "" {
		v.Set("items-MIN_NUM_FORMS", min)
	}
	if max != "" {
		v.Set("items-MAX_NUM_FORMS", max)
	}
	return v
}

func TestParseManagementForm(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		want    ManagementForm
		wantErr bool
	}{
		{
			name:   "all counters",
			values: managementValues("3", "1", "1", "5"),
			want:   ManagementForm{Total: 3, Initial: 1, Min: 1, Max: 5},
		},
		{
			name:   "bounds default",
			values: managementValues("2", "0", "", ""),
			want:   ManagementForm{Total: 2, Initial: 0, Min: 0, Max: DefaultMaxNum},
		},
		{name: "missing total", values: url.Values{"items-INITIAL_FORMS": {"0"}}, wantErr: true},
		{name: "missing initial", values: url.Values{"items-TOTAL_FORMS": {"0"}}, wantErr: true},
		{name: "not a number", values: managementValues("two", "0", "", ""), wantErr: true},
		{name: "negative", values: managementValues("-1", "0", "", ""), wantErr: true},
		{name: "beyond absolute max", values: managementValues("1006", "0", "0", "5"), wantErr: true},
		{name: "at absolute max", values: managementValues("1005", "0", "0", "5"), want: ManagementForm{Total: 1005, Max: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseManagementForm(tt.values, "items")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrManagementForm))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSubmission(t *testing.T) {
	values := managementValues("3", "2", "1", "5")
	values.Set("items-0-id", "7")
	values.Set("items-0-title", "Widget")
	values.Set("items-1-id", "8")
	values.Set("items-1-title", "Gadget")
	values.Set("items-1-DELETE", "on")
	values.Set("items-2-id", "")
	values.Set("items-2-title", "New")
	values.Set("items-2-DELETE", "false")
	values.Set("items-3-title", "beyond the total")
	values.Set("other-0-title", "other formset")

	sub, err := ParseSubmission(values, "items")
	require.NoError(t, err)

	want := []SubmittedForm{
		{Index: 0, Prefix: "items-0", Values: map[string]string{"id": "7", "title": "Widget"}, Persisted: true},
		{Index: 1, Prefix: "items-1", Values: map[string]string{"id": "8", "title": "Gadget"}, Deleted: true, Persisted: true},
		{Index: 2, Prefix: "items-2", Values: map[string]string{"id": "", "title": "New"}},
	}
	if diff := cmp.Diff(want, sub.Forms); diff != "" {
		t.Errorf("forms mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "Widget", sub.Forms[0].Get("title"))
	assert.Len(t, sub.Active(), 2)
	require.Len(t, sub.Deleted(), 1)
	assert.Equal(t, "8", sub.Deleted()[0].Get("id"))
}

func TestParseSubmissionIndexPrefixes(t *testing.T) {
	// items-1 must not pick up the fields of items-10
	values := managementValues("11", "0", "", "")
	values.Set("items-1-title", "one")
	values.Set("items-10-title", "ten")

	sub, err := ParseSubmission(values, "items")
	require.NoError(t, err)
	require.Len(t, sub.Forms, 11)
	assert.Equal(t, "one", sub.Forms[1].Get("title"))
	assert.Equal(t, "ten", sub.Forms[10].Get("title"))
}

func TestSubmissionValidate(t *testing.T) {
	build := func(active, deleted int, min, max string) *Submission {
		total := active + deleted
		values := managementValues(strconv.Itoa(total), "0", min, max)
		for i := active; i < total; i++ {
			values.Set("items-"+strconv.Itoa(i)+"-DELETE", "on")
		}
		sub, err := ParseSubmission(values, "items")
		require.NoError(t, err)
		return sub
	}

	tests := []struct {
		name        string
		sub         *Submission
		validateMin bool
		validateMax bool
		want        string
	}{
		{"within bounds", build(2, 0, "1", "3"), true, true, ""},
		{"too many", build(4, 0, "0", "3"), true, true, "items: Please submit at most 3 form(s)."},
		{"too many unchecked", build(4, 0, "0", "3"), true, false, ""},
		{"too few", build(1, 2, "2", "5"), true, true, "items: Please submit at least 2 form(s)."},
		{"too few unchecked", build(1, 2, "2", "5"), false, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sub.Validate(tt.validateMin, tt.validateMax)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestSubmittedPrefixes(t *testing.T) {
	values := url.Values{
		"orders-TOTAL_FORMS": {"1"},
		"items-TOTAL_FORMS":  {"2"},
		"-TOTAL_FORMS":       {"0"},
		"items-0-title":      {"x"},
	}
	assert.Equal(t, []string{"items", "orders"}, SubmittedPrefixes(values))
}
