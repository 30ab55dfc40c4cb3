package formset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrManagementForm is returned when a submission lacks valid management counters
var ErrManagementForm = errors.New("management form data is missing or has been tampered with")

// ConfigError reports a page that was not rendered with the expected markup.
// It is fatal: no controller is created.
type ConfigError struct {
	Prefix string // Formset prefix, empty when not yet known
	Anchor string // The missing or malformed anchor, e.g. "items-TOTAL_FORMS"
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Prefix == "" {
		return fmt.Sprintf("formset configuration error: %s: %s", e.Anchor, e.Reason)
	}
	return fmt.Sprintf("formset %q configuration error: %s: %s", e.Prefix, e.Anchor, e.Reason)
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiError is a collection of field errors
type MultiError []FieldError

func (m MultiError) Error() string {
	if len(m) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(m))
	for _, err := range m {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// validationToMultiError converts go-playground/validator errors to MultiError
func validationToMultiError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var fieldErrors MultiError
	for _, e := range validationErrs {
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", e.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param())
		default:
			message = fmt.Sprintf("%s is invalid", e.Field())
		}
		fieldErrors = append(fieldErrors, FieldError{
			Field:   e.Namespace(),
			Message: message,
		})
	}
	return fieldErrors
}
