package formset

import (
	"fmt"
	"io"
	"log"

	"github.com/go-playground/validator/v10"
)

// Default markup conventions shared with the server-side renderer
const (
	DefaultDataFormset  = "fastview-formset"
	DefaultDataForm     = "fastview-formset-form"
	DefaultDataTemplate = "fastview-formset-template"
	DefaultDataPK       = "fastview-formset-pk"
	DefaultPlaceholder  = "__prefix__"
)

var validate = validator.New()

// DataAttributes names the data-* attributes (without the "data-" prefix)
// that identify the formset root, its forms, its template and the
// primary-key field name.
type DataAttributes struct {
	Formset  string `validate:"required,excludesall=<>'"`
	Form     string `validate:"required,excludesall=<>'"`
	Template string `validate:"required,excludesall=<>'"`
	PK       string `validate:"required,excludesall=<>'"`
}

// DefaultDataAttributes returns the fastview attribute names
func DefaultDataAttributes() DataAttributes {
	return DataAttributes{
		Formset:  DefaultDataFormset,
		Form:     DefaultDataForm,
		Template: DefaultDataTemplate,
		PK:       DefaultDataPK,
	}
}

// Validate reports attribute names that cannot be used in markup
func (a DataAttributes) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid data attributes: %w", validationToMultiError(err))
	}
	return nil
}

func (a DataAttributes) formset() string  { return "data-" + a.Formset }
func (a DataAttributes) form() string     { return "data-" + a.Form }
func (a DataAttributes) template() string { return "data-" + a.Template }
func (a DataAttributes) pk() string       { return "data-" + a.PK }

// Config holds formset controller configuration
type Config struct {
	Attributes  DataAttributes
	Placeholder string `validate:"required"`

	// EntryFactory wraps discovered and added form elements. Defaults to NewForm.
	EntryFactory EntryFactory

	// AddAffordanceFactory builds the "add" control. Defaults to NewAddButton.
	AddAffordanceFactory AddAffordanceFactory

	// Listeners are subscribed before discovery, so they also observe
	// forms destroyed while pruning.
	Listeners []Listener

	Logger *log.Logger
}

// Option is a functional option for configuring a Formset
type Option func(*Config)

// WithDataAttributes overrides the data-* attribute names
func WithDataAttributes(attrs DataAttributes) Option {
	return func(c *Config) {
		c.Attributes = attrs
	}
}

// WithPlaceholder sets the token replaced by the form index in the template
func WithPlaceholder(token string) Option {
	return func(c *Config) {
		c.Placeholder = token
	}
}

// WithEntryFactory sets a custom entry implementation
func WithEntryFactory(factory EntryFactory) Option {
	return func(c *Config) {
		c.EntryFactory = factory
	}
}

// WithAddAffordanceFactory sets a custom add control
func WithAddAffordanceFactory(factory AddAffordanceFactory) Option {
	return func(c *Config) {
		c.AddAffordanceFactory = factory
	}
}

// WithListener subscribes a listener to every formset the options apply to
func WithListener(l Listener) Option {
	return func(c *Config) {
		c.Listeners = append(c.Listeners, l)
	}
}

// WithLogger sets the logger used for lifecycle diagnostics
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

func newConfig(opts ...Option) (Config, error) {
	config := Config{
		Attributes:           DefaultDataAttributes(),
		Placeholder:          DefaultPlaceholder,
		EntryFactory:         DefaultEntryFactory,
		AddAffordanceFactory: NewAddButton,
	}

	for _, opt := range opts {
		opt(&config)
	}

	if config.EntryFactory == nil {
		config.EntryFactory = DefaultEntryFactory
	}
	if config.AddAffordanceFactory == nil {
		config.AddAffordanceFactory = NewAddButton
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard, "", 0)
	}

	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid formset config: %w", validationToMultiError(err))
	}

	return config, nil
}
