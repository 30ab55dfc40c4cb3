package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/livefir/formset"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.yaml"

	// DefaultConfigDir is the default directory for fsctl configuration,
	// relative to the home directory
	DefaultConfigDir = ".config/fsctl"

	// EnvConfigPath overrides the config file location
	EnvConfigPath = "FSCTL_CONFIG"

	// DefaultAddr is the listen address of fsctl serve
	DefaultAddr = "localhost:8080"
)

// Attributes overrides the data-* attribute names of the markup contract
type Attributes struct {
	Formset  string `yaml:"formset,omitempty"`
	Form     string `yaml:"form,omitempty"`
	Template string `yaml:"template,omitempty"`
	PK       string `yaml:"pk,omitempty"`
}

// Config represents the fsctl configuration
type Config struct {
	Attributes  Attributes `yaml:"attributes,omitempty"`
	Placeholder string     `yaml:"placeholder,omitempty"`

	// Minify applies HTML minification to apply and render output
	Minify bool `yaml:"minify,omitempty"`

	// Addr is the default listen address for serve
	Addr string `yaml:"addr,omitempty"`

	// Verbose logs formset lifecycle diagnostics to stderr
	Verbose bool `yaml:"verbose,omitempty"`

	// Database is the SQLite file serve stores accepted submissions in.
	// Empty disables persistence.
	Database string `yaml:"database,omitempty"`

	// Version tracks the config file version for future migrations
	Version string `yaml:"version,omitempty"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Placeholder: formset.DefaultPlaceholder,
		Addr:        DefaultAddr,
		Version:     "1.0",
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, DefaultConfigDir, ConfigFileName), nil
}

// LoadConfig loads the configuration from the config file.
// If the file doesn't exist, returns a default config.
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults for missing fields
	if config.Placeholder == "" {
		config.Placeholder = formset.DefaultPlaceholder
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.Version == "" {
		config.Version = "1.0"
	}

	return &config, nil
}

// SaveConfig saves the configuration to the config file
func SaveConfig(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DataAttributes merges the configured attribute names over the defaults
func (c *Config) DataAttributes() formset.DataAttributes {
	attrs := formset.DefaultDataAttributes()
	if c.Attributes.Formset != "" {
		attrs.Formset = c.Attributes.Formset
	}
	if c.Attributes.Form != "" {
		attrs.Form = c.Attributes.Form
	}
	if c.Attributes.Template != "" {
		attrs.Template = c.Attributes.Template
	}
	if c.Attributes.PK != "" {
		attrs.PK = c.Attributes.PK
	}
	return attrs
}

// FormsetOptions converts the configuration into controller options
func (c *Config) FormsetOptions() []formset.Option {
	return []formset.Option{
		formset.WithDataAttributes(c.DataAttributes()),
		formset.WithPlaceholder(c.Placeholder),
	}
}

// LoadDefinition reads a formset definition from a YAML file
func LoadDefinition(path string) (*formset.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}

	var def formset.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse definition %s: %w", path, err)
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition %s: %w", path, err)
	}

	return &def, nil
}
