package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/livefir/formset/cmd/fsctl/internal/config"
)

var configKeys = "placeholder, minify, addr, verbose, database, attributes.formset, attributes.form, attributes.template, attributes.pk"

// Config handles configuration management commands
func Config(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("command required: get, set, list, path")
	}

	switch args[0] {
	case "get":
		return configGet(args[1:])
	case "set":
		return configSet(args[1:])
	case "list":
		return configList()
	case "path":
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(Output, path)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// configField returns a pointer to the string or bool setting named key
func configField(cfg *config.Config, key string) (*string, *bool, error) {
	switch key {
	case "placeholder":
		return &cfg.Placeholder, nil, nil
	case "addr":
		return &cfg.Addr, nil, nil
	case "minify":
		return nil, &cfg.Minify, nil
	case "verbose":
		return nil, &cfg.Verbose, nil
	case "database":
		return &cfg.Database, nil, nil
	case "attributes.formset":
		return &cfg.Attributes.Formset, nil, nil
	case "attributes.form":
		return &cfg.Attributes.Form, nil, nil
	case "attributes.template":
		return &cfg.Attributes.Template, nil, nil
	case "attributes.pk":
		return &cfg.Attributes.PK, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown key: %s (expected: %s)", key, configKeys)
}

// configGet retrieves a configuration value
func configGet(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("key required: fsctl config get <key>")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, b, err := configField(cfg, args[0])
	if err != nil {
		return err
	}
	if s != nil {
		fmt.Fprintln(Output, *s)
	} else {
		fmt.Fprintln(Output, *b)
	}
	return nil
}

// configSet sets a configuration value
func configSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("key and value required: fsctl config set <key> <value>")
	}

	key := args[0]
	value := strings.Join(args[1:], " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, b, err := configField(cfg, key)
	if err != nil {
		return err
	}
	if s != nil {
		*s = value
	} else {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		*b = v
	}

	// Reject attribute names the controller would refuse
	if err := cfg.DataAttributes().Validate(); err != nil {
		return err
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(Output, "Set %s to: %s\n", key, value)
	return nil
}

// configList lists all configuration values
func configList() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Fprintln(Output, "Configuration:")
	fmt.Fprintln(Output)
	fmt.Fprintf(Output, "Placeholder:        %s\n", cfg.Placeholder)
	fmt.Fprintf(Output, "Minify:             %t\n", cfg.Minify)
	fmt.Fprintf(Output, "Addr:               %s\n", cfg.Addr)
	fmt.Fprintf(Output, "Verbose:            %t\n", cfg.Verbose)
	fmt.Fprintf(Output, "Database:           %s\n", cfg.Database)
	fmt.Fprintln(Output)

	attrs := cfg.DataAttributes()
	fmt.Fprintln(Output, "Attributes:")
	fmt.Fprintf(Output, "  formset:  data-%s\n", attrs.Formset)
	fmt.Fprintf(Output, "  form:     data-%s\n", attrs.Form)
	fmt.Fprintf(Output, "  template: data-%s\n", attrs.Template)
	fmt.Fprintf(Output, "  pk:       data-%s\n", attrs.PK)
	fmt.Fprintln(Output)

	configPath, _ := config.GetConfigPath()
	fmt.Fprintf(Output, "Config file: %s\n", configPath)
	return nil
}
