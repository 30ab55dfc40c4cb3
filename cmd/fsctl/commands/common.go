package commands

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/livefir/formset"
	"github.com/livefir/formset/cmd/fsctl/internal/config"
)

// Output receives command results; tests replace it
var Output io.Writer = os.Stdout

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func formsetOptions(cfg *config.Config) []formset.Option {
	opts := cfg.FormsetOptions()
	if cfg.Verbose {
		opts = append(opts, formset.WithLogger(log.New(os.Stderr, "", log.LstdFlags)))
	}
	return opts
}

func attachFile(path string, cfg *config.Config) (*formset.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	page, err := formset.AttachReader(f, formsetOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to attach formsets in %s: %w", path, err)
	}
	return page, nil
}

func writeHTML(markup string, minify bool) error {
	if minify {
		markup = formset.MinifyHTML(markup)
	}
	if !strings.HasSuffix(markup, "\n") {
		markup += "\n"
	}
	_, err := io.WriteString(Output, markup)
	return err
}
