package commands

import (
	"encoding/json"
	"fmt"
)

// Inspect handles `fsctl inspect <page.html>`: it prints the state of every
// formset after startup pruning as JSON
func Inspect(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("page file required: fsctl inspect <page.html>")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	page, err := attachFile(args[0], cfg)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(Output)
	enc.SetIndent("", "  ")
	if err := enc.Encode(page.Snapshot()); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return nil
}
