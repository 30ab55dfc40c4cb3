package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/livefir/formset/cmd/fsctl/internal/store"
)

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("no database configured: fsctl config set database <path>")
	}
	return store.Open(cfg.Database)
}

// Submissions handles `fsctl submissions [prefix]`: it prints the stored
// submissions as JSON, newest first
func Submissions(args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var prefix string
	if len(args) > 0 {
		prefix = args[0]
	}

	records, err := st.List(context.Background(), prefix)
	if err != nil {
		return err
	}
	if records == nil {
		records = []store.Record{}
	}

	enc := json.NewEncoder(Output)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// DB handles `fsctl db <up|down|version>` for the submissions database
func DB(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("command required: up, down, version")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	switch args[0] {
	case "up":
		if err := st.Up(); err != nil {
			return err
		}
	case "down":
		if err := st.Down(); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}

	version, err := st.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(Output, "Schema version: %d\n", version)
	return nil
}
