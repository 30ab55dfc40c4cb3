package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/livefir/formset"
)

// Apply handles `fsctl apply <page.html> <prefix> <op>...`
//
// Operations run in order against the attached page:
//
//	add            add a form
//	delete:N       delete the Nth live form (or delete:items-3 by prefix)
//	undelete:N     undelete the Nth live form
//	set:NAME=VAL   set a field value
func Apply(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: fsctl apply <page.html> <prefix> <op>... (ops: add, delete:N, undelete:N, set:name=value)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	page, err := attachFile(args[0], cfg)
	if err != nil {
		return err
	}

	prefix := args[1]
	if _, ok := page.Formset(prefix); !ok {
		return fmt.Errorf("no formset %q in %s", prefix, args[0])
	}

	for _, raw := range args[2:] {
		op, data, err := parseOp(raw)
		if err != nil {
			return err
		}
		if err := formset.ApplyAction(page, prefix+"."+op, data); err != nil {
			return fmt.Errorf("%s: %w", raw, err)
		}
	}

	markup, err := page.HTML()
	if err != nil {
		return err
	}
	return writeHTML(markup, cfg.Minify)
}

// parseOp converts "delete:2" into the action "delete" with its data
func parseOp(raw string) (string, map[string]interface{}, error) {
	op, arg, hasArg := strings.Cut(raw, ":")
	data := make(map[string]interface{})

	switch op {
	case formset.ActionAdd:
		if hasArg {
			return "", nil, fmt.Errorf("%s takes no argument", op)
		}

	case formset.ActionDelete, formset.ActionUndelete:
		if !hasArg || arg == "" {
			return "", nil, fmt.Errorf("%s requires a form index or prefix, e.g. %s:0", op, op)
		}
		if index, err := strconv.Atoi(arg); err == nil {
			data["index"] = index
		} else {
			data["form"] = arg
		}

	case formset.ActionSet:
		name, value, ok := strings.Cut(arg, "=")
		if !hasArg || !ok || name == "" {
			return "", nil, fmt.Errorf("set requires name=value, e.g. set:items-0-title=Widget")
		}
		data["name"] = name
		data["value"] = value

	default:
		return "", nil, fmt.Errorf("unknown operation: %s (expected: add, delete, undelete, set)", op)
	}

	return op, data, nil
}
