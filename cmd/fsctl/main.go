package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/livefir/formset/cmd/fsctl/commands"
)

// Version information (can be overridden at build time with -ldflags)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error

	switch command {
	case "render":
		err = commands.Render(args)
	case "apply":
		err = commands.Apply(args)
	case "inspect":
		err = commands.Inspect(args)
	case "serve":
		err = commands.Serve(args)
	case "config":
		err = commands.Config(args)
	case "submissions":
		err = commands.Submissions(args)
	case "db":
		err = commands.DB(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("fsctl version %s\n", version)

	if info, ok := debug.ReadBuildInfo(); ok {
		var vcsRevision string
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				vcsRevision = setting.Value
			}
		}

		if commit != "unknown" {
			fmt.Printf("commit: %s\n", commit)
		} else if vcsRevision != "" {
			if len(vcsRevision) > 12 {
				vcsRevision = vcsRevision[:12]
			}
			fmt.Printf("commit: %s\n", vcsRevision)
		}
		if date != "unknown" {
			fmt.Printf("built: %s\n", date)
		}
		fmt.Printf("go: %s\n", info.GoVersion)
	}
}

func printUsage() {
	fmt.Println("Formset CLI")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fsctl render <definition.yaml> [--page]    Render a formset definition as HTML")
	fmt.Println("  fsctl apply <page.html> <prefix> <op>...   Run formset operations on a page")
	fmt.Println("  fsctl inspect <page.html>                  Print formset state as JSON")
	fmt.Println("  fsctl serve <definition.yaml> [addr]       Serve a definition as a live page")
	fmt.Println("  fsctl submissions [prefix]                 List stored submissions as JSON")
	fmt.Println("  fsctl db <up|down|version>                 Migrate the submissions database")
	fmt.Println("  fsctl config <command>                     Manage configuration")
	fmt.Println("  fsctl version                              Show version information")
	fmt.Println()
	fmt.Println("Operations:")
	fmt.Println("  add                 Add a form from the template")
	fmt.Println("  delete:N            Delete the Nth form (or delete:<form-prefix>)")
	fmt.Println("  undelete:N          Undelete the Nth form")
	fmt.Println("  set:NAME=VALUE      Set a field value")
	fmt.Println()
	fmt.Println("Config Commands:")
	fmt.Println("  fsctl config list                          Show all settings")
	fmt.Println("  fsctl config get <key>                     Show one setting")
	fmt.Println("  fsctl config set <key> <value>             Change a setting")
	fmt.Println("  fsctl config path                          Show the config file location")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  fsctl render items.yaml --page > items.html")
	fmt.Println("  fsctl apply items.html items add add delete:0")
	fmt.Println("  fsctl apply items.html items set:items-0-title=Widget")
	fmt.Println("  fsctl serve items.yaml :8080")
	fmt.Println("  fsctl config set database ./submissions.db")
	fmt.Println()
	fmt.Printf("Config file location can be overridden with $%s\n", "FSCTL_CONFIG")
}
