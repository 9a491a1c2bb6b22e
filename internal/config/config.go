// Package config handles command-line argument parsing and sync manifest loading.
package config

import (
	"fmt"

	"github.com/alexflint/go-arg"
)

// Args holds the application configuration parsed from the command line.
type Args struct {
	Manifest string `arg:"positional" help:"Path to the sync manifest (YAML)"`
	Preview  bool   `arg:"-n,--preview" help:"Report planned changes without applying them"`
	Pattern  string `arg:"-p,--pattern" help:"Only sync files matching this glob pattern (overrides manifest patterns)"`
	NoTUI    bool   `arg:"--no-tui" help:"Disable the terminal UI and print one line per event"`
	LogFile  string `arg:"--log-file" help:"Append diagnostic logs to this file instead of stderr"`
}

// Description returns the program description for go-arg
func (Args) Description() string {
	return "Runs batches of file synchronization jobs from a YAML manifest with a rich Terminal UI"
}

// Version returns the version string for go-arg
func (Args) Version() string {
	return "batchsync 1.0.0"
}

// ParseArgs parses command-line flags and returns the validated configuration
func ParseArgs() (*Args, error) {
	args := &Args{}

	arg.MustParse(args)

	return PostProcessArgs(args)
}

// PostProcessArgs applies validation that the flag parser cannot express
func PostProcessArgs(args *Args) (*Args, error) {
	if args.Manifest == "" {
		return nil, fmt.Errorf("a manifest path is required")
	}

	return args, nil
}
