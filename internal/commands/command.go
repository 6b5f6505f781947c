// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskmgr/internal/config"
	"taskmgr/internal/service"
	"taskmgr/internal/view"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command talks to the task store.
	// Commands like help, version, login, signup and logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags. It is called once per
	// run, so flag defaults reset the command's fields.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, logger).
	// svc is nil if NeedsAuth() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}

// loadState builds the view state for a run and loads the collection.
func loadState(ctx context.Context, cfg *config.Config, svc service.Service) (*view.State, error) {
	st := view.New(svc, cfg.Logger())
	if err := st.Load(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// ok prints the success marker unless quiet.
func ok(cfg *config.Config, out io.Writer) {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
}
