// Package cli parses the command line and dispatches to registered commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"taskmgr/internal/backend/googletasks"
	"taskmgr/internal/backend/restapi"
	"taskmgr/internal/commands"
	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// DefaultServiceFactory selects the backend named by cfg.Backend.
func DefaultServiceFactory(ctx context.Context, cfg *config.Config) (service.Service, error) {
	if cfg.Backend == config.BackendGoogle {
		return googletasks.New(ctx, cfg)
	}
	return restapi.NewAuthenticated(cfg)
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service
// factory. A nil factory means DefaultServiceFactory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	if factory == nil {
		factory = DefaultServiceFactory
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// globalFlags are accepted before or after any command.
type globalFlags struct {
	configDir string
	apiURL    string
	backend   string
	quiet     bool
	debug     bool
}

// Run parses arguments and dispatches to the appropriate command.
// Without a command it runs list. Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	code := exitcode.Success
	root := d.newRoot(out, errOut, &code)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	return code
}

// newRoot builds a fresh command tree for one run, so flag values never leak
// between runs.
func (d *Dispatcher) newRoot(out, errOut io.Writer, code *int) *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           config.AppName,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown command: %s", args[0])
			}
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&g.configDir, "config", "", "override config directory")
	pf.StringVar(&g.apiURL, "api-url", "", "task API base URL")
	pf.StringVar(&g.backend, "backend", "", "task store: api or google")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "suppress informational output")
	pf.BoolVar(&g.debug, "debug", false, "print debug logs to stderr")

	for _, cmd := range d.registry.All() {
		cc := d.wrap(cmd, &g, out, errOut, code)
		if cmd.Name() == "help" {
			root.SetHelpCommand(cc)
			root.SetHelpFunc(func(c *cobra.Command, args []string) {
				*code = d.run(c.Context(), cmd, &g, c.Flags(), nil, out, errOut)
			})
			continue
		}
		root.AddCommand(cc)
	}

	if list, ok := d.registry.Find("list"); ok {
		list.RegisterFlags(root.Flags())
		root.RunE = func(c *cobra.Command, args []string) error {
			*code = d.run(c.Context(), list, &g, c.Flags(), args, out, errOut)
			return nil
		}
	}
	return root
}

// wrap adapts a registered command to cobra.
func (d *Dispatcher) wrap(cmd commands.Command, g *globalFlags, out, errOut io.Writer, code *int) *cobra.Command {
	cc := &cobra.Command{
		Use:     cmd.Name(),
		Aliases: cmd.Aliases(),
		Short:   cmd.Synopsis(),
		Long:    cmd.Usage(),
		Args:    cobra.ArbitraryArgs,
		RunE: func(c *cobra.Command, args []string) error {
			*code = d.run(c.Context(), cmd, g, c.Flags(), args, out, errOut)
			return nil
		},
	}
	cmd.RegisterFlags(cc.Flags())
	return cc
}

// run resolves configuration, builds the service if the command needs one,
// and runs the command.
func (d *Dispatcher) run(ctx context.Context, cmd commands.Command, g *globalFlags, fs *pflag.FlagSet, args []string, out, errOut io.Writer) int {
	cfg, err := config.Load(g.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}
	if fs.Changed("api-url") {
		cfg.BaseURL = g.apiURL
	}
	if fs.Changed("backend") {
		cfg.Backend = g.backend
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = g.quiet
	cfg.Debug = g.debug
	cfg.Log = newLogger(errOut, g.debug)
	cfg.Log.Debug("dispatch", "command", cmd.Name(), "backend", cfg.Backend, "api_url", cfg.BaseURL)

	var svc service.Service
	if cmd.NeedsAuth() {
		svc, err = d.factory(ctx, cfg)
		if err != nil {
			code := commands.Report(errOut, err)
			if code == exitcode.BackendError {
				// Anything that stops the backend from being built is a
				// configuration problem, not a failed request.
				code = exitcode.AuthError
			}
			return code
		}
	}

	code := cmd.Run(ctx, cfg, svc, args, out, errOut)
	cfg.Log.Debug("done", "command", cmd.Name(), "exit", exitcode.Name(code))
	return code
}

// newLogger writes text logs to errOut: everything with debug, only errors
// otherwise.
func newLogger(errOut io.Writer, debug bool) *slog.Logger {
	level := slog.LevelError
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
}
