package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. The task is fetched first, the flags
// given are applied over it, and the result is submitted.
type EditCmd struct {
	title       string
	description string
	fs          *pflag.FlagSet
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a task's title or description" }
func (c *EditCmd) Usage() string {
	return "taskmgr edit [--title <text>] [--description <text>] <ref>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.title, "title", "t", "", "new title")
	fs.StringVarP(&c.description, "description", "d", "", "new description")
	c.fs = fs
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	titleSet, descSet := c.changed("title"), c.changed("description")
	if !titleSet && !descSet {
		fmt.Fprintln(errOut, "error: nothing to change (use --title or --description)")
		return exitcode.UserError
	}

	st, task, err := resolveTask(ctx, cfg, svc, ref)
	if err != nil {
		return Report(errOut, err)
	}

	current, err := st.Prefill(ctx, task.ID)
	if err != nil {
		return Report(errOut, err)
	}

	// The form submits both fields, prefilled with the stored values.
	title, desc := current.Title, current.Description
	if titleSet {
		title = c.title
	}
	if descSet {
		desc = c.description
	}
	if _, err := st.SubmitEdit(ctx, current.ID, service.Patch{Title: &title, Description: &desc}); err != nil {
		return Report(errOut, err)
	}

	ok(cfg, out)
	return exitcode.Success
}

// changed reports whether the named flag was given on the command line.
func (c *EditCmd) changed(name string) bool {
	return c.fs != nil && c.fs.Changed(name)
}
