package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
	"taskmgr/internal/view"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	due         string
}

// SetFields sets the description and due date flags (for testing).
func (c *AddCmd) SetFields(description, due string) {
	c.description = description
	c.due = due
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskmgr add [--description <text>] [--due <YYYY-MM-DD>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.description, "description", "d", "", "task description")
	fs.StringVar(&c.due, "due", "", "due date (YYYY-MM-DD)")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	draft := service.Draft{
		Title:       strings.Join(args, " "),
		Description: c.description,
	}
	if strings.TrimSpace(c.due) != "" {
		d, err := service.ParseDate(c.due)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		draft.DueDate = &d
	}

	st := view.New(svc, cfg.Logger())
	task, err := st.Create(ctx, draft)
	if err != nil {
		return Report(errOut, err)
	}

	cfg.Logger().Debug("task created", "id", task.ID)
	ok(cfg, out)
	return exitcode.Success
}
