package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskmgr/internal/backend/restapi"
	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
)

func init() {
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	name     string
	email    string
	password string
}

// SetAccount sets the account flags (for testing).
func (c *SignupCmd) SetAccount(name, email, password string) {
	c.name = name
	c.email = email
	c.password = password
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return []string{"register"} }
func (c *SignupCmd) Synopsis() string  { return "Create an account on the task API" }
func (c *SignupCmd) Usage() string {
	return "taskmgr signup --name <name> --email <email> --password <password>"
}
func (c *SignupCmd) NeedsAuth() bool { return false }

func (c *SignupCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.name, "name", "n", "", "display name")
	fs.StringVarP(&c.email, "email", "e", "", "account email")
	fs.StringVarP(&c.password, "password", "p", "", "account password (or TASKMGR_PASSWORD)")
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	account := service.Account{Name: c.name, Email: c.email, Password: c.password}
	if account.Password == "" {
		account.Password = cfg.Password
	}
	if err := service.Require("name", account.Name, "email", account.Email, "password", account.Password); err != nil {
		return Report(errOut, err)
	}

	client, err := restapi.New(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	if err := client.Signup(ctx, account); err != nil {
		return reportAuth(errOut, err, "signup failed")
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok (run: taskmgr login)")
	}
	return exitcode.Success
}
