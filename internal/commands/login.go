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
	Register(&LoginCmd{})
}

// LoginCmd implements the login command. By default it logs in to the task
// API with email and password; --google runs the Google OAuth flow instead.
type LoginCmd struct {
	email    string
	password string
	google   bool
}

// SetCredentials sets the email and password flags (for testing).
func (c *LoginCmd) SetCredentials(email, password string) {
	c.email = email
	c.password = password
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in and store the session" }
func (c *LoginCmd) Usage() string {
	return "taskmgr login --email <email> --password <password> | taskmgr login --google"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.email, "email", "e", "", "account email")
	fs.StringVarP(&c.password, "password", "p", "", "account password (or TASKMGR_PASSWORD)")
	fs.BoolVar(&c.google, "google", false, "authenticate with Google Tasks instead")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.google {
		return c.runGoogle(ctx, cfg, out, errOut)
	}

	password := c.password
	if password == "" {
		password = cfg.Password
	}
	creds := service.Credentials{Email: c.email, Password: password}
	if err := service.Require("email", creds.Email, "password", creds.Password); err != nil {
		return Report(errOut, err)
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}

	client, err := restapi.New(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	if err := client.Login(ctx, creds); err != nil {
		return reportAuth(errOut, err, "invalid credentials")
	}

	ok(cfg, out)
	return exitcode.Success
}

// reportAuth reports a failed login or signup. A rejected request is an auth
// error carrying the server's message; anything else is reported as usual.
func reportAuth(errOut io.Writer, err error, fallback string) int {
	if msg, rejected := rejection(err, fallback); rejected {
		fmt.Fprintf(errOut, "error: %s\n", msg)
		return exitcode.AuthError
	}
	return Report(errOut, err)
}
