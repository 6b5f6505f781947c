package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
	"taskmgr/internal/transport"
	"taskmgr/internal/view"
)

// Report prints the one-line message for err on errOut and returns the exit
// code of its class.
func Report(errOut io.Writer, err error) int {
	var verr *service.ValidationError
	var terr *transport.Error

	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(errOut, "error: %v\n", verr)
		return exitcode.UserError

	case errors.Is(err, service.ErrNotFound), errors.Is(err, view.ErrNoSuchTask):
		fmt.Fprintln(errOut, "error: task not found")
		return exitcode.UserError

	case errors.Is(err, service.ErrNotLoggedIn):
		fmt.Fprintln(errOut, "error: not logged in (run: taskmgr login)")
		return exitcode.AuthError

	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintln(errOut, "error: session expired or revoked (run: taskmgr login)")
		return exitcode.AuthError

	case errors.Is(err, service.ErrMalformedResponse):
		fmt.Fprintf(errOut, "error: %v\n", service.ErrMalformedResponse)
		return exitcode.BackendError

	case errors.As(err, &terr) && terr.Unreachable():
		switch terr.Reason {
		case transport.ReasonTimeout:
			fmt.Fprintln(errOut, "error: request timed out")
		case transport.ReasonCanceled:
			fmt.Fprintln(errOut, "error: cancelled")
		default:
			fmt.Fprintln(errOut, "error: could not connect to server")
		}
		return exitcode.BackendError

	case errors.As(err, &terr):
		msg := terr.ServerMessage
		if msg == "" {
			msg = fmt.Sprintf("%d %s", terr.StatusCode, http.StatusText(terr.StatusCode))
		}
		fmt.Fprintf(errOut, "error: backend error: %s\n", msg)
		return exitcode.BackendError

	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// rejection returns the server's reason when err is a 4xx response, or
// fallback when the server gave none.
func rejection(err error, fallback string) (string, bool) {
	var terr *transport.Error
	if !errors.As(err, &terr) || terr.StatusCode < 400 || terr.StatusCode >= 500 {
		return "", false
	}
	if terr.ServerMessage != "" {
		return terr.ServerMessage, true
	}
	return fallback, true
}
