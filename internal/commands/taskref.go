package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"taskmgr/internal/config"
	"taskmgr/internal/service"
	"taskmgr/internal/view"
)

// TaskRef is a parsed task reference: a 1-based position in the list or a
// task id.
type TaskRef struct {
	Num int    // 0 when the reference is an id
	ID  string // empty when the reference is a position
}

// String returns the reference as the user would type it.
func (r TaskRef) String() string {
	if r.ID != "" {
		if isAllDigits(r.ID) {
			return IDPrefix + r.ID
		}
		return r.ID
	}
	return strconv.Itoa(r.Num)
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// IDPrefix marks a reference as a task id even when it is all digits.
const IDPrefix = "id:"

// ParseTaskRef parses the single task reference in args.
//
// An all-digit argument is a position (it must be at least 1); anything else
// is taken as a task id. A leading '#' on a position is accepted ("#3"), and
// "id:" forces an id ("id:42").
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	arg := strings.TrimSpace(args[0])
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if id, ok := strings.CutPrefix(arg, IDPrefix); ok {
		if id == "" || strings.ContainsFunc(id, unicode.IsSpace) {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{ID: id}, nil
	}

	digits := strings.TrimPrefix(arg, "#")
	if isAllDigits(digits) {
		num, err := strconv.Atoi(digits)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		if num < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %d", num)
		}
		return TaskRef{Num: num}, nil
	}
	if strings.HasPrefix(arg, "#") || strings.ContainsFunc(arg, unicode.IsSpace) {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	return TaskRef{ID: arg}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// resolveTask loads the collection and finds the task ref points at.
// It returns the loaded state so the caller can act on it.
func resolveTask(ctx context.Context, cfg *config.Config, svc service.Service, ref TaskRef) (*view.State, service.Task, error) {
	st, err := loadState(ctx, cfg, svc)
	if err != nil {
		return nil, service.Task{}, err
	}
	var task service.Task
	if ref.ID != "" {
		task, err = st.Find(ref.ID)
	} else {
		task, err = st.Resolve(ref.String())
	}
	if err != nil {
		return nil, service.Task{}, err
	}
	return st, task, nil
}
