// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"taskmgr/internal/service"
	"taskmgr/internal/view"
)

const (
	// ListSeparator separates the task list from the summary.
	ListSeparator = "------------"

	// NoTasks is printed for an empty collection.
	NoTasks = "no tasks"
)

// Formats accepted by WriteTask.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatTask formats a task line for the list.
// Format: "{N:>4}  [ ] {TITLE}" with "[x]" for completed tasks and
// " (due YYYY-MM-DD)" appended when the task has a due date.
func FormatTask(w io.Writer, num int, task service.Task) {
	mark := "[ ]"
	if task.Completed() {
		mark = "[x]"
	}
	line := fmt.Sprintf("%4d  %s %s", num, mark, normalize(task.Title))
	if task.DueDate != nil {
		line += " (due " + task.DueDate.String() + ")"
	}
	fmt.Fprintln(w, line)
}

// FormatStats formats the summary counters below the list.
func FormatStats(w io.Writer, st view.Stats) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintf(w, "%d total, %d pending, %d completed\n", st.Total, st.Pending, st.Completed)
}

// WriteTask writes the full detail of a task in the given format.
func WriteTask(w io.Writer, task service.Task, format string) error {
	switch format {
	case FormatText, "":
		due := "-"
		if task.DueDate != nil {
			due = task.DueDate.String()
		}
		fmt.Fprintf(w, "id:          %s\n", task.ID)
		fmt.Fprintf(w, "title:       %s\n", normalize(task.Title))
		fmt.Fprintf(w, "description: %s\n", strings.TrimSpace(task.Description))
		fmt.Fprintf(w, "due:         %s\n", due)
		fmt.Fprintf(w, "status:      %s\n", task.Status)
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(task)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(task); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// normalize makes a title printable on one line.
// Empty or whitespace-only titles become "(untitled)".
func normalize(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
