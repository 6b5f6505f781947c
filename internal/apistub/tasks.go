package apistub

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Status values as stored by the backend.
const (
	statusPending   = "Pending"
	statusCompleted = "Completed"
)

// dueLayout is how the backend renders stored dates.
const dueLayout = "2006-01-02T15:04:05.000Z"

// taskInput is the body of create and update requests. Absent fields are nil.
type taskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Status      *string `json:"status"`
}

func parseDue(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return "", false
		}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(dueLayout), true
}

func validStatus(s string) bool {
	return s == statusPending || s == statusCompleted
}

// Tasks returns a snapshot of the tasks owned by the account with email.
func (s *Server) Tasks(email string) []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil
	}
	var out []map[string]string
	for _, t := range s.tasks {
		if t.Owner == u.ID {
			out = append(out, map[string]string{
				"id": t.ID, "title": t.Title, "description": t.Description,
				"dueDate": t.DueDate, "status": t.Status,
			})
		}
	}
	return out
}

// find returns the index of the task id owned by uid, or -1. Callers hold mu.
func (s *Server) find(uid, id string) int {
	return slices.IndexFunc(s.tasks, func(t *record) bool { return t.ID == id && t.Owner == uid })
}

// writeTask writes one task, wrapped when the server is configured to.
func (s *Server) writeTask(w http.ResponseWriter, status int, t record) {
	if s.wrap {
		writeJSON(w, status, map[string]any{"task": t})
		return
	}
	writeJSON(w, status, t)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	s.mu.Lock()
	list := []record{}
	for _, t := range s.tasks {
		if t.Owner == uid {
			list = append(list, *t)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	uid, id := userID(r), mux.Vars(r)["id"]

	s.mu.Lock()
	i := s.find(uid, id)
	if i < 0 {
		s.mu.Unlock()
		writeMessage(w, http.StatusNotFound, "Task not found")
		return
	}
	t := *s.tasks[i]
	s.mu.Unlock()

	s.writeTask(w, http.StatusOK, t)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in taskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		writeMessage(w, http.StatusBadRequest, "Title is required")
		return
	}

	t := &record{
		ID:        uuid.NewString(),
		Owner:     userID(r),
		Title:     *in.Title,
		Status:    statusPending,
		CreatedAt: time.Now().UTC().Format(dueLayout),
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.DueDate != nil {
		due, ok := parseDue(*in.DueDate)
		if !ok {
			writeMessage(w, http.StatusBadRequest, "Invalid due date")
			return
		}
		t.DueDate = due
	}
	if in.Status != nil {
		if !validStatus(*in.Status) {
			writeMessage(w, http.StatusBadRequest, "Invalid status")
			return
		}
		t.Status = *in.Status
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	created := *t
	s.mu.Unlock()

	s.log.Debug("task created", "id", created.ID)
	s.writeTask(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var in taskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.update(w, r, in)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Status == nil {
		writeMessage(w, http.StatusBadRequest, "Status is required")
		return
	}
	s.update(w, r, taskInput{Status: in.Status})
}

// update applies the fields present in in to the task named by the route.
func (s *Server) update(w http.ResponseWriter, r *http.Request, in taskInput) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		writeMessage(w, http.StatusBadRequest, "Title cannot be empty")
		return
	}
	if in.Status != nil && !validStatus(*in.Status) {
		writeMessage(w, http.StatusBadRequest, "Invalid status")
		return
	}
	var due string
	if in.DueDate != nil {
		var ok bool
		if due, ok = parseDue(*in.DueDate); !ok {
			writeMessage(w, http.StatusBadRequest, "Invalid due date")
			return
		}
	}

	uid, id := userID(r), mux.Vars(r)["id"]

	s.mu.Lock()
	i := s.find(uid, id)
	if i < 0 {
		s.mu.Unlock()
		writeMessage(w, http.StatusNotFound, "Task not found")
		return
	}
	t := s.tasks[i]
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.DueDate != nil {
		t.DueDate = due
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	updated := *t
	s.mu.Unlock()

	s.writeTask(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	uid, id := userID(r), mux.Vars(r)["id"]

	s.mu.Lock()
	i := s.find(uid, id)
	if i >= 0 {
		s.tasks = slices.Delete(s.tasks, i, i+1)
	}
	s.mu.Unlock()

	if i < 0 {
		writeMessage(w, http.StatusNotFound, "Task not found")
		return
	}
	writeMessage(w, http.StatusOK, "Task deleted")
}
