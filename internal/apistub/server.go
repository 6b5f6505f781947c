// Package apistub serves the task API from memory for local development and
// end-to-end tests. It speaks the same routes and payloads as the hosted
// backend: cookie sessions, per-user tasks and {"message": ...} errors.
package apistub

import (
	"crypto/rand"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

const (
	// BasePath prefixes every route.
	BasePath = "/api"

	// CookieName is the session cookie set by login.
	CookieName = "token"

	// SessionTTL is how long a session cookie stays valid.
	SessionTTL = 24 * time.Hour
)

// Options configures a Server.
type Options struct {
	// Secret signs session tokens. A random key is used when empty.
	Secret []byte

	// WrapTasks makes single-task responses use the {"task": {...}} shape
	// some deployments return.
	WrapTasks bool

	// AllowedOrigins lists CORS origins. All origins are allowed when empty.
	AllowedOrigins []string

	// Logger receives handler diagnostics.
	Logger *slog.Logger
}

// Server is an in-memory task API.
type Server struct {
	secret  []byte
	wrap    bool
	origins []string
	log     *slog.Logger

	mu    sync.Mutex
	users map[string]*user // by email
	tasks []*record        // in creation order
}

type user struct {
	ID    string
	Name  string
	Email string
	Hash  []byte
}

// record is a stored task. Its JSON form is the wire shape clients decode.
type record struct {
	ID          string `json:"_id"`
	Owner       string `json:"-"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

// New creates a Server.
func New(opts Options) *Server {
	secret := opts.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		rand.Read(secret)
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		secret:  secret,
		wrap:    opts.WrapTasks,
		origins: origins,
		log:     logger,
		users:   make(map[string]*user),
	}
}

// Handler returns the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix(BasePath).Subrouter()

	api.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	tasks := api.PathPrefix("/tasks").Subrouter()
	tasks.Use(s.requireSession)
	tasks.HandleFunc("", s.handleListTasks).Methods(http.MethodGet)
	tasks.HandleFunc("", s.handleCreateTask).Methods(http.MethodPost)
	tasks.HandleFunc("/{id}", s.handleGetTask).Methods(http.MethodGet)
	tasks.HandleFunc("/{id}", s.handleUpdateTask).Methods(http.MethodPut)
	tasks.HandleFunc("/{id}", s.handleSetStatus).Methods(http.MethodPatch)
	tasks.HandleFunc("/{id}", s.handleDeleteTask).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-Id"}),
		handlers.AllowCredentials(),
	)
	return cors(r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
