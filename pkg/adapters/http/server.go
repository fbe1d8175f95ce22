package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/statelift"
	"github.com/aretw0/statelift/internal/logging"
	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/migration"
	"github.com/aretw0/statelift/pkg/vault"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Vault is the subset of vault.Manager the API needs.
type Vault interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, id string) (*domain.State, error)
	Migrate(ctx context.Context, id string, opts ...vault.MigrateOption) (*vault.Report, error)
}

// Server serves the state API.
type Server struct {
	Vault    Vault
	Registry *migration.Registry
	Streams  *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the vault.
func NewHandler(v Vault, registry *migration.Registry, opts ...Option) http.Handler {
	server := &Server{
		Vault:    v,
		Registry: registry,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams.logger = server.logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/registry", server.GetRegistry)
	r.Route("/states", func(r chi.Router) {
		r.Get("/", server.ListStates)
		r.Get("/{id}", server.GetState)
		r.Post("/{id}/migrate", server.MigrateState)
		r.Get("/{id}/events", server.SubscribeEvents)
	})
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ErrorResponse is the body of non-2xx JSON replies other than a failed migration.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TransformInfo describes a registered transform.
type TransformInfo struct {
	Version     int    `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":     "statelift-http",
		"version": strings.TrimSpace(statelift.Version),
		"latest":  s.Registry.Latest(),
	})
}

func (s *Server) GetRegistry(w http.ResponseWriter, r *http.Request) {
	transforms := s.Registry.Transforms()
	resp := make([]TransformInfo, len(transforms))
	for i, t := range transforms {
		resp[i] = TransformInfo{Version: t.Version, Name: t.Name, Description: t.Description}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ListStates(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Vault.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		s.logger.Error("List failed", "err", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.Vault.Load(r.Context(), id)
	if err != nil {
		s.writeLoadError(w, id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) MigrateState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var opts []vault.MigrateOption
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := strconv.Atoi(raw)
		if err != nil || to < 1 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid target version %q", raw))
			return
		}
		opts = append(opts, vault.WithTarget(to))
	}
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		dry, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid dry_run %q", raw))
			return
		}
		opts = append(opts, vault.DryRun(dry))
	}

	report, err := s.Vault.Migrate(r.Context(), id, opts...)
	if err != nil {
		if version, ok := domain.FailedVersion(err); ok {
			s.logger.Warn("Migration failed", "state_id", id, "version", version, "err", err)
			s.writeJSON(w, http.StatusUnprocessableEntity, report)
			return
		}
		s.writeLoadError(w, id, err)
		return
	}

	if report.Saved && report.Diff != nil {
		if payload, err := json.Marshal(report.Diff); err == nil {
			s.Streams.Broadcast(id, string(payload))
		}
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeLoadError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, domain.ErrStateNotFound) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("state %q not found", id))
		return
	}
	s.writeError(w, http.StatusInternalServerError, err)
	s.logger.Error("Request failed", "state_id", id, "err", err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

// StreamManager fans state diffs out to SSE subscribers, per state ID.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // state ID -> set of channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

func (sm *StreamManager) Subscribe(id string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[id]; !ok {
		sm.subscribers[id] = make(map[chan<- string]struct{})
	}
	sm.subscribers[id][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[id]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, id)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(id string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[id] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "state_id", id)
		}
	}
}

func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	id := chi.URLParam(r, "id")
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "state_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: migrated\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
