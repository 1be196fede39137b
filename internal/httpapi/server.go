package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Lupicald/Accesspro/internal/attend/service"
	"github.com/Lupicald/Accesspro/internal/attend/store"
	"github.com/Lupicald/Accesspro/internal/attend/types"
)

type Dependencies struct {
	Logger  *log.Logger
	Addr    string
	States  *service.StateStore
	Events  store.EventStore
	Metrics http.Handler // promhttp handler; optional
}

// Server is the read-only status API: person-state snapshots, the tail
// of the local event log, health and metrics. It never mutates engine
// state except through the manual check-out override.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	states     *service.StateStore
	events     store.EventStore
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger: d.Logger,
		mux:    mux,
		states: d.States,
		events: d.Events,
	}

	mux.HandleFunc("GET /v1/persons", s.handlePersons)
	mux.HandleFunc("GET /v1/events/recent", s.handleRecentEvents)
	mux.HandleFunc("POST /v1/persons/{id}/checkout", s.handleCheckout)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handlePersons(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"persons": s.states.All(),
	})
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := s.events.RecentEvents(r.Context(), limit)
	if err != nil {
		s.logger.Printf("recent events error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	if events == nil {
		events = []types.ClassifiedEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleCheckout is the manual override: an operator marks a person as
// checked out, which also clears any overstay alert.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_person_id", "person id is required")
		return
	}

	st := s.states.CheckOut(id, time.Now())
	writeJSON(w, http.StatusOK, map[string]any{"person": st})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}
