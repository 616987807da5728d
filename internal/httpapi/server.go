package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ncplot7go/ncengine/internal/storage"
	"github.com/ncplot7go/ncengine/pkg/engine"
)

// Server is the §6 HTTP boundary over one Engine, adapted from the
// teacher's rest.Server/routes() shape.
type Server struct {
	engine  *engine.Engine
	mux     *http.ServeMux
	logger  zerolog.Logger
	apiKeys map[string]bool
	store   storage.Store
}

// Config configures a Server.
type Config struct {
	Logger zerolog.Logger
	// APIKeys, when non-empty, requires every request (other than
	// preflight OPTIONS) to carry a matching X-API-Key or Bearer token.
	APIKeys []string
	// EventHub, when non-nil, is exposed at GET /events as a websocket
	// stream of the run's LogEvents.
	EventHub *Hub
	// Store persists every completed run so it can be replayed later via
	// GET /runs and GET /runs/{id}. Defaults to an in-process
	// storage.MemoryStore when left nil.
	Store storage.Store
}

// NewServer wires eng behind the §6 contract, CORS, logging, panic
// recovery and optional API-key auth middleware.
func NewServer(eng *engine.Engine, cfg Config) *Server {
	keys := make(map[string]bool, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		keys[k] = true
	}
	store := cfg.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
	s := &Server{
		engine:  eng,
		mux:     http.NewServeMux(),
		logger:  cfg.Logger,
		apiKeys: keys,
		store:   store,
	}
	s.routes(cfg.EventHub)
	return s
}

func (s *Server) routes(hub *Hub) {
	s.mux.HandleFunc("POST /", s.handleRun)
	// legacy alias path forwards POSTs to the same handler (§6 environment).
	s.mux.HandleFunc("POST /api/legacy", s.handleRun)
	s.mux.HandleFunc("GET /runs", s.handleListRuns)
	s.mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	if hub != nil {
		s.mux.Handle("GET /events", NewWSHandler(hub, s.logger))
	}
}

// ServeHTTP applies the middleware stack around the routed mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := corsMiddleware(authMiddleware(s.apiKeys, s.mux))
	loggingMiddleware(s.logger, recoveryMiddleware(s.logger, handler)).ServeHTTP(w, r)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid JSON body",
		})
		return
	}

	if req.Action == "list_machines" {
		writeJSON(w, http.StatusOK, fromDescriptors(s.engine.ListMachines()))
		return
	}

	resp := s.engine.Run(toMachineInputs(req.MachineData))
	s.persistRuns(r.Context(), resp, req.MachineData)
	writeJSON(w, http.StatusOK, fromResponse(resp))
}

// persistRuns saves one storage.Run per executed canal, keyed off the
// engine's RunID so GET /runs/{id} can retrieve any canal from the same
// request. Failures are logged, not surfaced to the caller: run history
// is a side record of what already executed, not a precondition for it.
func (s *Server) persistRuns(ctx context.Context, resp engine.Response, items []machineDataItem) {
	byCanal := make(map[string]machineDataItem, len(items))
	for _, it := range items {
		byCanal[it.CanalNr] = it
	}
	for canalNr, cr := range resp.Canal {
		run := storage.Run{
			ID:          resp.RunID + ":" + canalNr,
			CanalNr:     canalNr,
			MachineName: byCanal[canalNr].MachineName,
			Program:     byCanal[canalNr].Program,
			Plot:        toCanalPlot(canalNr, cr),
			CreatedAt:   time.Now(),
		}
		if err := s.store.SaveRun(ctx, run); err != nil {
			s.logger.Error().Err(err).Str("canal", canalNr).Msg("failed to persist run")
		}
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), r.URL.Query().Get("canalNr"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, fromRuns(runs))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, fromRun(run))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
