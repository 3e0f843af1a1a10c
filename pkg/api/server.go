// Package api exposes the research engine over HTTP, including an SSE
// stream of session progress.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/counselflow/legal-research-agent/pkg/domain"
	"github.com/counselflow/legal-research-agent/pkg/observability"
	"github.com/counselflow/legal-research-agent/pkg/state"
	"github.com/counselflow/legal-research-agent/pkg/workflow"
)

const requestTimeout = 15 * time.Minute

// Server exposes research over HTTP
type Server struct {
	orchestrator Orchestrator
	pool         *workflow.Pool
	sessions     *state.SessionStore
	logger       *observability.StructuredLogger
	httpServer   *http.Server
}

// Orchestrator is the narrow engine surface the server needs
type Orchestrator interface {
	Run(ctx context.Context, sess *state.ResearchState, progress workflow.ProgressFunc) (*domain.ResearchFinding, error)
}

// NewServer creates the API server listening on addr
func NewServer(addr string, orchestrator Orchestrator, sessions *state.SessionStore) *Server {
	s := &Server{
		orchestrator: orchestrator,
		sessions:     sessions,
		logger:       observability.NewStructuredLogger("api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/research", s.handleResearch)
	mux.HandleFunc("/v1/research/async", s.handleResearchAsync)
	mux.HandleFunc("/v1/research/stream", s.handleResearchStream)
	mux.HandleFunc("/v1/research/", s.handleGetSession)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: requestTimeout,
	}

	return s
}

// SetPool enables the async endpoint, backed by the session pool
func (s *Server) SetPool(pool *workflow.Pool) {
	s.pool = pool
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "starting api server", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down api server")
	return s.httpServer.Shutdown(ctx)
}

// researchRequest is the JSON body for research endpoints
type researchRequest struct {
	Query         string `json:"query"`
	Jurisdiction  string `json:"jurisdiction,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"`
}

// errorResponse is the JSON body for failures
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	sess := state.NewResearchState(query)
	if err := s.sessions.Put(sess); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	finding, err := s.orchestrator.Run(ctx, sess, nil)
	if err != nil {
		s.writeResearchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, finding)
}

// handleResearchAsync enqueues the session on the pool and returns
// immediately; progress is observable through GET /v1/research/{id}
func (s *Server) handleResearchAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.pool == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "async research is not enabled"})
		return
	}

	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	sess := state.NewResearchState(query)
	if err := s.sessions.Put(sess); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	// Pool work must outlive this request, so it runs on the server's
	// context rather than the request's.
	if err := s.pool.Submit(context.Background(), sess, nil); err != nil {
		s.sessions.Delete(query.ID)
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"id": query.ID})
}

func (s *Server) handleResearchStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sess := state.NewResearchState(query)
	if err := s.sessions.Put(sess); err != nil {
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", jsonLine(errorResponse{Error: err.Error()}))
		flusher.Flush()
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	// Progress callbacks arrive on the session goroutine, which is this
	// request's goroutine: Run is called synchronously below.
	progress := func(ev domain.ProgressEvent) {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, jsonLine(ev))
		flusher.Flush()
	}

	finding, err := s.orchestrator.Run(ctx, sess, progress)
	if err != nil {
		// The error event was already streamed by the orchestrator.
		return
	}

	fmt.Fprintf(w, "event: finding\ndata: %s\n\n", jsonLine(finding))
	flusher.Flush()
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/research/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	sess, ok := s.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("no session %q", id)})
		return
	}

	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// decodeQuery parses and validates the request body, reporting errors to
// the client itself
func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (domain.ResearchQuery, bool) {
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return domain.ResearchQuery{}, false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return domain.ResearchQuery{}, false
	}

	query := domain.ResearchQuery{
		ID:           uuid.NewString(),
		Text:         req.Query,
		Jurisdiction: req.Jurisdiction,
		Timestamp:    time.Now(),
	}
	if req.EffectiveDate != "" {
		date, err := time.Parse("2006-01-02", req.EffectiveDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid effective_date: %v", err)})
			return domain.ResearchQuery{}, false
		}
		query.EffectiveDate = &date
	}
	return query, true
}

func (s *Server) writeResearchError(w http.ResponseWriter, err error) {
	if rerr, ok := err.(*domain.ResearchError); ok {
		status := http.StatusBadGateway
		if rerr.Kind == domain.FailureNoResults {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: rerr.Message, Kind: string(rerr.Kind)})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonLine(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"error":"marshal failure"}`
	}
	return string(data)
}
