package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/vozgraph"
	"github.com/aretw0/vozgraph/internal/input"
	"github.com/aretw0/vozgraph/internal/logging"
	"github.com/aretw0/vozgraph/internal/presentation/graph"
	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/grammar"
	"github.com/aretw0/vozgraph/pkg/observability"
	"github.com/aretw0/vozgraph/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds JSON request bodies independently of the phrase limit.
const maxBodyBytes = 64 << 10

// Engine is the subset of the vozgraph engine served over HTTP.
type Engine interface {
	Analyze(ctx context.Context, raw string) grammar.Analysis
	Record(ctx context.Context, sessionID, command string) (*session.Recorded, error)
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	Automaton(ctx context.Context, sessionID string, closed bool) (*domain.Automaton, error)
	FanOut(ctx context.Context, sessionID string) (domain.Graph, error)
	UpdateGame(ctx context.Context, sessionID string, game domain.GameContext) error
	Reset(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]string, error)
}

// Server implements ServerInterface on top of an Engine.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	metrics      *observability.Metrics
	logger       *slog.Logger
	corsOrigin   string
	maxInputSize int
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// Option configures the HTTP handler.
type Option func(*Server)

// WithMetrics exposes /metrics and records request durations.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCORSOrigin sets Access-Control-Allow-Origin. Empty disables CORS headers.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		s.corsOrigin = origin
	}
}

// WithMaxInputSize bounds one phrase, in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxInputSize = n
		}
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine:       engine,
		Streams:      NewStreamManager(),
		logger:       logging.NewNop(),
		corsOrigin:   "*",
		maxInputSize: input.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if server.metrics != nil {
		r.Use(server.instrument)
		r.Method(http.MethodGet, "/metrics", server.metrics.Handler())
	}

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			server.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	handler := HandlerFromMux(server, r)
	if server.corsOrigin == "" {
		return handler
	}
	return enableCORS(server.corsOrigin, handler)
}

func enableCORS(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument records request durations labelled by route pattern and status.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.HTTPDurations.WithLabelValues(route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>vozgraph API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// AnalyzeCommand handles the POST /analyze request.
func (s *Server) AnalyzeCommand(w http.ResponseWriter, r *http.Request, params FormatParams) {
	command, ok := s.readCommand(w, r, "AnalyzeCommand")
	if !ok {
		return
	}

	a := s.Engine.Analyze(r.Context(), command)
	if isMermaid(params.Format) {
		writeText(w, graph.GenerateTreeMermaid(a.Tree))
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

// RecordCommand handles the POST /sessions/{id}/commands request.
func (s *Server) RecordCommand(w http.ResponseWriter, r *http.Request, id string) {
	command, ok := s.readCommand(w, r, "RecordCommand")
	if !ok {
		return
	}

	rec, err := s.Engine.Record(r.Context(), id, command)
	if err != nil {
		s.writeError(w, "RecordCommand", err)
		return
	}

	if payload, err := json.Marshal(rec.Entry); err == nil {
		s.Streams.Broadcast(id, string(payload))
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.writeError(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.Engine.Session(r.Context(), id)
	if err != nil {
		s.writeError(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.Engine.Delete(r.Context(), id); err != nil {
		s.writeError(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHistory handles the GET /sessions/{id}/history request.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.Engine.Session(r.Context(), id)
	if err != nil {
		s.writeError(w, "GetHistory", err)
		return
	}
	history := sess.Snapshot()
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// AutomatonResponse pairs the automaton with the game statistics echoed by the store.
type AutomatonResponse struct {
	Automaton *domain.Automaton   `json:"automaton"`
	Game      *domain.GameContext `json:"game,omitempty"`
}

// GetAutomaton handles the GET /sessions/{id}/automaton request.
func (s *Server) GetAutomaton(w http.ResponseWriter, r *http.Request, id string, params GetAutomatonParams) {
	closed := params.Closed != nil && *params.Closed

	a, err := s.Engine.Automaton(r.Context(), id, closed)
	if err != nil {
		s.writeError(w, "GetAutomaton", err)
		return
	}
	if isMermaid(params.Format) {
		writeText(w, graph.GenerateAutomatonMermaid(a, graph.CurrentOverlay(a)))
		return
	}

	resp := AutomatonResponse{Automaton: a}
	if sess, err := s.Engine.Session(r.Context(), id); err == nil && (sess.Game != domain.GameContext{}) {
		resp.Game = &sess.Game
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetFanOut handles the GET /sessions/{id}/fanout request.
func (s *Server) GetFanOut(w http.ResponseWriter, r *http.Request, id string, params FormatParams) {
	g, err := s.Engine.FanOut(r.Context(), id)
	if err != nil {
		s.writeError(w, "GetFanOut", err)
		return
	}
	if isMermaid(params.Format) {
		writeText(w, graph.GenerateTreeMermaid(g))
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

// UpdateGame handles the PUT /sessions/{id}/game request.
func (s *Server) UpdateGame(w http.ResponseWriter, r *http.Request, id string) {
	var game domain.GameContext
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&game); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("UpdateGame: Invalid request body", "err", err)
		return
	}
	if err := s.Engine.UpdateGame(r.Context(), id, game); err != nil {
		s.writeError(w, "UpdateGame", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetSession handles the POST /sessions/{id}/reset request.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.Engine.Reset(r.Context(), id); err != nil {
		s.writeError(w, "ResetSession", err)
		return
	}
	s.Streams.Broadcast(id, `{"event":"session_reset"}`)
	w.WriteHeader(http.StatusNoContent)
}

// GrammarResponse is the body of GET /grammar.
type GrammarResponse struct {
	Start        string               `json:"start"`
	Productions  []grammar.Production `json:"productions"`
	Nonterminals []string             `json:"nonterminals"`
	Terminals    []string             `json:"terminals"`
}

// GetGrammar handles the GET /grammar request.
func (s *Server) GetGrammar(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GrammarResponse{
		Start:        grammar.StartSymbol,
		Productions:  grammar.Productions(),
		Nonterminals: grammar.Nonterminals(),
		Terminals:    grammar.Terminals(),
	})
}

// GetCommands handles the GET /commands request.
func (s *Server) GetCommands(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, grammar.Commands())
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "vozgraph-http",
		"version":     strings.TrimSpace(vozgraph.Version),
		"api_version": apiVersion,
	})
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, id string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", id)
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

// readCommand decodes and sanitizes a CommandRequest body.
func (s *Server) readCommand(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	var body CommandRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn(op+": Invalid request body", "err", err)
		return "", false
	}

	clean, err := input.SanitizeLimit(body.Command, s.maxInputSize)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		s.logger.Warn(op+": Input rejected", "err", err, "size", len(body.Command))
		return "", false
	}
	return clean, true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSessionID),
		errors.Is(err, domain.ErrEmptyCommand),
		errors.Is(err, domain.ErrInputTooLarge),
		errors.Is(err, input.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
		http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
		return
	}
	s.logger.Warn(op+" rejected", "err", err, "status", status)
	http.Error(w, err.Error(), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, body)
}

func isMermaid(format *string) bool {
	return format != nil && strings.EqualFold(*format, FormatMermaid)
}
