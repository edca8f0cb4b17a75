package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/vozgraph"
	"github.com/aretw0/vozgraph/internal/input"
	"github.com/aretw0/vozgraph/internal/logging"
	"github.com/aretw0/vozgraph/internal/presentation/graph"
	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/grammar"
	"github.com/aretw0/vozgraph/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs exposed by the server.
const (
	GrammarURI  = "vozgraph://grammar"
	CommandsURI = "vozgraph://commands"
)

// Engine defines what the MCP server needs from vozgraph.
type Engine interface {
	Analyze(ctx context.Context, raw string) grammar.Analysis
	Record(ctx context.Context, sessionID, command string) (*session.Recorded, error)
	History(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error)
	Automaton(ctx context.Context, sessionID string, closed bool) (*domain.Automaton, error)
	Reset(ctx context.Context, sessionID string) error
}

// AnalyzeArgs are the arguments of analyze_command.
type AnalyzeArgs struct {
	Command string `json:"command"`
}

// RecordArgs are the arguments of record_command.
type RecordArgs struct {
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
}

// AutomatonArgs are the arguments of build_automaton.
type AutomatonArgs struct {
	SessionID string `json:"session_id"`
	Closed    bool   `json:"closed"`
}

// SessionArgs are the arguments of tools that only need a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// AutomatonResult pairs the automaton with its Mermaid rendering.
type AutomatonResult struct {
	Automaton *domain.Automaton `json:"automaton" jsonschema_description:"States, transitions and statistics of the session"`
	Mermaid   string            `json:"mermaid" jsonschema_description:"Mermaid flowchart of the automaton"`
}

// HistoryResult is the output of get_history.
type HistoryResult struct {
	History []domain.HistoryEntry `json:"history" jsonschema_description:"Recorded commands in order"`
}

// Server wraps the vozgraph Engine and exposes it as an MCP Server.
type Server struct {
	engine       Engine
	mcpServer    *server.MCPServer
	logger       *slog.Logger
	maxInputSize int
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
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

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:       engine,
		mcpServer:    server.NewMCPServer("vozgraph-mcp", strings.TrimSpace(vozgraph.Version)),
		logger:       logging.NewNop(),
		maxInputSize: input.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: analyze_command
	s.mcpServer.AddTool(mcp.NewTool("analyze_command",
		mcp.WithDescription("Classify a recognized phrase against the command grammar and return its tokens, derivation tree and derivation steps. Nothing is recorded."),
		mcp.WithString("command", mcp.Required(), mcp.Description("Raw recognized text, e.g. 'puerta b'")),
		mcp.WithOutputSchema[grammar.Analysis](),
	), mcp.NewStructuredToolHandler(s.handleAnalyze))

	// TOOL: record_command
	s.mcpServer.AddTool(mcp.NewTool("record_command",
		mcp.WithDescription("Analyze a phrase and append it, valid or not, to a session history."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("command", mcp.Required(), mcp.Description("Raw recognized text")),
		mcp.WithOutputSchema[session.Recorded](),
	), mcp.NewStructuredToolHandler(s.handleRecord))

	// TOOL: build_automaton
	s.mcpServer.AddTool(mcp.NewTool("build_automaton",
		mcp.WithDescription("Fold a session history into its linear automaton with statistics."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithBoolean("closed", mcp.Description("Append the terminal state reached by λ (fin)")),
		mcp.WithOutputSchema[AutomatonResult](),
	), mcp.NewStructuredToolHandler(s.handleAutomaton))

	// TOOL: get_history
	s.mcpServer.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("List the commands recorded in a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[HistoryResult](),
	), mcp.NewStructuredToolHandler(s.handleHistory))

	// TOOL: reset_session
	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Clear a session history."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("session_id", "")
		if err := s.engine.Reset(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
		}
		return mcp.NewToolResultText("session " + id + " reset"), nil
	})
}

// Handler methods for structured tools

func (s *Server) sanitize(op, raw string) (string, error) {
	clean, err := input.SanitizeLimit(raw, s.maxInputSize)
	if err != nil {
		s.logger.Warn("MCP "+op+": Input rejected", "err", err, "size", len(raw))
		return "", fmt.Errorf("input rejected: %w", err)
	}
	return clean, nil
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest, args AnalyzeArgs) (grammar.Analysis, error) {
	clean, err := s.sanitize("Analyze", args.Command)
	if err != nil {
		return grammar.Analysis{}, err
	}
	return s.engine.Analyze(ctx, clean), nil
}

func (s *Server) handleRecord(ctx context.Context, request mcp.CallToolRequest, args RecordArgs) (session.Recorded, error) {
	clean, err := s.sanitize("Record", args.Command)
	if err != nil {
		return session.Recorded{}, err
	}
	rec, err := s.engine.Record(ctx, args.SessionID, clean)
	if err != nil {
		return session.Recorded{}, fmt.Errorf("record failed: %w", err)
	}
	return *rec, nil
}

func (s *Server) handleAutomaton(ctx context.Context, request mcp.CallToolRequest, args AutomatonArgs) (AutomatonResult, error) {
	a, err := s.engine.Automaton(ctx, args.SessionID, args.Closed)
	if err != nil {
		return AutomatonResult{}, fmt.Errorf("automaton failed: %w", err)
	}
	return AutomatonResult{
		Automaton: a,
		Mermaid:   graph.GenerateAutomatonMermaid(a, graph.CurrentOverlay(a)),
	}, nil
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (HistoryResult, error) {
	h, err := s.engine.History(ctx, args.SessionID)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("history failed: %w", err)
	}
	if h == nil {
		h = []domain.HistoryEntry{}
	}
	return HistoryResult{History: h}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: vozgraph://grammar
	s.mcpServer.AddResource(mcp.NewResource(GrammarURI, "Command Grammar",
		mcp.WithResourceDescription("Productions, nonterminals and terminals of the voice command grammar"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(GrammarURI, map[string]any{
			"start":        grammar.StartSymbol,
			"productions":  grammar.Productions(),
			"nonterminals": grammar.Nonterminals(),
			"terminals":    grammar.Terminals(),
		})
	})

	// EXPOSE: vozgraph://commands
	s.mcpServer.AddResource(mcp.NewResource(CommandsURI, "Valid Commands",
		mcp.WithResourceDescription("Valid commands grouped by game area"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(CommandsURI, grammar.Commands())
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
