// Package mcp exposes the memory engine's six verbs — primer, search, log,
// session_end, update_tasks, read — over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	memerr "github.com/openclaw/memory/internal/errors"
	"github.com/openclaw/memory/internal/search"
	"github.com/openclaw/memory/internal/writer"
)

// serverVersion is reported to MCP clients in the server implementation
// handshake.
const serverVersion = "0.1.0"

// Server bridges AI coding agents to the write pipeline and the Retriever
// over stdio or SSE, per the tool surface's six verbs.
type Server struct {
	mcp *mcp.Server

	writer    *writer.Writer
	retriever *search.Retriever

	globalRoot  string
	projectRoot string

	projectName        string
	projectDescription string

	logger *slog.Logger
	mu     sync.RWMutex
}

// Config carries the project identity fields recognized by `project.name`
// and `project.description`, used only to render the primer's Project
// section.
type Config struct {
	ProjectName        string
	ProjectDescription string
}

// NewServer wires a Server around an already-open Writer and Retriever. Both
// scope roots must exist; init is responsible for scaffolding them first.
func NewServer(w *writer.Writer, r *search.Retriever, globalRoot, projectRoot string, cfg Config, logger *slog.Logger) (*Server, error) {
	if w == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if r == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		writer:             w,
		retriever:          r,
		globalRoot:         globalRoot,
		projectRoot:        projectRoot,
		projectName:        cfg.ProjectName,
		projectDescription: cfg.ProjectDescription,
		logger:             logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "openclaw-memory",
			Version: serverVersion,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// registerTools registers the six verbs with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "primer",
		Description: "Returns the session-start Markdown primer: instructions, user identity, project, preferences, recent context, and active tasks.",
	}, s.primerHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Searches persisted memory across scopes, returning salience-ranked snippets within a token budget.",
	}, s.searchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "log",
		Description: "Persists a note. Routes it to the right file by content or an explicit type hint, reinforcing or conflict-updating an existing similar note instead of duplicating it.",
	}, s.logHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "session_end",
		Description: "Appends a dated journal entry for the session (request, learned, completed, next steps) and regenerates PRIMER.md and TASKS.md.",
	}, s.sessionEndHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "update_tasks",
		Description: "Rewrites TASKS.md from the given task list and refreshes PRIMER.md.",
	}, s.updateTasksHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "read",
		Description: "Returns the verbatim contents of a scope-relative memory file.",
	}, s.readHandler)

	s.logger.Debug("MCP tools registered", slog.Int("count", 6))
}

func (s *Server) primerHandler(ctx context.Context, _ *mcp.CallToolRequest, _ PrimerInput) (*mcp.CallToolResult, PrimerOutput, error) {
	content, err := s.buildPrimer()
	if err != nil {
		return nil, PrimerOutput{Primer: renderError(err)}, nil
	}
	return nil, PrimerOutput{Primer: content}, nil
}

func (s *Server) searchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, invalidParams("query is required")
	}
	resp, err := s.retriever.Search(ctx, input.Query, search.ScopeFilter(input.Scope), input.MaxTokens)
	if err != nil {
		return nil, SearchOutput{Text: renderError(err)}, nil
	}
	return nil, SearchOutput{Text: formatSearchResponse(resp)}, nil
}

func formatSearchResponse(resp *search.Response) string {
	var b strings.Builder
	for i, r := range resp.Results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[salience: %s | reinforcement: %d | %s]\n%s", formatScore(r.Salience), r.Reinforcement, r.URI, r.Content)
	}
	if len(resp.Results) > 0 {
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "[total tokens: %d | budget remaining: %d]", resp.TotalTokens, resp.BudgetRemaining)
	return b.String()
}

func (s *Server) logHandler(ctx context.Context, _ *mcp.CallToolRequest, input LogInput) (*mcp.CallToolResult, LogOutput, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, LogOutput{}, invalidParams("content is required")
	}
	outcome, err := s.writer.Log(ctx, input.Content, input.Type)
	if err != nil {
		return nil, LogOutput{Result: renderError(err)}, nil
	}
	return nil, LogOutput{Result: renderOutcome(outcome)}, nil
}

func renderOutcome(o *writer.Outcome) string {
	switch o.Kind {
	case writer.Appended:
		return fmt.Sprintf("Memory saved to %s (type: %s)", o.Path, o.Type)
	case writer.Reinforced:
		return fmt.Sprintf("Existing memory reinforced (score=%s) in %s", formatScore(o.Score), o.Path)
	case writer.ConflictUpdated:
		return fmt.Sprintf("Conflicting memory updated (score=%s) in %s", formatScore(o.Score), o.Path)
	default:
		return "Rejected: " + o.Reason
	}
}

func (s *Server) sessionEndHandler(ctx context.Context, _ *mcp.CallToolRequest, input SessionEndInput) (*mcp.CallToolResult, SessionEndOutput, error) {
	now := time.Now()
	name, err := s.appendJournalEntry(input, now)
	if err != nil {
		return nil, SessionEndOutput{Result: renderError(memerr.StorageError("write journal entry", err))}, nil
	}
	if err := s.regeneratePrimer(); err != nil {
		return nil, SessionEndOutput{Result: renderError(memerr.StorageError("regenerate primer", err))}, nil
	}
	return nil, SessionEndOutput{Result: fmt.Sprintf("Session summary written to %s. PRIMER.md and TASKS.md updated.", name)}, nil
}

func (s *Server) updateTasksHandler(ctx context.Context, _ *mcp.CallToolRequest, input UpdateTasksInput) (*mcp.CallToolResult, UpdateTasksOutput, error) {
	now := time.Now()
	if err := s.rewriteTasks(input.Tasks, now); err != nil {
		return nil, UpdateTasksOutput{Result: renderError(memerr.StorageError("rewrite tasks", err))}, nil
	}
	if err := s.regeneratePrimer(); err != nil {
		return nil, UpdateTasksOutput{Result: renderError(memerr.StorageError("regenerate primer", err))}, nil
	}
	return nil, UpdateTasksOutput{Result: fmt.Sprintf("TASKS.md updated with %d tasks. PRIMER.md refreshed.", len(input.Tasks))}, nil
}

func (s *Server) readHandler(ctx context.Context, _ *mcp.CallToolRequest, input ReadInput) (*mcp.CallToolResult, ReadOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, ReadOutput{}, invalidParams("path is required")
	}
	root := s.rootForPath(input.Path)
	full := filepath.Join(root, filepath.FromSlash(input.Path))
	raw, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ReadOutput{Content: renderError(memerr.NotFound(input.Path))}, nil
		}
		return nil, ReadOutput{Content: renderError(memerr.StorageError("read file", err))}, nil
	}
	return nil, ReadOutput{Content: string(raw)}, nil
}

// rootForPath resolves which scope root a scope-relative path belongs
// under: "user/" lives in the global scope, everything else (journal/,
// agent/, PRIMER.md, TASKS.md) in the project scope.
func (s *Server) rootForPath(relPath string) string {
	if strings.HasPrefix(filepath.ToSlash(relPath), "user/") {
		return s.globalRoot
	}
	return s.projectRoot
}

// Serve starts the server on the given transport ("stdio" or "sse"),
// blocking until ctx is cancelled. addr is only used for "sse".
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	switch transport {
	case "", "stdio":
		s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped gracefully")
		return nil
	case "sse":
		return s.serveSSE(ctx, addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", transport)
	}
}
