package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// rpcRequest is one line-delimited tool invocation over the SSE transport:
// {"verb": "search", "args": {...}}.
type rpcRequest struct {
	Verb string          `json:"verb"`
	Args json.RawMessage `json:"args"`
}

// dispatch maps a verb name to its handler, bypassing the MCP SDK's stdio
// transport so the same six handlers serve both transports.
func (s *Server) dispatch(ctx context.Context, verb string, args json.RawMessage) (any, error) {
	switch verb {
	case "primer":
		var in PrimerInput
		_, out, err := s.primerHandler(ctx, nil, in)
		return out, err
	case "search":
		var in SearchInput
		if err := unmarshalArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.searchHandler(ctx, nil, in)
		return out, err
	case "log":
		var in LogInput
		if err := unmarshalArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.logHandler(ctx, nil, in)
		return out, err
	case "session_end":
		var in SessionEndInput
		if err := unmarshalArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.sessionEndHandler(ctx, nil, in)
		return out, err
	case "update_tasks":
		var in UpdateTasksInput
		if err := unmarshalArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.updateTasksHandler(ctx, nil, in)
		return out, err
	case "read":
		var in ReadInput
		if err := unmarshalArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.readHandler(ctx, nil, in)
		return out, err
	default:
		return nil, fmt.Errorf("unknown verb: %s", verb)
	}
}

func unmarshalArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}

// serveSSE starts a gin HTTP server exposing the six verbs over a
// line-delimited server-sent-events endpoint, per §6's transport choice of
// "a stdio framed protocol or server-sent events on a port".
func (s *Server) serveSSE(ctx context.Context, addr string) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/rpc", func(c *gin.Context) {
		var req rpcRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		out, err := s.dispatch(c.Request.Context(), req.Verb, req.Args)
		w := c.Writer
		if err != nil {
			payload, _ := json.Marshal(gin.H{"error": err.Error()})
			fmt.Fprintf(w, "data: %s\n\n", payload)
			w.Flush()
			return
		}
		payload, _ := json.Marshal(out)
		fmt.Fprintf(w, "data: %s\n\n", payload)
		w.Flush()
	})

	srv := &http.Server{Addr: addr, Handler: router}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	s.logger.Info("starting MCP server", slog.String("transport", "sse"), slog.String("addr", addr))
	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	s.logger.Info("MCP server stopped gracefully")
	return nil
}
