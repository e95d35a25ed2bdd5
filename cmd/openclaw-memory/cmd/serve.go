package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openclaw/memory/internal/config"
	"github.com/openclaw/memory/internal/embed"
	"github.com/openclaw/memory/internal/index"
	"github.com/openclaw/memory/internal/mcp"
	"github.com/openclaw/memory/internal/search"
	"github.com/openclaw/memory/internal/store"
	"github.com/openclaw/memory/internal/writer"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server exposing primer/search/log/session_end/update_tasks/read",
		Long: `serve opens both memory scopes, builds the configured embedder, and
exposes the six memory tools over MCP. The default transport is stdio, the
only transport MCP clients like Claude Code launch directly; sse starts an
HTTP server instead, for clients that connect over the network.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), transport, addr)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport to serve on: stdio or sse")
	cmd.Flags().StringVar(&addr, "addr", ":8420", "Listen address when --transport=sse")

	return cmd
}

func runServe(ctx context.Context, transport, addr string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	globalRoot := globalMemoryRoot(home)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	projectRoot := memoryDir(config.FindProjectRoot(cwd))

	cfg, err := config.Load(globalRoot, projectRoot)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.Default()
	if !debugMode {
		// MCP stdio transport requires stdout reserved for JSON-RPC; route
		// logs to stderr instead of leaving the default handler on stdout.
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	embedder, err := embed.New(ctx, embed.Config{
		Provider:   embed.ParseProvider(cfg.Embedding.Provider),
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimension,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}
	defer embedder.Close()

	globalStore, err := store.Open(ctx, store.Options{
		Scope: store.ScopeGlobal, Root: globalRoot, Dimensions: cfg.Embedding.Dimension, Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("open global memory store: %w", err)
	}
	defer globalStore.Close()

	projectStore, err := store.Open(ctx, store.Options{
		Scope: store.ScopeProject, Root: projectRoot, Dimensions: cfg.Embedding.Dimension, Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("open project memory store: %w", err)
	}
	defer projectStore.Close()

	globalIndexer := index.New(globalStore, embedder, nil, logger)
	projectIndexer := index.New(projectStore, embedder, nil, logger)

	w, err := writer.New(&writer.Scopes{
		Global: globalStore, GlobalRoot: globalRoot, GlobalIndexer: globalIndexer,
		Project: projectStore, ProjectRoot: projectRoot, ProjectIndexer: projectIndexer,
	}, embedder, cfg.Privacy.Patterns, logger)
	if err != nil {
		return fmt.Errorf("build writer: %w", err)
	}

	r := search.New(&search.Scopes{
		Global: globalStore, GlobalRoot: globalRoot,
		Project: projectStore, ProjectRoot: projectRoot,
	}, embedder, cfg.Search.RecencyHalfLifeDays, logger)

	server, err := mcp.NewServer(w, r, globalRoot, projectRoot, mcp.Config{
		ProjectName:        cfg.Project.Name,
		ProjectDescription: cfg.Project.Description,
	}, logger)
	if err != nil {
		return fmt.Errorf("build mcp server: %w", err)
	}

	return server.Serve(ctx, transport, addr)
}
