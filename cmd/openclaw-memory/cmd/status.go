package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openclaw/memory/internal/config"
	"github.com/openclaw/memory/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("154"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// scopeStatus is the JSON- and text-renderable status of one scope's store.
type scopeStatus struct {
	Scope       string    `json:"scope"`
	Root        string    `json:"root"`
	ChunkCount  int       `json:"chunk_count"`
	SourceCount int       `json:"source_count"`
	NewestChunk time.Time `json:"newest_chunk,omitempty"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show memory store health for both scopes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	globalRoot, projectRoot, err := resolveRoots()
	if err != nil {
		return err
	}

	statuses := make([]scopeStatus, 0, 2)
	for _, s := range []struct {
		scope store.Scope
		root  string
	}{
		{store.ScopeGlobal, globalRoot},
		{store.ScopeProject, projectRoot},
	} {
		st, err := collectScopeStatus(ctx, s.scope, s.root)
		if err != nil {
			return fmt.Errorf("collect %s status: %w", s.scope, err)
		}
		statuses = append(statuses, st)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}
	renderStatus(cmd, statuses)
	return nil
}

func collectScopeStatus(ctx context.Context, scope store.Scope, root string) (scopeStatus, error) {
	st := scopeStatus{Scope: string(scope), Root: root}
	if _, err := os.Stat(root); err != nil {
		return st, nil
	}

	s, err := store.Open(ctx, store.Options{Scope: scope, Root: root, Dimensions: 768})
	if err != nil {
		return st, err
	}
	defer s.Close()

	stats, err := s.GetStats(ctx)
	if err != nil {
		return st, err
	}
	st.ChunkCount = stats.ChunkCount
	st.SourceCount = stats.SourceCount
	st.NewestChunk = stats.NewestChunk
	return st, nil
}

func renderStatus(cmd *cobra.Command, statuses []scopeStatus) {
	out := cmd.OutOrStdout()
	for _, st := range statuses {
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s memory — %s", st.Scope, st.Root)))
		if st.ChunkCount == 0 && st.SourceCount == 0 {
			fmt.Fprintln(out, dimStyle.Render("  not yet initialized"))
			fmt.Fprintln(out)
			continue
		}
		fmt.Fprintf(out, "  %s %d\n", color.GreenString("chunks:"), st.ChunkCount)
		fmt.Fprintf(out, "  %s %d\n", color.GreenString("sources:"), st.SourceCount)
		if !st.NewestChunk.IsZero() {
			fmt.Fprintf(out, "  %s %s\n", color.GreenString("last write:"), st.NewestChunk.Format(time.RFC3339))
		}
		fmt.Fprintln(out)
	}
}

// resolveRoots returns the global and project scope roots for the current
// working directory, matching the layout init scaffolds.
func resolveRoots() (globalRoot, projectRoot string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("resolve home directory: %w", err)
	}
	globalRoot = globalMemoryRoot(home)

	cwd, err := os.Getwd()
	if err != nil {
		return "", "", fmt.Errorf("resolve working directory: %w", err)
	}
	projectRoot = config.FindProjectRoot(cwd)
	return globalRoot, memoryDir(projectRoot), nil
}
