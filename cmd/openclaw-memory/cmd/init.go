package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/memory/internal/config"
	"github.com/openclaw/memory/internal/embed"
)

// MCPServerConfig is one entry under .mcp.json's "mcpServers" map.
type MCPServerConfig struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// MCPConfig is the root .mcp.json structure used by Claude Code and
// compatible MCP clients to discover local servers.
type MCPConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
}

const mcpServerName = "openclaw-memory"

const usageGuideContent = `<!-- openclaw-memory:guide:start -->
## OpenClaw Memory

This project has OpenClaw Memory configured. It exposes six MCP tools backed
by a local, per-user and per-project Markdown store:

- ` + "`primer`" + ` — call at session start; returns identity, preferences, project
  summary, recent journal entries, and active tasks.
- ` + "`search`" + ` — hybrid vector + full-text search over both memory scopes.
- ` + "`log`" + ` — save a new fact, decision, preference, or pattern.
- ` + "`session_end`" + ` — write a journal entry summarizing the session and refresh
  the primer and task list.
- ` + "`update_tasks`" + ` — rewrite the active task list.
- ` + "`read`" + ` — read a memory file verbatim by its scope-relative path.

Call ` + "`primer`" + ` once at the start of a session, and ` + "`session_end`" + ` before it
ends.
<!-- openclaw-memory:guide:end -->
`

func newInitCmd() *cobra.Command {
	var (
		global bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold memory scopes and configure MCP client integration",
		Long: `init creates the global memory scope (~/.openclaw_memory) on first run,
always creates the project memory scope (./.openclaw_memory) for the current
directory, writes default config.toml files, registers the server in
.mcp.json, and adds a usage guide to CLAUDE.md.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), cmd, global, force)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Also (re)write the global config.toml")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing .mcp.json and CLAUDE.md entries")

	return cmd
}

func runInit(ctx context.Context, cmd *cobra.Command, global, force bool) error {
	out := cmd.OutOrStdout()

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	globalRoot := globalMemoryRoot(home)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	projectRoot := memoryDir(cwd)

	if err := scaffoldGlobalScope(globalRoot); err != nil {
		return fmt.Errorf("scaffold global memory: %w", err)
	}
	fmt.Fprintf(out, "Global memory ready at %s\n", globalRoot)

	if err := scaffoldProjectScope(projectRoot); err != nil {
		return fmt.Errorf("scaffold project memory: %w", err)
	}
	fmt.Fprintf(out, "Project memory ready at %s\n", projectRoot)

	if global || !fileExists(filepath.Join(globalRoot, config.GlobalFileName)) {
		if err := config.WriteDefault(filepath.Join(globalRoot, config.GlobalFileName)); err != nil {
			return fmt.Errorf("write global config: %w", err)
		}
	}

	cfg, err := config.Load(globalRoot, cwd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	checkEmbedderReadiness(ctx, out, cfg)

	changed, err := configureMCPJSON(cwd, force)
	if err != nil {
		return fmt.Errorf("configure .mcp.json: %w", err)
	}
	if changed {
		fmt.Fprintln(out, "Registered openclaw-memory in .mcp.json")
	}

	if changed, err := ensureUsageGuide(cwd, force); err != nil {
		return fmt.Errorf("update CLAUDE.md: %w", err)
	} else if changed {
		fmt.Fprintln(out, "Added usage guide to CLAUDE.md")
	}

	if changed, err := ensureGitignore(cwd); err != nil {
		return fmt.Errorf("update .gitignore: %w", err)
	} else if changed {
		fmt.Fprintln(out, "Added .openclaw_memory/ to .gitignore")
	}

	fmt.Fprintln(out, "Run 'openclaw-memory serve' to start the MCP server.")
	return nil
}

func scaffoldGlobalScope(root string) error {
	dirs := []string{root, filepath.Join(root, "user")}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	now := time.Now()
	seeds := []struct {
		path, section string
	}{
		{filepath.Join(root, "user", "instructions.md"), "Instructions"},
		{filepath.Join(root, "user", "preferences.md"), "Preferences"},
		{filepath.Join(root, "user", "entities.md"), "Entities"},
	}
	for _, s := range seeds {
		if err := ensureSeedFile(s.path, s.section, now); err != nil {
			return err
		}
	}
	return nil
}

func scaffoldProjectScope(root string) error {
	dirs := []string{root, filepath.Join(root, "journal")}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	now := time.Now()
	if err := ensureSeedFile(filepath.Join(root, "TASKS.md"), "Tasks", now); err != nil {
		return err
	}
	return ensureSeedFile(filepath.Join(root, "PRIMER.md"), "Primer", now)
}

func ensureSeedFile(path, section string, now time.Time) error {
	if fileExists(path) {
		return nil
	}
	content := fmt.Sprintf("---\ntype: general\ncreated: %s\nupdated: %s\n---\n# %s\n",
		now.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339), section)
	return os.WriteFile(path, []byte(content), 0o644)
}

// checkEmbedderReadiness builds the configured embedder and reports whether
// it's reachable, without blocking init — the server retries at request
// time and the error taxonomy surfaces EmbeddingUnavailable per call.
func checkEmbedderReadiness(ctx context.Context, out io.Writer, cfg *config.Config) {
	e, err := embed.New(ctx, embed.Config{
		Provider:   embed.ParseProvider(cfg.Embedding.Provider),
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimension,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
	})
	if err != nil {
		fmt.Fprintf(out, "warning: embedder %q could not be constructed: %v\n", cfg.Embedding.Provider, err)
		return
	}
	defer e.Close()
	if !e.Available(ctx) {
		fmt.Fprintf(out, "warning: embedder %q is not reachable; search and log will fail until it is\n", cfg.Embedding.Provider)
	}
}

func configureMCPJSON(projectRoot string, force bool) (bool, error) {
	mcpPath := filepath.Join(projectRoot, ".mcp.json")

	mcpConfig := MCPConfig{MCPServers: map[string]MCPServerConfig{}}
	if data, err := os.ReadFile(mcpPath); err == nil {
		if err := json.Unmarshal(data, &mcpConfig); err != nil {
			return false, fmt.Errorf("parse existing .mcp.json: %w", err)
		}
		if _, exists := mcpConfig.MCPServers[mcpServerName]; exists && !force {
			return false, nil
		}
	}

	binPath, err := findServerBinary()
	if err != nil {
		return false, err
	}

	mcpConfig.MCPServers[mcpServerName] = MCPServerConfig{
		Command: binPath,
		Args:    []string{"serve"},
	}

	data, err := json.MarshalIndent(mcpConfig, "", "  ")
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(mcpPath, append(data, '\n'), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func findServerBinary() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve own executable: %w", err)
	}
	if real, err := filepath.EvalSymlinks(execPath); err == nil {
		return real, nil
	}
	return execPath, nil
}

func ensureUsageGuide(projectRoot string, force bool) (bool, error) {
	path := filepath.Join(projectRoot, "CLAUDE.md")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	content := string(existing)

	if strings.Contains(content, "openclaw-memory:guide:start") {
		if !force {
			return false, nil
		}
		start := strings.Index(content, "<!-- openclaw-memory:guide:start -->")
		end := strings.Index(content, "<!-- openclaw-memory:guide:end -->")
		if start >= 0 && end >= 0 {
			content = content[:start] + usageGuideContent + content[end+len("<!-- openclaw-memory:guide:end -->\n"):]
			return true, os.WriteFile(path, []byte(content), 0o644)
		}
	}

	if content != "" && !strings.HasSuffix(content, "\n\n") {
		content += "\n\n"
	}
	content += usageGuideContent
	return true, os.WriteFile(path, []byte(content), 0o644)
}

func ensureGitignore(projectRoot string) (bool, error) {
	path := filepath.Join(projectRoot, ".gitignore")
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if hasMemoryIgnoreEntry(string(content)) {
		return false, nil
	}

	newContent := string(content)
	if len(newContent) > 0 && !strings.HasSuffix(newContent, "\n") {
		newContent += "\n"
	}
	newContent += memoryDirName + "/\n"
	return true, os.WriteFile(path, []byte(newContent), 0o644)
}

func hasMemoryIgnoreEntry(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		trimmed := strings.Trim(line, "/")
		if trimmed == strings.Trim(memoryDirName, "/") {
			return true
		}
	}
	return false
}
