package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/openclaw/memory/internal/store"
	"github.com/openclaw/memory/internal/writer"
)

// recentJournalDays is how far back the primer's Recent Context section
// looks for "Completed" bullets, per §6's primer verb definition.
const recentJournalDays = 3

// buildPrimer composes PRIMER.md's Markdown blob from the global
// preference/instruction/entity files, the project's active tasks, and the
// last few days of journal "Completed" bullets. It is a thin template
// renderer over files the Writer and Indexer already maintain.
func (s *Server) buildPrimer() (string, error) {
	instructions, err := writer.ReadSection(filepath.Join(s.globalRoot, "user", "instructions.md"), "Instructions")
	if err != nil {
		return "", err
	}
	identity, err := writer.ReadSection(filepath.Join(s.globalRoot, "user", "entities.md"), "Entities")
	if err != nil {
		return "", err
	}
	preferences, err := writer.ReadSection(filepath.Join(s.globalRoot, "user", "preferences.md"), "Preferences")
	if err != nil {
		return "", err
	}
	recent, err := s.recentCompletedBullets(recentJournalDays)
	if err != nil {
		return "", err
	}
	tasks, err := writer.ReadSection(filepath.Join(s.projectRoot, "TASKS.md"), "Tasks")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Primer\n\n")
	writeBulletSection(&b, "Instructions", instructions)
	writeBulletSection(&b, "User Identity", identity)
	b.WriteString("## Project\n\n")
	b.WriteString(s.projectSummary() + "\n\n")
	writeBulletSection(&b, "Preferences", preferences)
	writeBulletSection(&b, "Recent Context", recent)
	writeBulletSection(&b, "Active Tasks", tasks)
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func writeBulletSection(b *strings.Builder, heading string, items []string) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	if len(items) == 0 {
		b.WriteString("_none_\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func (s *Server) projectSummary() string {
	if s.projectName == "" && s.projectDescription == "" {
		return filepath.Base(filepath.Clean(filepath.Dir(s.projectRoot)))
	}
	if s.projectDescription == "" {
		return s.projectName
	}
	return fmt.Sprintf("%s: %s", s.projectName, s.projectDescription)
}

// recentCompletedBullets walks the project's journal directory newest-first
// and collects the "Completed" bullets from the most recent n dated files.
func (s *Server) recentCompletedBullets(n int) ([]string, error) {
	dir := filepath.Join(s.projectRoot, "journal")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if len(names) > n {
		names = names[:n]
	}
	var bullets []string
	for _, name := range names {
		items, err := writer.ReadSection(filepath.Join(dir, name), "Completed")
		if err != nil {
			return nil, err
		}
		bullets = append(bullets, items...)
	}
	return bullets, nil
}

// appendJournalEntry writes today's dated journal file with the session's
// request/learned/completed/next-steps sections, creating the file with
// frontmatter on its first write of the day.
func (s *Server) appendJournalEntry(in SessionEndInput, now time.Time) (string, error) {
	name := now.UTC().Format("2006-01-02") + ".md"
	path := filepath.Join(s.projectRoot, "journal", name)

	if err := writer.EnsureMarkdownFile(path, store.ContentTypeJournal, 0, "", now); err != nil {
		return "", err
	}
	if in.Request != "" {
		if err := writer.AppendBullet(path, "Request", in.Request, now); err != nil {
			return "", err
		}
	}
	for _, item := range in.Learned {
		if err := writer.AppendBullet(path, "Learned", item, now); err != nil {
			return "", err
		}
	}
	for _, item := range in.Completed {
		if err := writer.AppendBullet(path, "Completed", item, now); err != nil {
			return "", err
		}
	}
	for _, item := range in.NextSteps {
		if err := writer.AppendBullet(path, "Next Steps", item, now); err != nil {
			return "", err
		}
	}
	return name, nil
}

// rewriteTasks replaces TASKS.md's Tasks section wholesale with the given
// task list, rendering each as a checkbox-style bullet line.
func (s *Server) rewriteTasks(tasks []TaskItem, now time.Time) error {
	path := filepath.Join(s.projectRoot, "TASKS.md")
	if err := writer.EnsureMarkdownFile(path, store.ContentTypeJournal, 0, "", now); err != nil {
		return err
	}
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = renderTaskLine(t)
	}
	return writer.OverwriteSection(path, "Tasks", lines, now)
}

func renderTaskLine(t TaskItem) string {
	marker := " "
	switch t.Status {
	case TaskDone:
		marker = "x"
	case TaskInProgress:
		marker = "~"
	}
	line := fmt.Sprintf("[%s] %s", marker, t.Title)
	if t.Progress != "" {
		line += " — " + t.Progress
	}
	if t.NextStep != "" {
		line += " (next: " + t.NextStep + ")"
	}
	if len(t.RelatedFiles) > 0 {
		line += " [" + strings.Join(t.RelatedFiles, ", ") + "]"
	}
	return line
}

// regeneratePrimer rewrites PRIMER.md from current source files. Called
// after session_end and update_tasks, both of which change primer inputs.
func (s *Server) regeneratePrimer() error {
	content, err := s.buildPrimer()
	if err != nil {
		return err
	}
	return writer.AtomicWrite(filepath.Join(s.projectRoot, "PRIMER.md"), content)
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
