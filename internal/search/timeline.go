package search

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/openclaw/memory/internal/chunk"
	"github.com/openclaw/memory/internal/store"
)

// timelinePattern triggers Stage 2 even without an explicit journal scope
// filter.
var timelinePattern = regexp.MustCompile(`最近|recent|today|昨天|yesterday|past \d+ days|这几天`)

// timelinePath implements §4.5 Stage 2: journal files newest-first,
// accumulated whole until the token budget would be exceeded.
func (r *Retriever) timelinePath(maxTokens int) (*Response, error) {
	dir := filepath.Join(r.scopes.ProjectRoot, "journal")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Response{BudgetRemaining: maxTokens}, nil
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

	var results []Result
	total := 0
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		content := string(raw)
		tokens := chunk.EstimateTokens(content)
		if total+tokens > maxTokens {
			break
		}
		results = append(results, Result{
			URI:        "journal/" + name,
			Content:    content,
			Salience:   1.0,
			MemoryType: store.ContentTypeJournal,
			TokenCount: tokens,
		})
		total += tokens
	}
	return &Response{Results: results, TotalTokens: total, BudgetRemaining: maxTokens - total}, nil
}
