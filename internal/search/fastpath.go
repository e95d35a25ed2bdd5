package search

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/openclaw/memory/internal/chunk"
	"github.com/openclaw/memory/internal/store"
)

type fastPathRule struct {
	pattern *regexp.Regexp
	scope   store.Scope
	path    string
}

// fastPathRules implements §4.5 Stage 1's file table. Checked in order; the
// first match wins.
var fastPathRules = []fastPathRule{
	{regexp.MustCompile(`偏好|preference`), store.ScopeGlobal, "user/preferences.md"},
	{regexp.MustCompile(`指令|instruction|规则|rule`), store.ScopeGlobal, "user/instructions.md"},
	{regexp.MustCompile(`实体|entity|人物|people`), store.ScopeGlobal, "user/entities.md"},
	{regexp.MustCompile(`决策|decision`), store.ScopeProject, "agent/decisions.md"},
	{regexp.MustCompile(`模式|pattern`), store.ScopeProject, "agent/patterns.md"},
	{regexp.MustCompile(`任务|task`), store.ScopeProject, "TASKS.md"},
}

func matchFastPath(query string) (fastPathRule, bool) {
	for _, rule := range fastPathRules {
		if rule.pattern.MatchString(query) {
			return rule, true
		}
	}
	return fastPathRule{}, false
}

// fastPathResult reads rule's target file whole, if it exists. No access
// counters are touched — the fast path bypasses the index entirely.
func (r *Retriever) fastPathResult(rule fastPathRule, maxTokens int) (*Response, error) {
	root := r.scopes.root(rule.scope)
	abs := filepath.Join(root, rule.path)
	raw, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return &Response{Results: nil, TotalTokens: 0, BudgetRemaining: maxTokens}, nil
	}
	if err != nil {
		return nil, err
	}
	content := string(raw)
	tokens := chunk.EstimateTokens(content)
	res := Result{
		URI:        rule.path,
		Content:    content,
		Salience:   1.0,
		TokenCount: tokens,
	}
	return &Response{
		Results:         []Result{res},
		TotalTokens:     tokens,
		BudgetRemaining: maxTokens - tokens,
	}, nil
}
