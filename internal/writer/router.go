package writer

import (
	"regexp"
	"strings"
	"time"

	"github.com/openclaw/memory/internal/store"
)

// routeRule is one row of the §4.3 stage 3 priority table. Rules are tried
// in order; the first match wins.
type routeRule struct {
	typ        store.ContentType
	pattern    *regexp.Regexp
	targetFile string
	scope      store.Scope
	importance float64 // 1-5 scale from the spec table, stored as importance/5
	section    string
}

var routeRules = []routeRule{
	{
		typ:        "instruction",
		pattern:    regexp.MustCompile(`必须|不要|always|never|rule|规则`),
		targetFile: "user/instructions.md",
		scope:      store.ScopeGlobal,
		importance: 5,
		section:    "Instructions",
	},
	{
		typ:        store.ContentTypeDecision,
		pattern:    regexp.MustCompile(`决定|采用|decided|chose|选择.*方案`),
		targetFile: "agent/decisions.md",
		scope:      store.ScopeProject,
		importance: 5,
		section:    "Decisions",
	},
	{
		typ:        store.ContentTypePattern,
		pattern:    regexp.MustCompile(`发现|模式|pattern|solution|解决`),
		targetFile: "agent/patterns.md",
		scope:      store.ScopeProject,
		importance: 3,
		section:    "Patterns",
	},
	{
		typ:        store.ContentTypePreference,
		pattern:    regexp.MustCompile(`偏好|prefer|like|喜欢`),
		targetFile: "user/preferences.md",
		scope:      store.ScopeGlobal,
		importance: 4,
		section:    "Preferences",
	},
	{
		typ:        "entity",
		pattern:    regexp.MustCompile(`[\p{Han}]{2,4}(是|担任)|[A-Z][a-zA-Z]*\s+(is|role)`),
		targetFile: "user/entities.md",
		scope:      store.ScopeGlobal,
		importance: 3,
		section:    "Entities",
	},
}

// typeHints maps the log verb's optional type_hint argument onto a route
// rule, bypassing pattern matching when the caller already knows the kind.
var typeHints = map[string]routeRule{
	"instruction": routeRules[0],
	"decision":    routeRules[1],
	"pattern":     routeRules[2],
	"preference":  routeRules[3],
	"entity":      routeRules[4],
}

// route implements §4.3 stage 3. typeHint, if recognized, wins outright;
// otherwise the priority table is matched top to bottom, falling back to a
// dated journal entry.
func route(content, typeHint string, now time.Time) Route {
	if rule, ok := typeHints[strings.ToLower(strings.TrimSpace(typeHint))]; ok {
		return toRoute(rule)
	}
	for _, rule := range routeRules {
		if rule.pattern.MatchString(content) {
			return toRoute(rule)
		}
	}
	return Route{
		TargetFile: "journal/" + now.Format("2006-01-02") + ".md",
		Scope:      store.ScopeProject,
		Type:       store.ContentTypeJournal,
		Importance: 1.0 / 5,
		Section:    "Notes",
	}
}

func toRoute(rule routeRule) Route {
	typ := rule.typ
	if typ == "instruction" || typ == "entity" {
		// These two kinds have no dedicated store.ContentType; they are
		// general notes routed by file rather than distinguished at
		// retrieval time.
		typ = store.ContentTypeGeneral
	}
	return Route{
		TargetFile: rule.targetFile,
		Scope:      rule.scope,
		Type:       typ,
		Importance: rule.importance / 5,
		Section:    rule.section,
	}
}
