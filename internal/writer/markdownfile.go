package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/openclaw/memory/internal/store"
)

var frontmatterBlockPattern = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n?`)

// parseFrontmatter splits a Markdown file into its frontmatter fields and
// the remaining body. Returns a nil map if no frontmatter block is present.
func parseFrontmatter(content string) (map[string]string, string) {
	match := frontmatterBlockPattern.FindStringSubmatch(content)
	if match == nil {
		return nil, content
	}
	fields := make(map[string]string)
	for _, line := range strings.Split(match[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return fields, content[len(match[0]):]
}

// renderFrontmatter writes fields back out in a stable key order so repeated
// rewrites of the same file produce minimal diffs.
func renderFrontmatter(fields map[string]string) string {
	order := []string{"type", "importance", "created", "updated", "reinforcement", "status"}
	var b strings.Builder
	b.WriteString("---\n")
	for _, k := range order {
		if v, ok := fields[k]; ok {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	for k, v := range fields {
		if !containsStr(order, k) {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	b.WriteString("---\n")
	return b.String()
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ensureTargetFile creates path with frontmatter
// {type, importance, created=now, updated=now, reinforcement:0, status:"active"}
// if it doesn't already exist. No-op otherwise.
func ensureTargetFile(path string, route Route, now time.Time) error {
	return EnsureMarkdownFile(path, route.Type, route.Importance, route.Section, now)
}

// EnsureMarkdownFile creates path with frontmatter
// {type, importance, created=now, updated=now, reinforcement:0, status:"active"}
// if it doesn't already exist. No-op otherwise. Exported for callers outside
// the write pipeline, such as the primer/journal/task builders, that need
// the same Markdown-file-with-frontmatter shape without a full Route.
func EnsureMarkdownFile(path string, typ store.ContentType, importance float64, section string, now time.Time) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	fields := map[string]string{
		"type":          string(typ),
		"importance":    strconv.Itoa(int(importance*5 + 0.5)),
		"created":       now.UTC().Format(time.RFC3339),
		"updated":       now.UTC().Format(time.RFC3339),
		"reinforcement": "0",
		"status":        "active",
	}
	content := renderFrontmatter(fields)
	if section != "" {
		content += "\n# " + section + "\n"
	}
	return atomicWrite(path, content)
}

// AppendBullet exposes the Markdown append primitive to callers outside the
// write pipeline, such as the session_end and update_tasks builders.
func AppendBullet(path, section, content string, now time.Time) error {
	return appendBullet(path, section, content, now)
}

// OverwriteSection replaces the entire body of section with lines (each
// rendered as "- <line>"), creating the section heading if absent and
// removing any previous body under it. Used by the update_tasks builder to
// rewrite TASKS.md wholesale rather than append.
func OverwriteSection(path, section string, lines []string, now time.Time) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fields, body := parseFrontmatter(string(raw))
	if fields == nil {
		fields = map[string]string{}
	}
	fields["updated"] = now.UTC().Format(time.RFC3339)

	heading := "# " + section
	all := strings.Split(body, "\n")
	var out []string
	skipping := false
	replaced := false
	for _, line := range all {
		trimmed := strings.TrimSpace(line)
		if trimmed == heading {
			out = append(out, line)
			for _, l := range lines {
				out = append(out, "- "+l)
			}
			skipping = true
			replaced = true
			continue
		}
		if skipping {
			if strings.HasPrefix(trimmed, "#") {
				skipping = false
			} else {
				continue
			}
		}
		out = append(out, line)
	}
	if !replaced {
		if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
		out = append(out, heading)
		for _, l := range lines {
			out = append(out, "- "+l)
		}
	}
	body = strings.Join(out, "\n")
	return atomicWrite(path, renderFrontmatter(fields)+strings.TrimPrefix(body, "\n"))
}

// appendBullet appends "- content" under the file's canonical section,
// creating the section heading if it is missing, and bumps the frontmatter
// updated timestamp.
func appendBullet(path, section, content string, now time.Time) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fields, body := parseFrontmatter(string(raw))
	if fields == nil {
		fields = map[string]string{}
	}
	fields["updated"] = now.UTC().Format(time.RFC3339)

	heading := "# " + section
	if !strings.Contains(body, heading) {
		body = strings.TrimRight(body, "\n") + "\n\n" + heading + "\n"
	}

	lines := strings.Split(body, "\n")
	insertAt := len(lines)
	inSection := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == heading {
			inSection = true
			insertAt = i + 1
			continue
		}
		if inSection {
			if strings.HasPrefix(trimmed, "#") {
				break
			}
			insertAt = i + 1
		}
	}
	bullet := "- " + content
	newLines := append([]string{}, lines[:insertAt]...)
	newLines = append(newLines, bullet)
	newLines = append(newLines, lines[insertAt:]...)
	body = strings.Join(newLines, "\n")

	return atomicWrite(path, renderFrontmatter(fields)+strings.TrimPrefix(body, "\n"))
}

// reinforceFile rewrites the target file's frontmatter reinforcement count
// and updated timestamp. The bullet content itself is untouched.
func reinforceFile(path string, reinforcement int, now time.Time) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fields, body := parseFrontmatter(string(raw))
	if fields == nil {
		fields = map[string]string{}
	}
	fields["reinforcement"] = strconv.Itoa(reinforcement)
	fields["updated"] = now.UTC().Format(time.RFC3339)
	return atomicWrite(path, renderFrontmatter(fields)+body)
}

// conflictReplace locates the bullet item in path whose text best matches
// oldContent (longest common subsequence ratio) and substitutes newContent
// in its place, then bumps the updated timestamp.
func conflictReplace(path, oldContent, newContent string, now time.Time) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fields, body := parseFrontmatter(string(raw))
	if fields == nil {
		fields = map[string]string{}
	}

	lines := strings.Split(body, "\n")
	bestIdx, bestScore := -1, -1.0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- ") {
			continue
		}
		text := strings.TrimPrefix(trimmed, "- ")
		score := lcsRatio(text, oldContent)
		if score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	if bestIdx >= 0 {
		indent := lines[bestIdx][:len(lines[bestIdx])-len(strings.TrimLeft(lines[bestIdx], " \t"))]
		lines[bestIdx] = indent + "- " + newContent
		body = strings.Join(lines, "\n")
	}

	fields["updated"] = now.UTC().Format(time.RFC3339)
	return atomicWrite(path, renderFrontmatter(fields)+body)
}

// lcsRatio returns the longest-common-subsequence length between a and b,
// normalized by the longer string's length, as a 0..1 similarity score.
func lcsRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return float64(lcs) / float64(longest)
}

// ReadSection returns the bullet lines under heading section in path,
// stripped of their leading "- ", or nil if the file or the section is
// absent. Used by the primer builder to pull Preferences/Instructions/
// Completed bullets out of their source files.
func ReadSection(path, section string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	_, body := parseFrontmatter(string(raw))
	heading := "# " + section
	var out []string
	in := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == heading {
			in = true
			continue
		}
		if !in {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			break
		}
		if strings.HasPrefix(trimmed, "- ") {
			out = append(out, strings.TrimPrefix(trimmed, "- "))
		}
	}
	return out, nil
}

// ReadWholeFile returns a file's full content, or "" if it does not exist.
func ReadWholeFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(raw), nil
}

// AtomicWrite exposes the write-then-rename primitive to callers outside
// the write pipeline, such as the primer/task builders regenerating
// derived files.
func AtomicWrite(path, content string) error {
	return atomicWrite(path, content)
}

// atomicWrite writes content to path via write-then-rename so a crash or
// cancellation never leaves a torn file, per §5's atomicity requirement.
func atomicWrite(path, content string) error {
	tmp := path + ".tmp-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
