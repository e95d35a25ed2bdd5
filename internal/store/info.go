package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FormatBytes renders a byte count the way `status` reports index sizes.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// FormatTime renders a timestamp for display, or "unknown" for the zero value.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04:05")
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// inferBackendFromModel guesses which embedding provider a model name
// belongs to, for status reporting when only the model name was persisted.
func inferBackendFromModel(model string) string {
	if model == "" {
		return "local"
	}
	if containsAny(model, []string{"static"}) {
		return "local"
	}
	if containsAny(model, []string{"gpt-", "text-embedding-", "ada-"}) {
		return "openai"
	}
	return "ollama"
}

// getDirSize sums file sizes recursively under dir, returning 0 if the
// directory doesn't exist.
func getDirSize(dir string) int64 {
	var total int64
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}
