package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes_Bytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{512, "512 B"},
		{1023, "1023 B"},
	}
	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatBytes(tc.bytes))
		})
	}
}

func TestFormatBytes_Kilobytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{1024, "1.0 KB"},
		{2048, "2.0 KB"},
		{512000, "500.0 KB"},
	}
	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatBytes(tc.bytes))
		})
	}
}

func TestFormatBytes_Megabytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{1048576, "1.0 MB"},
		{5242880, "5.0 MB"},
		{104857600, "100.0 MB"},
	}
	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatBytes(tc.bytes))
		})
	}
}

func TestFormatBytes_Gigabytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{1073741824, "1.0 GB"},
		{5368709120, "5.0 GB"},
		{10737418240, "10.0 GB"},
	}
	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatBytes(tc.bytes))
		})
	}
}

func TestFormatTime_Valid(t *testing.T) {
	testTime := time.Date(2026, 1, 15, 10, 30, 45, 0, time.UTC)
	assert.Equal(t, "2026-01-15 10:30:45", FormatTime(testTime))
}

func TestFormatTime_ZeroTime(t *testing.T) {
	assert.Equal(t, "unknown", FormatTime(time.Time{}))
}

func TestFormatTime_Epoch(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()
	assert.Equal(t, "1970-01-01 00:00:00", FormatTime(epoch))
}

func TestContainsAny_Found(t *testing.T) {
	tests := []struct {
		name       string
		s          string
		substrings []string
		expected   bool
	}{
		{"single match", "hello world", []string{"world"}, true},
		{"first of many", "hello world", []string{"hello", "foo", "bar"}, true},
		{"middle of many", "hello world", []string{"foo", "world", "bar"}, true},
		{"last of many", "hello world", []string{"foo", "bar", "world"}, true},
		{"prefix match", "text-embedding-3-small", []string{"text-embedding-"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, containsAny(tc.s, tc.substrings))
		})
	}
}

func TestContainsAny_NotFound(t *testing.T) {
	tests := []struct {
		name       string
		s          string
		substrings []string
		expected   bool
	}{
		{"no match", "hello world", []string{"foo", "bar"}, false},
		{"empty substrings", "hello world", []string{}, false},
		{"empty string", "", []string{"foo"}, false},
		{"substring longer than string", "hi", []string{"hello"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, containsAny(tc.s, tc.substrings))
		})
	}
}

func TestInferBackendFromModel_Local(t *testing.T) {
	tests := []struct{ model, expected string }{
		{"", "local"},
		{"static", "local"},
		{"static768", "local"},
	}
	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			assert.Equal(t, tc.expected, inferBackendFromModel(tc.model))
		})
	}
}

func TestInferBackendFromModel_OpenAI(t *testing.T) {
	tests := []struct{ model, expected string }{
		{"text-embedding-3-small", "openai"},
		{"text-embedding-3-large", "openai"},
		{"ada-002", "openai"},
	}
	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			assert.Equal(t, tc.expected, inferBackendFromModel(tc.model))
		})
	}
}

func TestInferBackendFromModel_Ollama(t *testing.T) {
	tests := []struct{ model, expected string }{
		{"nomic-embed-text", "ollama"},
		{"nomic-embed-text:latest", "ollama"},
		{"mxbai-embed-large", "ollama"},
		{"some-random-model", "ollama"},
	}
	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			assert.Equal(t, tc.expected, inferBackendFromModel(tc.model))
		})
	}
}

func TestGetDirSize_Empty(t *testing.T) {
	tmpDir := t.TempDir()
	assert.Equal(t, int64(0), getDirSize(tmpDir))
}

func TestGetDirSize_WithFiles(t *testing.T) {
	tmpDir := t.TempDir()
	file1 := filepath.Join(tmpDir, "file1.txt")
	file2 := filepath.Join(tmpDir, "file2.txt")
	require.NoError(t, os.WriteFile(file1, make([]byte, 1024), 0o644))
	require.NoError(t, os.WriteFile(file2, make([]byte, 2048), 0o644))
	assert.Equal(t, int64(3072), getDirSize(tmpDir))
}

func TestGetDirSize_WithSubdirectories(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "root.txt"), make([]byte, 1024), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "nested.txt"), make([]byte, 512), 0o644))
	assert.Equal(t, int64(1536), getDirSize(tmpDir))
}

func TestGetDirSize_NonexistentPath(t *testing.T) {
	assert.Equal(t, int64(0), getDirSize("/nonexistent/path/that/does/not/exist"))
}
