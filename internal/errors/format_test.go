package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForVerbRejection(t *testing.T) {
	out := FormatForVerb(QualityRejected("too short"))
	assert.Equal(t, "Rejected: too short", out)
}

func TestFormatForVerbError(t *testing.T) {
	out := FormatForVerb(StorageError("disk full", nil))
	assert.Equal(t, "Error: STORAGE: disk full", out)
}

func TestFormatForVerbPlainError(t *testing.T) {
	out := FormatForVerb(errors.New("boom"))
	assert.Equal(t, "Error: boom", out)
}

func TestFormatJSONRoundTrips(t *testing.T) {
	err := New(CodeStorageIO, "write failed", errors.New("enospc")).WithSuggestion("free up disk space")
	raw, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var decoded jsonError
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, CodeStorageIO, decoded.Code)
	assert.Equal(t, "write failed", decoded.Message)
	assert.Equal(t, "enospc", decoded.Cause)
	assert.Equal(t, "free up disk space", decoded.Suggestion)
}

func TestFormatForLogIncludesDetails(t *testing.T) {
	err := New(CodeConfigInvalid, "bad field", nil).WithDetail("field", "search.default_top_k")
	fields := FormatForLog(err)
	assert.Equal(t, CodeConfigInvalid, fields["error_code"])
	assert.Equal(t, "search.default_top_k", fields["detail_field"])
}
