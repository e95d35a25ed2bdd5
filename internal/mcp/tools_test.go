package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStrings_SingleString(t *testing.T) {
	var f flexStrings
	require.NoError(t, json.Unmarshal([]byte(`"shipped the retriever"`), &f))
	assert.Equal(t, flexStrings{"shipped the retriever"}, f)
}

func TestFlexStrings_Array(t *testing.T) {
	var f flexStrings
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &f))
	assert.Equal(t, flexStrings{"a", "b"}, f)
}

func TestFlexStrings_EmptyString(t *testing.T) {
	var f flexStrings
	require.NoError(t, json.Unmarshal([]byte(`""`), &f))
	assert.Nil(t, f)
}

func TestSessionEndInput_UnmarshalsMixedFieldShapes(t *testing.T) {
	var in SessionEndInput
	raw := `{"request":"fix the retriever","learned":"RRF needs a tiebreak","completed":["wrote rrf.go","wrote salience.go"]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	assert.Equal(t, "fix the retriever", in.Request)
	assert.Equal(t, flexStrings{"RRF needs a tiebreak"}, in.Learned)
	assert.Equal(t, flexStrings{"wrote rrf.go", "wrote salience.go"}, in.Completed)
}
