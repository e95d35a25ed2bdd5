package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderDefaultsToLocal(t *testing.T) {
	assert.Equal(t, ProviderOpenAI, ParseProvider("openai"))
	assert.Equal(t, ProviderOllama, ParseProvider("ollama"))
	assert.Equal(t, ProviderLocal, ParseProvider("local"))
	assert.Equal(t, ProviderLocal, ParseProvider("unknown"))
}

func TestNewLocalProvider(t *testing.T) {
	e, err := New(context.Background(), Config{Provider: ProviderLocal, Dimensions: 128})
	require.NoError(t, err)
	assert.Equal(t, 128, e.Dimensions())
	assert.True(t, e.Available(context.Background()))
}

func TestNewOpenAIWithoutAPIKeyFails(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: ProviderOpenAI})
	assert.Error(t, err)
}

func TestGetInfoReportsProvider(t *testing.T) {
	e, err := New(context.Background(), Config{Provider: ProviderLocal, Dimensions: 64})
	require.NoError(t, err)
	info := GetInfo(context.Background(), e)
	assert.Equal(t, ProviderLocal, info.Provider)
	assert.Equal(t, 64, info.Dimensions)
}
