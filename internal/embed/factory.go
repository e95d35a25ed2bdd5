package embed

import (
	"context"
	"fmt"
	"strings"

	memerr "github.com/openclaw/memory/internal/errors"
)

// ProviderType is one of the three interchangeable embedding backends named
// in the configuration surface.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	ProviderLocal  ProviderType = "local"
)

func ParseProvider(s string) ProviderType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai":
		return ProviderOpenAI
	case "ollama":
		return ProviderOllama
	default:
		return ProviderLocal
	}
}

// Config carries the subset of `[embedding]` needed to build an Embedder.
type Config struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	APIKey     string
	BaseURL    string
	CacheSize  int
}

// New builds the configured embedder, wrapped with the content-hash LRU
// cache. Provider failures surface as EmbeddingUnavailable rather than
// silently falling back to another provider: the config names exactly one
// backend.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)

	switch cfg.Provider {
	case ProviderOpenAI:
		oaiCfg := DefaultOpenAIConfig()
		oaiCfg.APIKey = cfg.APIKey
		if cfg.BaseURL != "" {
			oaiCfg.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			oaiCfg.Model = cfg.Model
		}
		if cfg.Dimensions > 0 {
			oaiCfg.Dimensions = cfg.Dimensions
		}
		inner, err = NewOpenAIEmbedder(oaiCfg)

	case ProviderOllama:
		ollCfg := DefaultOllamaConfig()
		if cfg.BaseURL != "" {
			ollCfg.Host = cfg.BaseURL
		}
		if cfg.Model != "" {
			ollCfg.Model = cfg.Model
		}
		ollCfg.Dimensions = cfg.Dimensions
		inner, err = NewOllamaEmbedder(ctx, ollCfg)

	case ProviderLocal:
		inner, err = NewStaticEmbedder(cfg.Dimensions), nil

	default:
		return nil, memerr.ConfigError(fmt.Sprintf("unknown embedding.provider %q", cfg.Provider), nil)
	}

	if err != nil {
		return nil, err
	}

	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}

// EmbedderInfo summarizes a constructed embedder for status reporting.
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

func GetInfo(ctx context.Context, e Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:      e.ModelName(),
		Dimensions: e.Dimensions(),
		Available:  e.Available(ctx),
	}

	inner := e
	if cached, ok := e.(*CachedEmbedder); ok {
		inner = cached.Inner()
	}
	switch inner.(type) {
	case *OpenAIEmbedder:
		info.Provider = ProviderOpenAI
	case *OllamaEmbedder:
		info.Provider = ProviderOllama
	default:
		info.Provider = ProviderLocal
	}
	return info
}
