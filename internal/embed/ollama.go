package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	memerr "github.com/openclaw/memory/internal/errors"
)

const DefaultOllamaHost = "http://localhost:11434"
const DefaultOllamaModel = "embeddinggemma"

// OllamaConfig configures the Ollama HTTP embedding provider.
type OllamaConfig struct {
	Host       string
	Model      string
	Dimensions int // 0 = auto-detect from first response
	Timeout    time.Duration
	MaxRetries int
}

func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:       DefaultOllamaHost,
		Model:      DefaultOllamaModel,
		Timeout:    DefaultCallTimeout,
		MaxRetries: DefaultMaxRetries,
	}
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// OllamaEmbedder calls a local Ollama server's /api/embed endpoint.
type OllamaEmbedder struct {
	cfg    OllamaConfig
	client *http.Client

	mu         sync.RWMutex
	dimensions int
}

func NewOllamaEmbedder(ctx context.Context, cfg OllamaConfig) (*OllamaEmbedder, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCallTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	e := &OllamaEmbedder{
		cfg:        cfg,
		client:     &http.Client{Timeout: cfg.Timeout},
		dimensions: cfg.Dimensions,
	}

	if !e.Available(ctx) {
		return nil, memerr.EmbeddingUnavailable(fmt.Sprintf("ollama at %s is not reachable", cfg.Host), nil)
	}
	return e, nil
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var out [][]float32
	retryErr := memerr.Retry(ctx, memerr.RetryConfig{
		MaxRetries:   e.cfg.MaxRetries,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}, func() error {
		vecs, err := e.requestEmbeddings(ctx, texts)
		if err != nil {
			return err
		}
		out = vecs
		return nil
	})
	if retryErr != nil {
		return nil, memerr.EmbeddingUnavailable("ollama embed request failed", retryErr)
	}
	return out, nil
}

func (e *OllamaEmbedder) requestEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned %d: %s", resp.StatusCode, string(msg))
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(parsed.Embeddings), len(texts))
	}

	out := make([][]float32, len(parsed.Embeddings))
	for i, vec := range parsed.Embeddings {
		f32 := make([]float32, len(vec))
		for j, v := range vec {
			f32[j] = float32(v)
		}
		out[i] = normalizeVector(f32)
	}

	e.mu.Lock()
	if e.dimensions == 0 && len(out) > 0 {
		e.dimensions = len(out[0])
	}
	e.mu.Unlock()

	return out, nil
}

func (e *OllamaEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimensions
}

func (e *OllamaEmbedder) ModelName() string { return e.cfg.Model }

func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.Host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (e *OllamaEmbedder) Close() error { return nil }
