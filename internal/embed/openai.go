package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	memerr "github.com/openclaw/memory/internal/errors"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIConfig configures the OpenAI-compatible HTTP embedding provider.
// BaseURL is overridable so OpenAI-compatible gateways work unmodified.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
	MaxRetries int
}

func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		BaseURL:    DefaultOpenAIBaseURL,
		Model:      DefaultOpenAIModel,
		Dimensions: 1536,
		Timeout:    DefaultCallTimeout,
		MaxRetries: DefaultMaxRetries,
	}
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// OpenAIEmbedder calls the OpenAI (or compatible) /embeddings endpoint.
type OpenAIEmbedder struct {
	cfg    OpenAIConfig
	client *http.Client
}

func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, memerr.ConfigError("embedding.api_key is required for provider \"openai\"", nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCallTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &OpenAIEmbedder{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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
		return nil, memerr.EmbeddingUnavailable("openai embed request failed", retryErr)
	}
	return out, nil
}

func (e *OpenAIEmbedder) requestEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(openAIEmbedRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai returned %d: %s", resp.StatusCode, string(msg))
	}

	var parsed openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(parsed.Data), len(texts))
	}

	out := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		out[d.Index] = normalizeVector(d.Embedding)
	}
	return out, nil
}

func (e *OpenAIEmbedder) Dimensions() int   { return e.cfg.Dimensions }
func (e *OpenAIEmbedder) ModelName() string { return e.cfg.Model }

func (e *OpenAIEmbedder) Available(ctx context.Context) bool {
	_, err := e.Embed(ctx, "ping")
	return err == nil
}

func (e *OpenAIEmbedder) Close() error { return nil }
