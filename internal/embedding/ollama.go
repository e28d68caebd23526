// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/citation-engine/internal/httputil"
)

const (
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultOllamaModel is the default embedding model.
	DefaultOllamaModel = "all-minilm:l6-v2"

	// DefaultOllamaDimensions is the output dimensionality of all-minilm.
	DefaultOllamaDimensions = 384

	// DefaultOllamaTimeout bounds a single embedding request.
	DefaultOllamaTimeout = 30 * time.Second

	apiPathEmbeddings = "/api/embeddings"
)

// OllamaModel generates embeddings through an Ollama server.
type OllamaModel struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
	limiter    *rate.Limiter
}

// OllamaOption configures an OllamaModel.
type OllamaOption func(*OllamaModel)

// WithBaseURL sets the Ollama API base URL.
func WithBaseURL(url string) OllamaOption {
	return func(m *OllamaModel) { m.baseURL = url }
}

// WithModel sets the embedding model name.
func WithModel(model string) OllamaOption {
	return func(m *OllamaModel) { m.model = model }
}

// WithDimensions sets the expected vector dimensionality.
func WithDimensions(dims int) OllamaOption {
	return func(m *OllamaModel) { m.dimensions = dims }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) OllamaOption {
	return func(m *OllamaModel) { m.client = client }
}

// WithRateLimit throttles API calls to the given requests per second.
func WithRateLimit(rps float64) OllamaOption {
	return func(m *OllamaModel) { m.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewOllamaModel creates an Ollama-backed embedding model.
func NewOllamaModel(opts ...OllamaOption) *OllamaModel {
	m := &OllamaModel{
		baseURL:    DefaultOllamaURL,
		model:      DefaultOllamaModel,
		dimensions: DefaultOllamaDimensions,
		client:     &http.Client{Timeout: DefaultOllamaTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the embedding model identifier.
func (m *OllamaModel) Name() string { return m.model }

// Dimensions returns the vector dimensionality.
func (m *OllamaModel) Dimensions() int { return m.dimensions }

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed requests an embedding from the Ollama API. It returns an error
// if the server responds with a vector of unexpected dimensionality.
func (m *OllamaModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: m.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.baseURL+apiPathEmbeddings, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, m.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("embedding API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding API returned HTTP %d: %s", resp.StatusCode, msg)
	}

	var er ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing embed response: %w", err)
	}

	if len(er.Embedding) != m.dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d",
			len(er.Embedding), m.dimensions)
	}

	vec := make([]float32, len(er.Embedding))
	for i, v := range er.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
