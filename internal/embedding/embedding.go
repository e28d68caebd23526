// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding maps document text to fixed-size dense vectors.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// Model produces fixed-dimensionality embeddings for text. Implementations
// must be safe for concurrent use.
type Model interface {
	// Name identifies the model (and therefore the vector space); an
	// ANN index is only comparable with vectors from the same model.
	Name() string

	// Dimensions returns the vector dimensionality.
	Dimensions() int

	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentText composes the text that is embedded for a document:
// title and abstract separated by a blank line.
func DocumentText(doc types.Document) string {
	return strings.TrimSpace(doc.Title + "\n\n" + doc.Abstract)
}

// New constructs a Model from configuration.
func New(cfg types.EmbeddingConfig) (Model, error) {
	switch cfg.Backend {
	case types.EmbeddingHashing:
		return NewHashingModel(cfg.Dimensions), nil
	case types.EmbeddingOllama, "":
		opts := []OllamaOption{}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, WithModel(cfg.Model))
		}
		if cfg.Dimensions > 0 {
			opts = append(opts, WithDimensions(cfg.Dimensions))
		}
		if cfg.RequestsPerSecond > 0 {
			opts = append(opts, WithRateLimit(cfg.RequestsPerSecond))
		}
		return NewOllamaModel(opts...), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q: use ollama or hashing", cfg.Backend)
	}
}
