// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selector

import (
	"context"
	"fmt"

	"github.com/pdiddy/citation-engine/internal/embedding"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// NearestNeighborIndex returns the up-to-n document ids closest to vec,
// nearest first. The ids may reference documents no longer in the
// corpus. *ann.Index satisfies it.
type NearestNeighborIndex interface {
	GetNearest(vec []float32, n int) ([]string, error)
}

// EmbeddingSelector generates candidates by nearest-neighbor search in
// embedding space. Configuration is fixed at construction.
type EmbeddingSelector struct {
	corpus Corpus
	index  NearestNeighborIndex
	model  embedding.Model
	cfg    types.SelectorConfig
}

// NewEmbeddingSelector creates a selector over the given corpus,
// nearest-neighbor index, and embedding model.
func NewEmbeddingSelector(c Corpus, index NearestNeighborIndex, model embedding.Model, cfg types.SelectorConfig) *EmbeddingSelector {
	return &EmbeddingSelector{corpus: c, index: index, model: model, cfg: cfg}
}

// FetchCandidates embeds the query document, retrieves its top_k nearest
// neighbors, optionally expands them with their outbound citations, and
// intersects the result with pool.
func (s *EmbeddingSelector) FetchCandidates(ctx context.Context, docID string, pool []string) ([]string, error) {
	doc, err := s.corpus.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	vec, err := s.model.Embed(ctx, embedding.DocumentText(doc))
	if err != nil {
		return nil, fmt.Errorf("embedding query document %s: %w", docID, err)
	}

	// Ask for one extra hit: the query document is usually its own
	// nearest neighbor and gets discarded.
	hits, err := s.index.GetNearest(vec, s.cfg.TopK+1)
	if err != nil {
		return nil, fmt.Errorf("nearest-neighbor query for %s: %w", docID, err)
	}

	candidates := make([]string, 0, len(hits))
	for _, id := range hits {
		if id != docID {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) > s.cfg.TopK {
		candidates = candidates[:s.cfg.TopK]
	}

	if s.cfg.ExtendCitations {
		candidates, err = extendWithCitations(ctx, s.corpus, candidates)
		if err != nil {
			return nil, err
		}
	}

	// The query id can re-enter through expansion when a candidate
	// cites the query document; filterToPool drops it again.
	return filterToPool(candidates, normalizePool(pool), docID), nil
}
