// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selector

import (
	"context"
	"fmt"

	"github.com/pdiddy/citation-engine/internal/lexical"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// LexicalSearcher runs a ranked BM25 query and returns up to limit hits,
// best first. *lexical.Index satisfies it.
type LexicalSearcher interface {
	Search(ctx context.Context, queryText string, limit int) ([]lexical.Hit, error)
}

// LexicalSelector generates candidates by BM25 search over title and
// abstract, using the query document's title as the query text. The
// searcher handle is acquired by the caller at construction time
// (lexical.Open) and released when the selector's owner is done with it;
// the selector never reopens the index per query.
type LexicalSelector struct {
	corpus   Corpus
	searcher LexicalSearcher
	cfg      types.SelectorConfig
}

// NewLexicalSelector creates a selector over the given corpus and
// lexical searcher.
func NewLexicalSelector(c Corpus, searcher LexicalSearcher, cfg types.SelectorConfig) *LexicalSelector {
	return &LexicalSelector{corpus: c, searcher: searcher, cfg: cfg}
}

// FetchCandidates queries the lexical index with the title of the query
// document, optionally expands the hits with their outbound citations,
// and intersects the result with pool. A query document with an empty
// title legitimately yields an empty result.
//
// Querying with only the title is a deliberate precision/recall
// trade-off baseline; richer query text would need to preserve the OR
// semantics across both fields.
func (s *LexicalSelector) FetchCandidates(ctx context.Context, docID string, pool []string) ([]string, error) {
	doc, err := s.corpus.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	hits, err := s.searcher.Search(ctx, doc.Title, s.cfg.TopK+1)
	if err != nil {
		return nil, fmt.Errorf("lexical query for %s: %w", docID, err)
	}

	candidates := make([]string, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, h.ID)
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

	return filterToPool(candidates, normalizePool(pool), docID), nil
}
