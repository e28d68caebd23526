// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selector narrows a corpus down to a small, high-recall set of
// citation candidates for a query document. Two interchangeable
// strategies exist: nearest-neighbor search in embedding space and BM25
// lexical search. Both share the citation-expansion and pool-filtering
// policy, so callers can substitute one for the other behind the
// CandidateSelector interface.
package selector

import (
	"context"
	"errors"

	"github.com/pdiddy/citation-engine/internal/corpus"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// CandidateSelector returns citation candidates for a query document.
//
// FetchCandidates guarantees that the result never contains docID, is a
// subset of pool, and holds no duplicates. Ids in pool that do not exist
// in the corpus are tolerated and simply never returned. A docID absent
// from the corpus is an error wrapping corpus.ErrNotFound, never a
// silent empty result; an empty result with a nil error is a valid
// outcome. Result order is unspecified.
//
// Selectors hold no per-query mutable state and are safe for concurrent
// use as long as their backing corpus and index support concurrent
// reads.
type CandidateSelector interface {
	FetchCandidates(ctx context.Context, docID string, pool []string) ([]string, error)
}

// Corpus is the read-only document lookup selectors depend on.
// *corpus.Store satisfies it.
type Corpus interface {
	Get(ctx context.Context, id string) (types.Document, error)
}

// normalizePool materializes the caller's pool as a set. The incoming
// slice may be unordered and may contain duplicates or the query id
// itself; callers are not assumed to pass a clean set.
func normalizePool(pool []string) map[string]struct{} {
	set := make(map[string]struct{}, len(pool))
	for _, id := range pool {
		set[id] = struct{}{}
	}
	return set
}

// extendWithCitations appends the full outbound-citation list of every
// candidate to ids. This recovers citations that are topically close but
// retrieval-distant, such as foundational papers an embedding places far
// away. Candidates missing from the corpus contribute nothing. The
// citation lists are unbounded; pool intersection afterwards keeps the
// result in check.
func extendWithCitations(ctx context.Context, c Corpus, ids []string) ([]string, error) {
	extended := ids
	for _, id := range ids {
		doc, err := c.Get(ctx, id)
		if err != nil {
			if errors.Is(err, corpus.ErrNotFound) {
				continue
			}
			return nil, err
		}
		extended = append(extended, doc.OutCitations...)
	}
	return extended, nil
}

// filterToPool intersects ids with pool, drops docID, and deduplicates.
// First occurrence wins, so the relative order of surviving ids is
// preserved even though callers must not rely on it.
func filterToPool(ids []string, pool map[string]struct{}, docID string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == docID {
			continue
		}
		if _, ok := pool[id]; !ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
