// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ann provides an in-memory nearest-neighbor index over document
// embeddings with gob persistence. Vectors are L2-normalized at insert
// time, so nearest-by-cosine reduces to a dot-product scan.
package ann

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/citation-engine/internal/embedding"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// Errors returned by index operations.
var (
	ErrIndexNotFound      = errors.New("nearest-neighbor index not found")
	ErrUnsupportedVersion = errors.New("unsupported index version")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)

// CurrentIndexVersion is the persistence format version. Increment on
// breaking changes to the gob layout.
const CurrentIndexVersion = 1

// DefaultBuildWorkers bounds concurrent embedding calls during Build.
const DefaultBuildWorkers = 4

// Index holds normalized document vectors in insertion order. Fields are
// exported for gob encoding; treat a loaded Index as read-only.
type Index struct {
	Version    int
	ModelName  string
	Dimensions int
	CreatedAt  time.Time

	IDs     []string
	Vectors [][]float32
}

// New creates an empty index for vectors from the named model.
func New(modelName string, dimensions int) *Index {
	return &Index{
		Version:    CurrentIndexVersion,
		ModelName:  modelName,
		Dimensions: dimensions,
		CreatedAt:  time.Now(),
	}
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int { return len(ix.IDs) }

// Add normalizes vec and appends it under id.
func (ix *Index) Add(id string, vec []float32) error {
	if len(vec) != ix.Dimensions {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), ix.Dimensions)
	}
	ix.IDs = append(ix.IDs, id)
	ix.Vectors = append(ix.Vectors, normalize(vec))
	return nil
}

// GetNearest returns the ids of the up-to-n vectors closest to vec by
// cosine distance, nearest first. Ties keep insertion order. The
// returned ids may reference documents no longer present in the corpus;
// callers filter against their own pool.
func (ix *Index) GetNearest(vec []float32, n int) ([]string, error) {
	if len(vec) != ix.Dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), ix.Dimensions)
	}
	if n <= 0 || ix.Len() == 0 {
		return nil, nil
	}

	query := normalize(vec)

	type scored struct {
		pos   int
		score float32
	}
	scores := make([]scored, ix.Len())
	for i, v := range ix.Vectors {
		scores[i] = scored{pos: i, score: dot(query, v)}
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].pos < scores[j].pos
	})

	if n > len(scores) {
		n = len(scores)
	}
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = ix.IDs[scores[i].pos]
	}
	return ids, nil
}

// DocumentSource streams documents into an index build.
// *corpus.Store satisfies it.
type DocumentSource interface {
	ForEachDocument(ctx context.Context, fn func(types.Document) error) error
}

// Build embeds every document from source with model and returns the
// populated index. Embedding calls run on up to workers goroutines;
// index order follows source order regardless of completion order.
func Build(ctx context.Context, source DocumentSource, model embedding.Model, workers int) (*Index, error) {
	if workers <= 0 {
		workers = DefaultBuildWorkers
	}

	var docs []types.Document
	err := source.ForEachDocument(ctx, func(doc types.Document) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	vectors := make([][]float32, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			vec, err := model.Embed(gctx, embedding.DocumentText(doc))
			if err != nil {
				return fmt.Errorf("embedding %s: %w", doc.ID, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := New(model.Name(), model.Dimensions())
	for i, doc := range docs {
		if err := ix.Add(doc.ID, vectors[i]); err != nil {
			return nil, fmt.Errorf("indexing %s: %w", doc.ID, err)
		}
	}
	return ix, nil
}

// Save persists the index to path using gob encoding. It writes to a
// temp file and renames for atomicity.
func (ix *Index) Save(path string) error {
	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(ix); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Load reads a persisted index from path. It returns ErrIndexNotFound
// when the file is missing and ErrUnsupportedVersion when the format
// version does not match.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var ix Index
	if err := gob.NewDecoder(f).Decode(&ix); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}

	if ix.Version != CurrentIndexVersion {
		return nil, fmt.Errorf("%w: got %d, want %d (rebuild with 'citation-engine index')",
			ErrUnsupportedVersion, ix.Version, CurrentIndexVersion)
	}
	return &ix, nil
}

func normalize(vec []float32) []float32 {
	out := make([]float32, len(vec))
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return out
	}
	inv := float32(1 / math.Sqrt(norm))
	for i, v := range vec {
		out[i] = v * inv
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
