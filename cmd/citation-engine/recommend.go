// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/ann"
	"github.com/pdiddy/citation-engine/internal/corpus"
	"github.com/pdiddy/citation-engine/internal/embedding"
	"github.com/pdiddy/citation-engine/internal/lexical"
	"github.com/pdiddy/citation-engine/internal/selector"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <doc-id> [pool-ids...]",
	Short: "Fetch citation candidates for a document",
	Long: `Recommend produces a candidate set of papers the given document might
cite. The candidate pool defaults to every corpus document; restrict it by
listing pool IDs after the document ID, or with --pool-before-year to keep
only papers published before a given year.

The embedding selector retrieves nearest neighbors in embedding space; the
lexical selector retrieves BM25 matches on the document title. Both can
expand candidates through their outbound citations with --extend-citations.`,
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().String("selector", "embedding", "selector to use: embedding or lexical")
	recommendCmd.Flags().Int("top-k", 0, "retrieved hits considered before expansion and filtering (default 100)")
	recommendCmd.Flags().Bool("extend-citations", false, "expand candidates through their outbound citations")
	recommendCmd.Flags().Int("pool-before-year", 0, "restrict the pool to papers published before this year")
	recommendCmd.Flags().Bool("json", false, "output candidates as JSON")
	recommendCmd.Flags().String("index-dir", "", "directory holding the persisted indexes (default: index)")
	recommendCmd.Flags().String("embedding-backend", "", "embedding backend: ollama or hashing (default: hashing)")
	recommendCmd.Flags().String("embedding-url", "", "embedding API endpoint (ollama backend)")
	recommendCmd.Flags().String("embedding-model", "", "embedding model identifier")
	recommendCmd.Flags().Int("embedding-dimensions", 0, "embedding vector dimensionality")

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide the document ID to recommend citations for")
	}
	docID := args[0]
	ctx := context.Background()

	store, err := corpus.NewStore(corpusConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	pool, err := candidatePool(ctx, cmd, store, args[1:])
	if err != nil {
		return err
	}

	sel, cleanup, err := buildSelector(cmd, store)
	if err != nil {
		return err
	}
	defer cleanup()

	candidates, err := sel.FetchCandidates(ctx, docID, pool)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatCandidates(ctx, store, candidates, jsonOutput)
}

// candidatePool resolves the eligible candidate set: explicit IDs if given,
// otherwise papers before --pool-before-year, otherwise the whole corpus.
func candidatePool(ctx context.Context, cmd *cobra.Command, store *corpus.Store, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if beforeYear, _ := cmd.Flags().GetInt("pool-before-year"); beforeYear > 0 {
		return store.IDsBefore(ctx, beforeYear)
	}
	return store.AllIDs(ctx)
}

func buildSelector(cmd *cobra.Command, store *corpus.Store) (selector.CandidateSelector, func(), error) {
	idxCfg := indexConfig(cmd)
	selCfg := selectorConfig(cmd)
	name, _ := cmd.Flags().GetString("selector")

	switch name {
	case "embedding", "":
		nnIndex, err := ann.Load(annIndexPath(idxCfg))
		if err != nil {
			if errors.Is(err, ann.ErrIndexNotFound) {
				return nil, nil, fmt.Errorf("nearest-neighbor index missing: run 'citation-engine index' first")
			}
			return nil, nil, err
		}
		model, err := embedding.New(embeddingConfig(cmd))
		if err != nil {
			return nil, nil, err
		}
		return selector.NewEmbeddingSelector(store, nnIndex, model, selCfg), func() {}, nil

	case "lexical":
		lexIndex, err := lexical.Open(lexicalIndexPath(idxCfg))
		if err != nil {
			if errors.Is(err, lexical.ErrIndexNotFound) {
				return nil, nil, fmt.Errorf("lexical index missing: run 'citation-engine index' first")
			}
			return nil, nil, err
		}
		return selector.NewLexicalSelector(store, lexIndex, selCfg), func() { lexIndex.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown selector %q: use embedding or lexical", name)
	}
}

// candidateRecord is the JSON output shape for one candidate.
type candidateRecord struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Year  int    `json:"year,omitempty"`
}

func formatCandidates(ctx context.Context, store *corpus.Store, ids []string, jsonOutput bool) error {
	records := make([]candidateRecord, 0, len(ids))
	for _, id := range ids {
		rec := candidateRecord{ID: id}
		if doc, err := store.Get(ctx, id); err == nil {
			rec.Title = doc.Title
			rec.Year = doc.Year
		}
		records = append(records, rec)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No candidates found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-40s  %-60s  %s\n", "Rank", "ID", "Title", "Year")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 115))

	for i, r := range records {
		id := r.ID
		if len(id) > 40 {
			id = id[:37] + "..."
		}
		title := r.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-40s  %-60s  %s\n", i+1, id, title, year)
	}

	fmt.Fprintf(os.Stdout, "\n%d candidates\n", len(records))
	return nil
}
