// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/ann"
	"github.com/pdiddy/citation-engine/internal/corpus"
	"github.com/pdiddy/citation-engine/internal/embedding"
	"github.com/pdiddy/citation-engine/internal/lexical"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the retrieval indexes from the corpus",
	Long: `Index builds both retrieval indexes from the corpus: an FTS5 lexical
index over titles and abstracts (lexical.db) and a nearest-neighbor index
over document embeddings (ann.gob). Both are written to the index directory
and replaced atomically.

Use --skip-lexical or --skip-ann to rebuild only one of the two.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("index-dir", "", "directory for the persisted indexes (default: index)")
	indexCmd.Flags().Int("build-workers", 0, "concurrent embedding calls during the build (default 4)")
	indexCmd.Flags().String("embedding-backend", "", "embedding backend: ollama or hashing (default: hashing)")
	indexCmd.Flags().String("embedding-url", "", "embedding API endpoint (ollama backend)")
	indexCmd.Flags().String("embedding-model", "", "embedding model identifier")
	indexCmd.Flags().Int("embedding-dimensions", 0, "embedding vector dimensionality")
	indexCmd.Flags().Bool("skip-lexical", false, "do not rebuild the lexical index")
	indexCmd.Flags().Bool("skip-ann", false, "do not rebuild the nearest-neighbor index")

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	idxCfg := indexConfig(cmd)

	if err := os.MkdirAll(idxCfg.IndexDir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	store, err := corpus.NewStore(corpusConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("corpus is empty: run 'citation-engine ingest' or 'citation-engine import' first")
	}

	skipLexical, _ := cmd.Flags().GetBool("skip-lexical")
	skipANN, _ := cmd.Flags().GetBool("skip-ann")

	if !skipLexical {
		n, err := lexical.Build(ctx, lexicalIndexPath(idxCfg), store)
		if err != nil {
			return fmt.Errorf("building lexical index: %w", err)
		}
		fmt.Printf("lexical index: %d documents -> %s\n", n, lexicalIndexPath(idxCfg))
	}

	if !skipANN {
		model, err := embedding.New(embeddingConfig(cmd))
		if err != nil {
			return err
		}

		nnIndex, err := ann.Build(ctx, store, model, idxCfg.BuildWorkers)
		if err != nil {
			return fmt.Errorf("building nearest-neighbor index: %w", err)
		}
		if err := nnIndex.Save(annIndexPath(idxCfg)); err != nil {
			return fmt.Errorf("saving nearest-neighbor index: %w", err)
		}
		fmt.Printf("nearest-neighbor index: %d documents (%s, %d dims) -> %s\n",
			nnIndex.Len(), model.Name(), model.Dimensions(), annIndexPath(idxCfg))
	}

	return nil
}
