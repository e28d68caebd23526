// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/corpus"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest paper metadata YAML files into the corpus",
	Long: `Ingest reads paper metadata YAML files from <corpus-dir>/metadata/ and
loads them into the corpus database. Files unchanged since the last run
are skipped; modified files update the stored document in place.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	store, err := corpus.NewStore(corpusConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed ingestion", summary.Failed)
	}
	return nil
}
