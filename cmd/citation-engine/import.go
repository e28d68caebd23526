// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/corpus"
	"github.com/pdiddy/citation-engine/internal/s2"
	"github.com/pdiddy/citation-engine/pkg/types"
)

const (
	defaultImportTimeout = 30 * time.Second
	defaultImportDelay   = 1 * time.Second
)

var importCmd = &cobra.Command{
	Use:   "import [paper-ids...]",
	Short: "Import papers from the Semantic Scholar Graph API",
	Long: `Import fetches paper metadata and outbound references from the Semantic
Scholar Graph API and stores them in the corpus. Paper IDs may be Semantic
Scholar SHAs, DOIs (DOI:...), or arXiv IDs (ARXIV:...).

An API key raises the rate limit; pass --api-key or place it in
.secrets/semantic-scholar-api-key.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("api-key", "", "Semantic Scholar API key (default: .secrets/semantic-scholar-api-key)")
	importCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	importCmd.Flags().Duration("delay", 0, "delay between consecutive fetches (default 1s)")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more paper IDs to import")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultImportTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultImportDelay
	}
	apiKey, _ := cmd.Flags().GetString("api-key")

	cfg := types.ImportConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: "citation-engine/" + version,
		},
		APIKey:        secretDefault("semantic-scholar-api-key", apiKey),
		DownloadDelay: delay,
	}

	store, err := corpus.NewStore(corpusConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	client := s2.NewClient(cfg)
	summary, err := client.Import(context.Background(), store, args, cfg.DownloadDelay, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d paper(s) failed import", summary.Failed)
	}
	return nil
}
