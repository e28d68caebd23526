// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// IngestSummary holds counts from a corpus ingest run.
type IngestSummary struct {
	Ingested int
	Updated  int
	Skipped  int
	Failed   int
}

// Total returns the number of metadata files processed.
func (s IngestSummary) Total() int {
	return s.Ingested + s.Updated + s.Skipped + s.Failed
}

// Ingest reads per-paper metadata YAML files from corpusDir/metadata/
// and populates the database. Files unchanged since the last run are
// skipped based on their modification time.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	metaDir := filepath.Join(s.corpusDir, metadataDir)

	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading metadata directory %s: %w", metaDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		paperID := strings.TrimSuffix(entry.Name(), ".yaml")
		filePath := filepath.Join(metaDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE paper_id = ?`, paperID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", paperID)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}

		var doc types.Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", paperID, err)
			summary.Failed++
			continue
		}
		if doc.ID == "" {
			doc.ID = paperID
		}

		if err := s.ingestDocument(ctx, doc, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", paperID)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "ingested %s\n", paperID)
			summary.Ingested++
		}
	}

	fmt.Fprintf(w, "\ningested: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Ingested, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, doc types.Document, modTime string) error {
	if err := s.Put(ctx, doc); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_status (paper_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		doc.ID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}
	return nil
}
