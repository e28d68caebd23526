// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package s2 imports paper metadata and outbound citations from the
// Semantic Scholar Graph API to seed the corpus.
package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// apiBase is the Semantic Scholar Graph API paper endpoint. Declared as
// a var so tests can substitute an httptest server.
var apiBase = "https://api.semanticscholar.org/graph/v1/paper/"

const paperFields = "title,abstract,year,authors,references.paperId"

// Client fetches papers from the Semantic Scholar Graph API.
type Client struct {
	HTTPClient *http.Client
	APIKey     string
	UserAgent  string
}

// NewClient creates a client from import configuration. A zero timeout
// defaults to 30 seconds.
func NewClient(cfg types.ImportConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		APIKey:     cfg.APIKey,
		UserAgent:  cfg.UserAgent,
	}
}

// FetchPaper retrieves one paper with its outbound references.
func (c *Client) FetchPaper(ctx context.Context, id string) (types.Document, error) {
	reqURL := apiBase + url.PathEscape(id) + "?fields=" + url.QueryEscape(paperFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.Document{}, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTPClient, req, 0)
	if err != nil {
		return types.Document{}, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return types.Document{}, fmt.Errorf("paper %s not found in Semantic Scholar", id)
	}
	if resp.StatusCode != http.StatusOK {
		return types.Document{}, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sp s2Paper
	if err := json.NewDecoder(resp.Body).Decode(&sp); err != nil {
		return types.Document{}, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	doc := types.Document{
		ID:       sp.PaperID,
		Title:    sp.Title,
		Abstract: sp.Abstract,
		Year:     sp.Year,
	}
	if doc.ID == "" {
		doc.ID = id
	}
	for _, a := range sp.Authors {
		doc.Authors = append(doc.Authors, a.Name)
	}
	for _, ref := range sp.References {
		if ref.PaperID != "" {
			doc.OutCitations = append(doc.OutCitations, ref.PaperID)
		}
	}
	return doc, nil
}

// DocumentSink receives imported documents. *corpus.Store satisfies it.
type DocumentSink interface {
	Put(ctx context.Context, doc types.Document) error
}

// ImportSummary holds counts from an import run.
type ImportSummary struct {
	Imported int
	Failed   int
}

// Import fetches each paper id and stores it in sink, pausing delay
// between fetches. Individual failures are reported on w and counted,
// not fatal.
func (c *Client) Import(ctx context.Context, sink DocumentSink, ids []string, delay time.Duration, w io.Writer) (ImportSummary, error) {
	var summary ImportSummary

	for i, id := range ids {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(delay):
			}
		}

		doc, err := c.FetchPaper(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			fmt.Fprintf(w, "failed   %s: %v\n", id, err)
			summary.Failed++
			continue
		}

		if err := sink.Put(ctx, doc); err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", id, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "imported %s (%d references)\n", doc.ID, len(doc.OutCitations))
		summary.Imported++
	}

	fmt.Fprintf(w, "\nimported: %d, failed: %d\n", summary.Imported, summary.Failed)
	return summary, nil
}

// Semantic Scholar API JSON structures.
type s2Paper struct {
	PaperID    string        `json:"paperId"`
	Title      string        `json:"title"`
	Abstract   string        `json:"abstract"`
	Year       int           `json:"year"`
	Authors    []s2Author    `json:"authors"`
	References []s2Reference `json:"references"`
}

type s2Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type s2Reference struct {
	PaperID string `json:"paperId"`
}
