// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package s2

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// memSink collects imported documents.
type memSink struct {
	docs []types.Document
}

func (m *memSink) Put(_ context.Context, doc types.Document) error {
	m.docs = append(m.docs, doc)
	return nil
}

func withTestAPI(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := apiBase
	apiBase = ts.URL + "/graph/v1/paper/"
	t.Cleanup(func() { apiBase = old })

	return &Client{HTTPClient: ts.Client(), UserAgent: "citation-engine-test"}
}

func TestFetchPaper(t *testing.T) {
	client := withTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/abc123"))
		assert.Equal(t, "citation-engine-test", r.Header.Get("User-Agent"))

		json.NewEncoder(w).Encode(s2Paper{
			PaperID:  "abc123",
			Title:    "Graph Neural Networks",
			Abstract: "A study.",
			Year:     2020,
			Authors:  []s2Author{{Name: "Smith, J."}},
			References: []s2Reference{
				{PaperID: "ref-1"},
				{PaperID: ""},
				{PaperID: "ref-2"},
			},
		})
	})

	doc, err := client.FetchPaper(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "abc123", doc.ID)
	assert.Equal(t, "Graph Neural Networks", doc.Title)
	assert.Equal(t, 2020, doc.Year)
	assert.Equal(t, []string{"Smith, J."}, doc.Authors)
	// References without a paperId are dropped; order is preserved.
	assert.Equal(t, []string{"ref-1", "ref-2"}, doc.OutCitations)
}

func TestFetchPaperSendsAPIKey(t *testing.T) {
	client := withTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sekrit", r.Header.Get("x-api-key"))
		json.NewEncoder(w).Encode(s2Paper{PaperID: "x"})
	})
	client.APIKey = "sekrit"

	_, err := client.FetchPaper(context.Background(), "x")
	require.NoError(t, err)
}

func TestFetchPaperNotFound(t *testing.T) {
	client := withTestAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchPaper(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestImport(t *testing.T) {
	client := withTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if id == "bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(s2Paper{PaperID: id, Title: "Paper " + id})
	})

	sink := &memSink{}
	var out bytes.Buffer
	summary, err := client.Import(context.Background(), sink, []string{"a", "bad", "b"}, 0, &out)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, sink.docs, 2)
	assert.Equal(t, "a", sink.docs[0].ID)
	assert.Equal(t, "b", sink.docs[1].ID)
}
