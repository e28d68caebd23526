package corpus

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, metadataDir), 0o755); err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(types.CorpusConfig{CorpusDir: tmpDir})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, tmpDir
}

func writeMetadata(t *testing.T, corpusDir string, doc types.Document) {
	t.Helper()
	data, err := yaml.Marshal(&doc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(corpusDir, metadataDir, doc.ID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func sampleDoc(id string) types.Document {
	return types.Document{
		ID:           id,
		Title:        "Efficient Attention Mechanisms for Transformers",
		Abstract:     "We study linear approximations of softmax attention.",
		Authors:      []string{"Smith, J.", "Doe, A."},
		Year:         2023,
		OutCitations: []string{"cited-1", "cited-2"},
	}
}

// --- tests ---

func TestPutGetRoundTrip(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	want := sampleDoc("p1")
	if err := store.Put(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestGetNotFound(t *testing.T) {
	store, _ := testStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestPutPreservesCitationOrder(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	doc := sampleDoc("p1")
	doc.OutCitations = []string{"z", "a", "m", "a"}
	if err := store.Put(ctx, doc); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.OutCitations, doc.OutCitations) {
		t.Errorf("OutCitations = %v, want %v", got.OutCitations, doc.OutCitations)
	}
}

func TestPutReplacesCitations(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	doc := sampleDoc("p1")
	if err := store.Put(ctx, doc); err != nil {
		t.Fatal(err)
	}

	doc.OutCitations = []string{"only-one"}
	if err := store.Put(ctx, doc); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.OutCitations, []string{"only-one"}) {
		t.Errorf("OutCitations after update = %v", got.OutCitations)
	}
}

func TestIDsBefore(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	for _, d := range []types.Document{
		{ID: "p2019", Title: "old", Year: 2019},
		{ID: "p2021", Title: "mid", Year: 2021},
		{ID: "p2023", Title: "new", Year: 2023},
		{ID: "p-undated", Title: "undated"},
	} {
		if err := store.Put(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.IDsBefore(ctx, 2022)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"p2019", "p2021"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IDsBefore(2022) = %v, want %v", got, want)
	}
}

func TestIngest(t *testing.T) {
	store, tmpDir := testStore(t)
	ctx := context.Background()

	writeMetadata(t, tmpDir, sampleDoc("p1"))
	writeMetadata(t, tmpDir, sampleDoc("p2"))

	var out bytes.Buffer
	summary, err := store.Ingest(ctx, &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Ingested != 2 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 2 ingested", summary)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestIngestSkipsUnchanged(t *testing.T) {
	store, tmpDir := testStore(t)
	ctx := context.Background()

	writeMetadata(t, tmpDir, sampleDoc("p1"))

	if _, err := store.Ingest(ctx, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	summary, err := store.Ingest(ctx, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 || summary.Ingested != 0 {
		t.Errorf("second ingest summary = %+v, want 1 skipped", summary)
	}
}

func TestIngestDetectsUpdate(t *testing.T) {
	store, tmpDir := testStore(t)
	ctx := context.Background()

	writeMetadata(t, tmpDir, sampleDoc("p1"))
	if _, err := store.Ingest(ctx, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	// Touch the file with a new mod time and changed content.
	doc := sampleDoc("p1")
	doc.Title = "Revised Title"
	writeMetadata(t, tmpDir, doc)
	future := time.Now().Add(2 * time.Second)
	path := filepath.Join(tmpDir, metadataDir, "p1.yaml")
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	summary, err := store.Ingest(ctx, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 {
		t.Fatalf("summary = %+v, want 1 updated", summary)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Revised Title" {
		t.Errorf("Title = %q after update", got.Title)
	}
}

func TestIngestReportsParseFailures(t *testing.T) {
	store, tmpDir := testStore(t)

	path := filepath.Join(tmpDir, metadataDir, "broken.yaml")
	if err := os.WriteFile(path, []byte("{not yaml:::"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := store.Ingest(context.Background(), &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 failed", summary)
	}
}

func TestForEachDocument(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if err := store.Put(ctx, types.Document{ID: id, Title: id}); err != nil {
			t.Fatal(err)
		}
	}

	var seen []string
	err := store.ForEachDocument(ctx, func(d types.Document) error {
		seen = append(seen, d.ID)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seen, []string{"a", "b", "c"}) {
		t.Errorf("iteration order = %v", seen)
	}
}
