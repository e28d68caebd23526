// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Document holds the metadata of one paper in a corpus snapshot.
// Documents are immutable once loaded: selectors and indexes treat them
// as read-only values.
type Document struct {
	// ID is an opaque identifier, unique and stable for the lifetime of
	// a corpus snapshot (e.g. an arXiv ID or Semantic Scholar paper ID).
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year, zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// OutCitations lists the ids of papers this document cites, in
	// citation order. The list may be empty and may contain ids that are
	// not present in the corpus.
	OutCitations []string `json:"out_citations,omitempty" yaml:"out_citations,omitempty"`
}
