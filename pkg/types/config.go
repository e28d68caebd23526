package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citation-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CorpusConfig holds settings for the corpus store.
type CorpusConfig struct {
	// CorpusDir is the base directory for the corpus (contains
	// metadata/ and index/).
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`
}

// EmbeddingBackend identifies the embedding model provider.
type EmbeddingBackend string

const (
	EmbeddingOllama  EmbeddingBackend = "ollama"
	EmbeddingHashing EmbeddingBackend = "hashing"
)

// EmbeddingConfig holds settings for the document embedding model.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the embedding provider: ollama or hashing.
	Backend EmbeddingBackend `json:"backend" yaml:"backend"`

	// BaseURL is the embedding API endpoint (Ollama backend only).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Model is the embedding model identifier (e.g. "all-minilm:l6-v2").
	Model string `json:"model" yaml:"model"`

	// Dimensions is the embedding vector dimensionality. It must match
	// the dimensionality the nearest-neighbor index was built with.
	Dimensions int `json:"dimensions" yaml:"dimensions"`

	// RequestsPerSecond throttles embedding API calls. Zero disables
	// throttling.
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
}

// IndexConfig holds settings for building the retrieval indexes.
type IndexConfig struct {
	// IndexDir is the directory holding the persisted indexes
	// (lexical.db and ann.gob).
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// BuildWorkers bounds the number of concurrent embedding calls
	// during an index build (default 4).
	BuildWorkers int `json:"build_workers" yaml:"build_workers"`
}

// SelectorConfig holds settings for candidate selection. The values are
// fixed at selector construction and immutable afterward.
type SelectorConfig struct {
	// TopK caps the number of directly retrieved hits considered before
	// expansion and pool filtering (default 100). It does not bound the
	// final result size.
	TopK int `json:"top_k" yaml:"top_k"`

	// ExtendCitations enables citation-graph expansion: the outbound
	// citations of every retrieved candidate join the candidate set.
	ExtendCitations bool `json:"extend_citations" yaml:"extend_citations"`
}

// ImportConfig holds settings for the Semantic Scholar corpus importer.
type ImportConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional Semantic Scholar API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// DownloadDelay is the delay between consecutive paper fetches (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Corpus    CorpusConfig    `json:"corpus" yaml:"corpus"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Index     IndexConfig     `json:"index" yaml:"index"`
	Selector  SelectorConfig  `json:"selector" yaml:"selector"`
	Import    ImportConfig    `json:"import" yaml:"import"`
}
