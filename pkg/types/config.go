// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "notice-engine/0.1 (+https://github.com/jshan/notice-engine)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// StoreConfig holds settings for the SQLite store.
type StoreConfig struct {
	// DataDir is the base directory for crawler data (contains notices.db,
	// links.txt, csv/, index/).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// CrawlConfig holds settings for the crawl stage.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline"`

	// RootURL is the campus portal the college listing is discovered from.
	RootURL string `json:"root_url" yaml:"root_url"`

	// CollegeListPath is the JSON endpoint path for the college listing,
	// resolved against RootURL (default "/college/list.json").
	CollegeListPath string `json:"college_list_path" yaml:"college_list_path"`

	// Workers bounds concurrent department notice crawls (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// RequestDelay is the delay between consecutive page fetches within one
	// board (default 0).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxPages caps board pagination per crawl (default 50).
	MaxPages int `json:"max_pages" yaml:"max_pages"`
}

// EmbedConfig holds settings for the embedding client.
type EmbedConfig struct {
	// Model is the embedding model identifier
	// (e.g. "text-embedding-3-small" or a local ko-sroberta serving name).
	Model string `json:"model" yaml:"model"`

	// BaseURL points at an OpenAI-compatible endpoint. Empty means the
	// public OpenAI API.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey authenticates against the embedding endpoint. Empty selects
	// the offline feature-hash embedder.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Dimensions is the embedding width for the fallback embedder and a
	// consistency check for remote ones (default 256 for the fallback).
	Dimensions int `json:"dimensions" yaml:"dimensions"`

	// BatchSize bounds texts per embedding request (default 32).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// IndexConfig holds settings for the link vector index.
type IndexConfig struct {
	// IndexDir is the directory holding the index file and its sidecar
	// metadata (default dataDir/index).
	IndexDir string `json:"index_dir" yaml:"index_dir"`
}

// SearchConfig holds settings for link search.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// TopK is the number of nearest-neighbor candidates re-ranked after the
	// vector lookup (default 5).
	TopK int `json:"top_k" yaml:"top_k"`

	// ShowRows is the number of board rows included in the result string
	// (default 10).
	ShowRows int `json:"show_rows" yaml:"show_rows"`

	// Synonyms maps query tokens to department keywords, merged over the
	// built-in table (e.g. "ai" -> "인공지능").
	Synonyms map[string]string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
}

// EngineConfig groups all stage configurations.
type EngineConfig struct {
	Store  StoreConfig  `json:"store" yaml:"store"`
	Crawl  CrawlConfig  `json:"crawl" yaml:"crawl"`
	Embed  EmbedConfig  `json:"embed" yaml:"embed"`
	Index  IndexConfig  `json:"index" yaml:"index"`
	Search SearchConfig `json:"search" yaml:"search"`
}
