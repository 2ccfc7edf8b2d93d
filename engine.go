// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package noticeengine exposes the campus notice system as a library: a
// link registry indexed by vector embeddings, searched with short (often
// Korean) queries like "컴퓨터", answering with the best matching board and
// its latest notices.
package noticeengine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jshan/notice-engine/internal/embed"
	"github.com/jshan/notice-engine/internal/scrape"
	"github.com/jshan/notice-engine/internal/store"
	"github.com/jshan/notice-engine/internal/vecindex"
	"github.com/jshan/notice-engine/pkg/types"
)

const (
	defaultTopK     = 5
	defaultShowRows = 10
	defaultTimeout  = 15 * time.Second

	// RegistryFile is the link registry inside the data directory.
	RegistryFile = "links.txt"
)

// Engine ties the store, embedder, vector index and board scraper together
// behind the two public operations, UpdateIndex and SearchLinks.
type Engine struct {
	cfg      types.EngineConfig
	store    *store.Store
	embedder embed.Embedder
	scraper  *scrape.Scraper

	// mu orders index rebuilds against searches. The index file itself is
	// replaced atomically, so the lock only protects within this process.
	mu sync.RWMutex
}

// New builds an Engine from configuration. The store is opened (and its
// schema created) immediately; close the engine when done.
func New(cfg types.EngineConfig) (*Engine, error) {
	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, err
	}

	embedder, err := embed.FromConfig(cfg.Embed)
	if err != nil {
		st.Close()
		return nil, err
	}

	timeout := cfg.Search.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	return &Engine{
		cfg:      cfg,
		store:    st,
		embedder: embedder,
		scraper:  scrape.New(client, cfg.Search.HTTPConfig),
	}, nil
}

// Close releases the engine's store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store exposes the underlying store for the CLI's crawl and export
// subcommands.
func (e *Engine) Store() *store.Store {
	return e.store
}

func (e *Engine) indexDir() string {
	if e.cfg.Index.IndexDir != "" {
		return e.cfg.Index.IndexDir
	}
	return filepath.Join(e.cfg.Store.DataDir, "index")
}

func (e *Engine) registryPath() string {
	return filepath.Join(e.cfg.Store.DataDir, RegistryFile)
}

// UpdateIndex rebuilds the link vector index from the registry and reports
// what was indexed. When a links.txt registry file is present in the data
// directory it is reloaded into the store first; otherwise the stored
// registry is reused. The index is rebuilt from scratch and swapped in
// atomically.
func (e *Engine) UpdateIndex(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if links, err := store.LoadRegistryFile(e.registryPath()); err == nil {
		if err := e.store.ReplaceLinks(ctx, links); err != nil {
			return "", err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	links, err := e.store.Links(ctx)
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		return "", fmt.Errorf("link registry is empty: put a links.txt in %s or load links into the store", e.cfg.Store.DataDir)
	}

	ids := make([]int64, len(links))
	texts := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ID
		texts[i] = l.IndexText()
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("embedding %d links: %w", len(links), err)
	}

	index := vecindex.NewFlat(vecindex.MetricL2)
	if err := index.Build(ids, vectors); err != nil {
		return "", fmt.Errorf("building index: %w", err)
	}

	info := vecindex.Info{
		Model:      e.embedder.ModelName(),
		Dimensions: index.Dim(),
		BuiltAt:    time.Now().UTC(),
	}
	if err := vecindex.Save(e.indexDir(), index, info); err != nil {
		return "", err
	}

	return fmt.Sprintf("indexed %d links (%d-d) -> %s",
		index.Len(), index.Dim(), filepath.Join(e.indexDir(), vecindex.IndexFile)), nil
}

// SearchLinks answers a query with the best matching department board and
// its latest notices, formatted as a table. The nearest registry links are
// looked up in the vector index, re-ranked with synonym and containment
// scoring, and the winner's board is scraped live.
func (e *Engine) SearchLinks(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("empty query")
	}

	best, err := e.bestLink(ctx, query)
	if err != nil {
		return "", err
	}

	listURL := scrape.GuessListURL(best.URL)
	rows, err := e.scraper.FetchRows(ctx, listURL)
	if err != nil {
		return "", fmt.Errorf("scraping %s: %w", listURL, err)
	}

	showRows := e.cfg.Search.ShowRows
	if showRows <= 0 {
		showRows = defaultShowRows
	}
	if len(rows) > showRows {
		rows = rows[:showRows]
	}

	var b strings.Builder
	formatMatch(&b, best, listURL, rows)
	return b.String(), nil
}

// bestLink runs the vector lookup and re-ranking under the read lock.
func (e *Engine) bestLink(ctx context.Context, query string) (types.Link, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	index, info, err := vecindex.Load(e.indexDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.Link{}, fmt.Errorf("index not found in %s; run update first", e.indexDir())
		}
		return types.Link{}, err
	}
	if info.Model != e.embedder.ModelName() {
		return types.Link{}, fmt.Errorf("index built with model %q but engine uses %q; run update",
			info.Model, e.embedder.ModelName())
	}
	if dims := e.embedder.Dimensions(); dims != 0 && dims != info.Dimensions {
		return types.Link{}, fmt.Errorf("index width %d does not match embedder width %d; run update",
			info.Dimensions, dims)
	}

	vector, err := embed.EmbedOne(ctx, e.embedder, query)
	if err != nil {
		return types.Link{}, fmt.Errorf("embedding query: %w", err)
	}

	topK := e.cfg.Search.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	results, err := index.Search(vector, topK)
	if err != nil {
		return types.Link{}, err
	}
	if len(results) == 0 {
		return types.Link{}, fmt.Errorf("index is empty; run update")
	}

	links, err := e.store.Links(ctx)
	if err != nil {
		return types.Link{}, err
	}
	byID := make(map[int64]types.Link, len(links))
	for _, l := range links {
		byID[l.ID] = l
	}

	candidates := make([]types.Link, 0, len(results))
	for _, r := range results {
		if l, ok := byID[r.ID]; ok {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		return types.Link{}, fmt.Errorf("index out of sync with link registry; run update")
	}

	return rerank(query, candidates, e.cfg.Search.Synonyms), nil
}
