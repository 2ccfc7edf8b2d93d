// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jshan/notice-engine/pkg/types"
)

const (
	defaultModel     = "text-embedding-3-small"
	defaultBatchSize = 32
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	batchSize int

	// dims is learned from the first response when not configured. The
	// engine embeds from concurrent searches, so the learn-once write is
	// guarded.
	mu   sync.Mutex
	dims int
}

// NewOpenAIEmbedder builds a client for cfg. A BaseURL selects a local or
// self-hosted OpenAI-compatible server; it gets "/v1" appended when the
// path is missing.
func NewOpenAIEmbedder(cfg types.EmbedConfig) (*OpenAIEmbedder, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	var client *openai.Client
	if cfg.BaseURL != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = cfg.BaseURL
		if !strings.Contains(cfg.BaseURL, "/v1") {
			clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/") + "/v1"
		}
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedding API key required without a base URL")
		}
		client = openai.NewClient(cfg.APIKey)
	}

	return &OpenAIEmbedder{
		client:    client,
		model:     model,
		batchSize: batchSize,
		dims:      cfg.Dimensions,
	}, nil
}

// Embed requests embeddings in batches of the configured size.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("embedding request: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("embedding response: expected %d vectors, got %d", end-start, len(resp.Data))
		}

		for _, d := range resp.Data {
			if err := e.checkWidth(len(d.Embedding)); err != nil {
				return nil, err
			}
			out = append(out, d.Embedding)
		}
	}
	return out, nil
}

// checkWidth records the embedding width on first sight and rejects
// responses that disagree with it afterwards.
func (e *OpenAIEmbedder) checkWidth(got int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dims == 0 {
		e.dims = got
	}
	if got != e.dims {
		return fmt.Errorf("embedding response: width %d, want %d", got, e.dims)
	}
	return nil
}

// Dimensions returns the configured or learned embedding width. Zero until
// the first successful request when not configured.
func (e *OpenAIEmbedder) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dims
}

// ModelName returns the embedding model identifier.
func (e *OpenAIEmbedder) ModelName() string { return e.model }
