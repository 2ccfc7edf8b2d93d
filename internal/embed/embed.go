// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns link texts and queries into vectors.
//
// Two implementations are provided: a client for OpenAI-compatible
// embedding endpoints (including locally served Korean sentence models),
// and an offline feature-hash embedder used when no API key is configured.
package embed

import (
	"context"
	"fmt"

	"github.com/jshan/notice-engine/pkg/types"
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed returns one vector per input text, all of width Dimensions.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the width of the output vectors.
	Dimensions() int

	// ModelName identifies the model, recorded in the index sidecar so a
	// query embedded with a different model is rejected.
	ModelName() string
}

// FromConfig selects an embedder: the OpenAI-compatible client when an API
// key (or explicit base URL) is configured, otherwise the offline
// feature-hash embedder.
func FromConfig(cfg types.EmbedConfig) (Embedder, error) {
	if cfg.APIKey != "" || cfg.BaseURL != "" {
		return NewOpenAIEmbedder(cfg)
	}
	return NewHashEmbedder(cfg.Dimensions), nil
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	return vecs[0], nil
}
