// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultHashDims = 256

// HashEmbedder is a deterministic offline embedder: each text's tokens and
// rune bigrams are feature-hashed into a fixed-width vector, which is then
// L2-normalized. Texts sharing substrings (컴퓨터 / 컴퓨터공학과) land near
// each other, which is enough for link lookup without a model server.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder returns a HashEmbedder of the given width (default 256).
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = defaultHashDims
	}
	return &HashEmbedder{dims: dims}
}

// Embed hashes each text into a normalized feature vector. It never fails.
func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

// Dimensions returns the vector width.
func (e *HashEmbedder) Dimensions() int { return e.dims }

// ModelName identifies the fallback embedder.
func (e *HashEmbedder) ModelName() string { return "feature-hash" }

func (e *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, feature := range features(text) {
		h := fnv.New32a()
		h.Write([]byte(feature))
		sum := h.Sum32()
		bucket := int(sum % uint32(e.dims))
		// Top bit picks the sign so collisions tend to cancel.
		if sum&0x80000000 != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// features emits each normalized token plus its rune bigrams.
func features(text string) []string {
	var out []string
	for _, token := range strings.Fields(strings.ToLower(text)) {
		runes := []rune(strings.Map(keepWordRune, token))
		if len(runes) == 0 {
			continue
		}
		out = append(out, string(runes))
		for i := 0; i+1 < len(runes); i++ {
			out = append(out, "2g:"+string(runes[i:i+2]))
		}
	}
	return out
}

func keepWordRune(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r
	}
	return -1
}
