// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vecindex implements a flat (brute-force) vector index over the
// link registry, with binary persistence. At registry scale (hundreds of
// links) exact search is both simpler and faster than anything approximate.
package vecindex

import (
	"fmt"
	"math"
	"sort"
)

// Metric selects the distance used by Search.
type Metric string

const (
	// MetricL2 is squared Euclidean distance, ascending.
	MetricL2 Metric = "l2"

	// MetricCosine is cosine distance (1 - similarity), ascending.
	MetricCosine Metric = "cosine"
)

// Result is one search hit.
type Result struct {
	ID       int64
	Distance float64
}

// Flat holds all vectors in memory and scans them on every query.
type Flat struct {
	metric Metric
	ids    []int64
	vecs   [][]float32
	dim    int
}

// NewFlat returns an empty index using metric (default l2).
func NewFlat(metric Metric) *Flat {
	if metric == "" {
		metric = MetricL2
	}
	return &Flat{metric: metric}
}

// Build replaces the index contents. All vectors must share one width.
func (f *Flat) Build(ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		f.ids, f.vecs, f.dim = nil, nil, 0
		return nil
	}

	dim := len(vectors[0])
	for i := range vectors {
		if len(vectors[i]) != dim {
			return fmt.Errorf("inconsistent vector widths %d vs %d", len(vectors[i]), dim)
		}
	}

	f.ids = append([]int64(nil), ids...)
	f.vecs = append([][]float32(nil), vectors...)
	f.dim = dim
	return nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return len(f.ids) }

// Dim returns the vector width, zero when empty.
func (f *Flat) Dim() int { return f.dim }

// Metric returns the configured distance metric.
func (f *Flat) Metric() Metric { return f.metric }

// Search returns the k nearest vectors by the index metric, nearest first.
// k larger than the index size returns everything.
func (f *Flat) Search(query []float32, k int) ([]Result, error) {
	if f.Len() == 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("query width %d != index width %d", len(query), f.dim)
	}

	results := make([]Result, 0, f.Len())
	for i, vec := range f.vecs {
		var d float64
		switch f.metric {
		case MetricCosine:
			d = cosineDistance(query, vec)
		default:
			d = l2Distance(query, vec)
		}
		results = append(results, Result{ID: f.ids[i], Distance: d})
	}

	sort.Slice(results, func(a, b int) bool {
		return results[a].Distance < results[b].Distance
	})

	if k > 0 && k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na += va * va
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
