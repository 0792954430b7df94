// Package index implements the exact inner-product vector index and its
// on-disk artifact format. The index is a flat row store: row i holds the
// embedding of chunk i, and search scans every row.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch indicates a vector whose length differs from the
// index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Hit is one search result: the row of the matching vector and its inner
// product with the query.
type Hit struct {
	Row   int
	Score float32
}

// Flat is an exact inner-product index over dense float32 vectors. Rows are
// scored by dot product, so callers must store and query L2-normalized
// vectors for the scores to be cosine similarities.
type Flat struct {
	dim     int
	vectors [][]float32
}

// NewFlat creates an empty index with the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrDimensionMismatch, dim)
	}
	return &Flat{dim: dim}, nil
}

// Dimension returns the vector dimension.
func (f *Flat) Dimension() int { return f.dim }

// Size returns the number of stored vectors.
func (f *Flat) Size() int { return len(f.vectors) }

// Add appends vectors to the index in order. Each vector must match the
// index dimension; on error nothing is added.
func (f *Flat) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrDimensionMismatch, i, len(v), f.dim)
		}
	}
	f.vectors = append(f.vectors, vectors...)
	return nil
}

// Search L2-normalizes the query and returns the k rows with the highest
// inner product against it, in descending score order. Ties break toward
// the lower row. When k exceeds the index size every row is returned.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d", ErrDimensionMismatch, len(query), f.dim)
	}
	if k <= 0 || f.Size() == 0 {
		return nil, nil
	}
	if k > f.Size() {
		k = f.Size()
	}

	q := make([]float32, f.dim)
	copy(q, query)
	Normalize(q)

	hits := make([]Hit, 0, f.Size())
	for row, v := range f.vectors {
		hits = append(hits, Hit{Row: row, Score: dot(q, v)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Row < hits[j].Row
	})
	return hits[:k], nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Normalize scales the vector to unit L2 length in place. Zero vectors are
// left untouched.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
