// Package embedding holds the two item-embedding spaces (semantic text and
// collaborative graph) and aligns them over their common movie IDs.
package embedding

import "fmt"

// Space maps movie IDs to fixed-length vectors. The ID ordering is the
// load order and stays stable for the lifetime of the space; the cold-start
// profile fallback depends on it.
type Space struct {
	ids     []int64
	index   map[int64]int
	vectors [][]float32
	dim     int
}

// NewSpace builds a Space from parallel id and vector slices.
func NewSpace(ids []int64, vectors [][]float32) (*Space, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("embedding: %d ids but %d vectors", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("embedding: empty space")
	}

	dim := len(vectors[0])
	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("embedding: vector for id %d has dim %d, want %d", id, len(vectors[i]), dim)
		}
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("embedding: duplicate id %d", id)
		}
		index[id] = i
	}

	return &Space{ids: ids, index: index, vectors: vectors, dim: dim}, nil
}

// Vector returns the embedding for the given movie ID.
func (s *Space) Vector(id int64) ([]float32, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.vectors[i], true
}

// IDs returns the space's movie IDs in load order.
func (s *Space) IDs() []int64 { return s.ids }

// Len returns the number of movies in the space.
func (s *Space) Len() int { return len(s.ids) }

// Dim returns the vector dimensionality.
func (s *Space) Dim() int { return s.dim }
