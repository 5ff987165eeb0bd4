package embedding

import (
	"fmt"
	"math"
	"sort"

	"github.com/viterin/vek/vek32"
)

// normEpsilon keeps unit-normalization defined for zero vectors.
const normEpsilon = 1e-10

// Aligned is the intersection of the two embedding spaces: the sorted common
// movie IDs, the two row-aligned matrices, and a pre-normalized copy of the
// semantic matrix so cosine scoring reduces to a dot product. Read-only
// after Align; safe to share across concurrent requests.
type Aligned struct {
	ids          []int64
	index        map[int64]int
	semantic     [][]float32
	semanticUnit [][]float32
	graph        [][]float32
}

// Align intersects the semantic and graph spaces over their common IDs.
// Movies present in only one space are silently dropped; they can never be
// recommended. An empty intersection means the two spaces were trained on
// disjoint catalogs and is a fatal startup condition.
func Align(semantic, graph *Space) (*Aligned, error) {
	common := make([]int64, 0, min(semantic.Len(), graph.Len()))
	for _, id := range semantic.ids {
		if _, ok := graph.index[id]; ok {
			common = append(common, id)
		}
	}
	if len(common) == 0 {
		return nil, fmt.Errorf("embedding: no common ids between semantic (%d) and graph (%d) spaces", semantic.Len(), graph.Len())
	}
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })

	a := &Aligned{
		ids:          common,
		index:        make(map[int64]int, len(common)),
		semantic:     make([][]float32, len(common)),
		semanticUnit: make([][]float32, len(common)),
		graph:        make([][]float32, len(common)),
	}

	for i, id := range common {
		a.index[id] = i
		sv := semantic.vectors[semantic.index[id]]
		a.semantic[i] = sv
		a.semanticUnit[i] = UnitNorm(sv)
		a.graph[i] = graph.vectors[graph.index[id]]
	}

	return a, nil
}

// UnitNorm returns v divided by its Euclidean norm plus a small epsilon.
func UnitNorm(v []float32) []float32 {
	norm := float32(math.Sqrt(float64(vek32.Dot(v, v)))) + normEpsilon
	return vek32.MulNumber(v, 1/norm)
}

// IDs returns the common movie IDs in their fixed sorted order. This
// ordering is the sole index contract between the aligner and the scorer.
func (a *Aligned) IDs() []int64 { return a.ids }

// Index returns the row for a movie ID in the aligned matrices.
func (a *Aligned) Index(id int64) (int, bool) {
	i, ok := a.index[id]
	return i, ok
}

// Len returns the number of aligned movies.
func (a *Aligned) Len() int { return len(a.ids) }

// SemanticUnit returns the unit-normalized semantic vector at row i.
func (a *Aligned) SemanticUnit(i int) []float32 { return a.semanticUnit[i] }

// Graph returns the raw graph vector at row i.
func (a *Aligned) Graph(i int) []float32 { return a.graph[i] }
