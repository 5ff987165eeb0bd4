package recommend

import (
	"math"
	"testing"

	"github.com/movigation/moviesir/internal/embedding"
)

func testSpace(t *testing.T, ids []int64, vectors [][]float32) *embedding.Space {
	t.Helper()
	s, err := embedding.NewSpace(ids, vectors)
	if err != nil {
		t.Fatalf("NewSpace failed: %v", err)
	}
	return s
}

func norm32(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestBuildProfile_SemanticIsUnitLength(t *testing.T) {
	semantic := testSpace(t, []int64{1, 2}, [][]float32{{3, 0}, {0, 4}})
	graph := testSpace(t, []int64{1, 2}, [][]float32{{1, 0}, {0, 1}})

	p := BuildProfile(semantic, graph, []int64{1, 2})
	if got := norm32(p.Semantic); math.Abs(got-1) > 1e-5 {
		t.Errorf("semantic profile norm = %v, want 1", got)
	}
}

func TestBuildProfile_GraphIsRawMean(t *testing.T) {
	semantic := testSpace(t, []int64{1, 2}, [][]float32{{1, 0}, {0, 1}})
	graph := testSpace(t, []int64{1, 2}, [][]float32{{2, 0}, {0, 2}})

	p := BuildProfile(semantic, graph, []int64{1, 2})
	want := []float32{1, 1}
	for i := range want {
		if math.Abs(float64(p.Graph[i]-want[i])) > 1e-6 {
			t.Fatalf("graph profile = %v, want %v", p.Graph, want)
		}
	}
}

func TestBuildProfile_UnknownIDsSkipped(t *testing.T) {
	semantic := testSpace(t, []int64{1, 2}, [][]float32{{1, 0}, {0, 1}})
	graph := testSpace(t, []int64{1, 2}, [][]float32{{2, 0}, {0, 2}})

	withUnknown := BuildProfile(semantic, graph, []int64{1, 999})
	clean := BuildProfile(semantic, graph, []int64{1})

	for i := range clean.Graph {
		if withUnknown.Graph[i] != clean.Graph[i] {
			t.Fatalf("graph profile with unknown id = %v, want %v", withUnknown.Graph, clean.Graph)
		}
	}
}

func TestBuildProfile_EmptyHistoryColdStart(t *testing.T) {
	ids := []int64{10, 20, 30, 40, 50, 60, 70}
	vectors := make([][]float32, len(ids))
	for i := range vectors {
		vectors[i] = []float32{float32(i + 1), 0}
	}
	semantic := testSpace(t, ids, vectors)
	graph := testSpace(t, ids, vectors)

	p := BuildProfile(semantic, graph, nil)

	// Mean of the first five vectors: (1+2+3+4+5)/5 = 3.
	if math.Abs(float64(p.Graph[0]-3)) > 1e-6 {
		t.Errorf("cold-start graph profile = %v, want first component 3", p.Graph)
	}
	if got := norm32(p.Semantic); math.Abs(got-1) > 1e-5 {
		t.Errorf("cold-start semantic norm = %v, want 1", got)
	}
}

func TestBuildProfile_ColdStartSmallSpace(t *testing.T) {
	// Space smaller than the cold-start sample must not panic.
	semantic := testSpace(t, []int64{1, 2}, [][]float32{{1, 0}, {3, 0}})
	graph := testSpace(t, []int64{1, 2}, [][]float32{{1, 0}, {3, 0}})

	p := BuildProfile(semantic, graph, nil)
	if math.Abs(float64(p.Graph[0]-2)) > 1e-6 {
		t.Errorf("graph profile = %v, want mean of both vectors", p.Graph)
	}
}
