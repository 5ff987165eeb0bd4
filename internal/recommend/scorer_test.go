package recommend

import (
	"math"
	"testing"

	"github.com/movigation/moviesir/internal/catalog"
	"github.com/movigation/moviesir/internal/embedding"
)

func buildScorer(t *testing.T) (*Scorer, *embedding.Space, *embedding.Space) {
	t.Helper()

	movies := []catalog.Movie{
		{ID: 1, Title: "First", Runtime: 100, VoteAverage: 7.0, VoteCount: 500, ReleaseDate: "2015-01-01"},
		{ID: 2, Title: "Second", Runtime: 110, VoteAverage: 7.0, VoteCount: 500, ReleaseDate: "2016-01-01"},
		{ID: 3, Title: "Third", Runtime: 90, VoteAverage: 7.0, VoteCount: 500, ReleaseDate: "2017-01-01"},
	}
	cat := catalog.New(movies)

	ids := []int64{1, 2, 3}
	semantic, err := embedding.NewSpace(ids, [][]float32{
		{1, 0},
		{0, 1},
		{0.5, 0.5},
	})
	if err != nil {
		t.Fatalf("NewSpace(semantic) failed: %v", err)
	}
	graph, err := embedding.NewSpace(ids, [][]float32{
		{1, 0},
		{0, 1},
		{0.5, 0.5},
	})
	if err != nil {
		t.Fatalf("NewSpace(graph) failed: %v", err)
	}

	aligned, err := embedding.Align(semantic, graph)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	return NewScorer(cat, aligned), semantic, graph
}

func TestScore_RanksByProfileSimilarity(t *testing.T) {
	scorer, semantic, graph := buildScorer(t)
	profile := BuildProfile(semantic, graph, []int64{1})

	candidates := scorer.Score(profile, []int64{1, 2, 3}, 0.7, 0.3, 0, nil)
	if len(candidates) != 3 {
		t.Fatalf("len(candidates) = %d, want 3", len(candidates))
	}

	wantOrder := []int64{1, 3, 2}
	for i, want := range wantOrder {
		if candidates[i].ID != want {
			t.Fatalf("position %d: got movie %d, want %d", i, candidates[i].ID, want)
		}
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			t.Errorf("scores not descending: %v then %v", candidates[i-1].Score, candidates[i].Score)
		}
	}
}

func TestScore_ExclusionAfterNormalization(t *testing.T) {
	scorer, semantic, graph := buildScorer(t)
	profile := BuildProfile(semantic, graph, []int64{1})

	full := scorer.Score(profile, []int64{1, 2, 3}, 0.7, 0.3, 0, nil)
	excluded := scorer.Score(profile, []int64{1, 2, 3}, 0.7, 0.3, 0, map[int64]struct{}{1: {}})

	if len(excluded) != 2 {
		t.Fatalf("len(excluded) = %d, want 2", len(excluded))
	}
	for _, c := range excluded {
		if c.ID == 1 {
			t.Fatal("excluded movie 1 still present")
		}
	}

	// Dropping a movie must not rescale the rest: normalization runs over the
	// filtered set before exclusions apply.
	scoreByID := func(cs []Candidate, id int64) float64 {
		for _, c := range cs {
			if c.ID == id {
				return c.Score
			}
		}
		t.Fatalf("movie %d missing", id)
		return 0
	}
	for _, id := range []int64{2, 3} {
		if got, want := scoreByID(excluded, id), scoreByID(full, id); got != want {
			t.Errorf("movie %d: score with exclusion = %v, without = %v", id, got, want)
		}
	}
}

func TestScore_TopK(t *testing.T) {
	scorer, semantic, graph := buildScorer(t)
	profile := BuildProfile(semantic, graph, []int64{1})

	candidates := scorer.Score(profile, []int64{1, 2, 3}, 0.7, 0.3, 2, nil)
	if len(candidates) != 2 {
		t.Errorf("len(candidates) = %d, want 2", len(candidates))
	}
}

func TestScore_EmptyFiltered(t *testing.T) {
	scorer, semantic, graph := buildScorer(t)
	profile := BuildProfile(semantic, graph, []int64{1})

	if got := scorer.Score(profile, nil, 0.7, 0.3, 0, nil); got != nil {
		t.Errorf("Score(nil ids) = %v, want nil", got)
	}
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name  string
		movie catalog.Movie
		want  float64
	}{
		{"below vote threshold", catalog.Movie{VoteAverage: 9.5, VoteCount: 99}, 0},
		{"at threshold", catalog.Movie{VoteAverage: 8.0, VoteCount: 100}, 0.8},
		{"well rated", catalog.Movie{VoteAverage: 7.2, VoteCount: 5000}, 0.72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := qualityScore(tt.movie); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("qualityScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMinMaxNormalize(t *testing.T) {
	values := []float64{2, 4, 6}
	minMaxNormalize(values)
	want := []float64{0, 0.5, 1}
	for i := range want {
		if math.Abs(values[i]-want[i]) > 1e-9 {
			t.Fatalf("normalized = %v, want %v", values, want)
		}
	}
}

func TestMinMaxNormalize_FewerThanTwoPassThrough(t *testing.T) {
	values := []float64{3.7}
	minMaxNormalize(values)
	if values[0] != 3.7 {
		t.Errorf("single value rescaled to %v, want untouched", values[0])
	}
}

func TestMinMaxNormalize_ConstantCollapsesToZero(t *testing.T) {
	values := []float64{5, 5, 5}
	minMaxNormalize(values)
	for i, v := range values {
		if v != 0 {
			t.Errorf("values[%d] = %v, want 0 for a constant set", i, v)
		}
	}
}
