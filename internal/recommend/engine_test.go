package recommend

import (
	"math/rand"
	"testing"

	"github.com/movigation/moviesir/internal/catalog"
	"github.com/movigation/moviesir/internal/embedding"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	runtimes := []int{50, 70, 130, 95, 110, 60, 85, 100, 120, 40, 75, 90}
	genrePool := [][]string{{"Action"}, {"Drama"}, {"Action", "Drama"}}

	var movies []catalog.Movie
	var ids []int64
	for i, runtime := range runtimes {
		id := int64(i + 1)
		m := catalog.Movie{
			ID:          id,
			Title:       "Movie",
			Runtime:     runtime,
			Genres:      genrePool[i%len(genrePool)],
			VoteAverage: 7.0,
			VoteCount:   500,
			ReleaseDate: "2015-06-01",
		}
		if id%2 == 1 {
			m.Providers = []string{"Netflix"}
		}
		movies = append(movies, m)
		ids = append(ids, id)
	}
	// One pre-cutoff movie and one adult movie; both must stay invisible
	// under default request options.
	movies = append(movies,
		catalog.Movie{ID: 13, Title: "Old", Runtime: 100, VoteAverage: 8.0, VoteCount: 500, ReleaseDate: "1995-01-01", Genres: []string{"Action"}},
		catalog.Movie{ID: 14, Title: "Adult", Runtime: 100, VoteAverage: 8.0, VoteCount: 500, ReleaseDate: "2018-01-01", Genres: []string{"Action"}, Adult: true},
	)
	ids = append(ids, 13, 14)

	vectors := make([][]float32, len(ids))
	for i := range ids {
		vectors[i] = []float32{float32(i + 1), float32(len(ids) - i), 1}
	}
	semantic, err := embedding.NewSpace(ids, vectors)
	if err != nil {
		t.Fatalf("NewSpace(semantic) failed: %v", err)
	}
	graph, err := embedding.NewSpace(ids, vectors)
	if err != nil {
		t.Fatalf("NewSpace(graph) failed: %v", err)
	}

	cat := catalog.New(movies)
	opts = append([]Option{
		WithRand(func() *rand.Rand { return rand.New(rand.NewSource(42)) }),
	}, opts...)
	engine, err := New(cat, semantic, graph, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return engine
}

func collectIDs(tracks ...TrackResult) map[int64]int {
	counts := make(map[int64]int)
	for _, tr := range tracks {
		for _, c := range tr.Items {
			counts[c.ID]++
		}
	}
	return counts
}

func TestRecommend_TracksDisjointAndWithinBudget(t *testing.T) {
	engine := newTestEngine(t)

	resp := engine.Recommend(Request{
		HistoryIDs:    []int64{1, 2},
		AvailableTime: 240,
	})

	for _, tr := range []TrackResult{resp.TrackA, resp.TrackB} {
		if tr.TotalRuntime > 240 {
			t.Errorf("track %s: total %d exceeds budget", tr.Label, tr.TotalRuntime)
		}
		sum := 0
		for _, c := range tr.Items {
			sum += c.Runtime
		}
		if sum != tr.TotalRuntime {
			t.Errorf("track %s: TotalRuntime %d but items sum to %d", tr.Label, tr.TotalRuntime, sum)
		}
	}

	for id, n := range collectIDs(resp.TrackA, resp.TrackB) {
		if n > 1 {
			t.Errorf("movie %d appears in both tracks", id)
		}
	}
}

func TestRecommend_HistoryNeverRecommended(t *testing.T) {
	engine := newTestEngine(t)
	history := []int64{1, 2, 3}

	resp := engine.Recommend(Request{HistoryIDs: history, AvailableTime: 300})

	got := collectIDs(resp.TrackA, resp.TrackB)
	for _, id := range history {
		if got[id] > 0 {
			t.Errorf("watched movie %d was recommended", id)
		}
	}
}

func TestRecommend_ExcludedIDsRespected(t *testing.T) {
	engine := newTestEngine(t)

	resp := engine.Recommend(Request{
		HistoryIDs:    []int64{1},
		AvailableTime: 300,
		ExcludedIDs:   []int64{4, 5, 6},
	})

	got := collectIDs(resp.TrackA, resp.TrackB)
	for _, id := range []int64{4, 5, 6} {
		if got[id] > 0 {
			t.Errorf("excluded movie %d was recommended", id)
		}
	}
}

func TestRecommend_EmptyHistory(t *testing.T) {
	engine := newTestEngine(t)

	resp := engine.Recommend(Request{AvailableTime: 240})

	if len(resp.TrackA.Items) == 0 && len(resp.TrackB.Items) == 0 {
		t.Error("empty history produced no recommendations at all")
	}
}

func TestRecommend_OldAndAdultMoviesInvisible(t *testing.T) {
	engine := newTestEngine(t)

	// Both blocked movies match the requested genre and would rank well on
	// their vote stats if they were visible.
	resp := engine.Recommend(Request{
		HistoryIDs:    []int64{1},
		AvailableTime: 480,
		Genres:        []string{"Action"},
	})

	got := collectIDs(resp.TrackA, resp.TrackB)
	if got[13] > 0 {
		t.Error("movie released before the year cutoff was recommended")
	}
	if got[14] > 0 {
		t.Error("adult movie recommended without allow_adult")
	}
}

func TestRecommend_GenreFilterOnPreferenceTrack(t *testing.T) {
	engine := newTestEngine(t)

	resp := engine.Recommend(Request{
		HistoryIDs:    []int64{2},
		AvailableTime: 300,
		Genres:        []string{"Action"},
	})

	for _, c := range resp.TrackA.Items {
		found := false
		for _, g := range c.Genres {
			if g == "Action" {
				found = true
			}
		}
		if !found {
			t.Errorf("preference track returned movie %d without requested genre (genres %v)", c.ID, c.Genres)
		}
	}
}

func TestRecommend_ProviderRelaxation(t *testing.T) {
	engine := newTestEngine(t)

	// An impossible provider would leave Track A empty without relaxation.
	resp := engine.Recommend(Request{
		HistoryIDs:    []int64{1},
		AvailableTime: 240,
		Providers:     []string{"NoSuchService"},
	})

	if len(resp.TrackA.Items) == 0 {
		t.Error("preference track stayed empty; provider filter was not relaxed")
	}
}

func TestRecommendSingle_InBand(t *testing.T) {
	engine := newTestEngine(t)

	c := engine.RecommendSingle(SingleRequest{
		HistoryIDs:    []int64{1},
		TargetRuntime: 100,
	})
	if c == nil {
		t.Fatal("RecommendSingle returned nil")
	}
	if c.Runtime < 90 || c.Runtime > 100 {
		t.Errorf("runtime = %d, want within [90, 100]", c.Runtime)
	}
}

func TestRecommendSingle_LongestFallback(t *testing.T) {
	engine := newTestEngine(t)

	// Band [43, 48] is empty; the longest movie under the target is the
	// 40-minute one.
	c := engine.RecommendSingle(SingleRequest{
		HistoryIDs:    []int64{1},
		TargetRuntime: 48,
	})
	if c == nil {
		t.Fatal("RecommendSingle returned nil")
	}
	if c.Runtime != 40 {
		t.Errorf("runtime = %d, want the 40-minute fallback", c.Runtime)
	}
}

func TestRecommendSingle_NoneFits(t *testing.T) {
	engine := newTestEngine(t)

	if c := engine.RecommendSingle(SingleRequest{TargetRuntime: 30}); c != nil {
		t.Errorf("RecommendSingle = %+v, want nil when every movie is too long", c)
	}
}

func TestRecommendSingle_ExclusionsRespected(t *testing.T) {
	engine := newTestEngine(t)

	// Every movie in the 90..100 band is excluded; the pick must come from
	// the fallback path, not the excluded set.
	c := engine.RecommendSingle(SingleRequest{
		TargetRuntime: 100,
		ExcludedIDs:   []int64{4, 8, 12},
	})
	if c == nil {
		t.Fatal("RecommendSingle returned nil")
	}
	for _, id := range []int64{4, 8, 12} {
		if c.ID == id {
			t.Fatalf("excluded movie %d was picked", id)
		}
	}
}

func TestParseTrack(t *testing.T) {
	tests := []struct {
		in      string
		want    Track
		wantErr bool
	}{
		{"a", TrackPreference, false},
		{"A", TrackPreference, false},
		{"preference", TrackPreference, false},
		{"b", TrackExploration, false},
		{"B", TrackExploration, false},
		{"exploration", TrackExploration, false},
		{"c", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTrack(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTrack(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTrack(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTrack(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTrackString(t *testing.T) {
	if got := TrackPreference.String(); got != "a" {
		t.Errorf("TrackPreference.String() = %q, want \"a\"", got)
	}
	if got := TrackExploration.String(); got != "b" {
		t.Errorf("TrackExploration.String() = %q, want \"b\"", got)
	}
}
