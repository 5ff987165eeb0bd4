package recommend

import (
	"math/rand"
	"testing"
)

func testFinder() *Finder {
	return NewFinder(rand.New(rand.NewSource(1)))
}

func cand(id int64, runtime int, score float64) Candidate {
	return Candidate{ID: id, Runtime: runtime, Score: score}
}

func TestFind_ExactFit(t *testing.T) {
	candidates := []Candidate{
		cand(1, 50, 0.9),
		cand(2, 70, 0.8),
		cand(3, 130, 0.7),
	}

	combo := testFinder().Find(candidates, 120, 0)
	if combo == nil {
		t.Fatal("Find returned nil, want a combination")
	}
	if combo.TotalRuntime != 120 {
		t.Errorf("TotalRuntime = %d, want 120", combo.TotalRuntime)
	}
	got := map[int64]bool{}
	for _, c := range combo.Items {
		got[c.ID] = true
	}
	if !got[1] || !got[2] || got[3] {
		t.Errorf("Items = %v, want movies 1 and 2 only", combo.Items)
	}
}

func TestFind_NilWhenNothingFitsUnderCeiling(t *testing.T) {
	candidates := []Candidate{cand(1, 65, 0.9)}

	if combo := testFinder().Find(candidates, 60, 0); combo != nil {
		t.Errorf("Find = %+v, want nil for a 65-minute movie against a 60-minute budget", combo)
	}
}

func TestFind_CeilingNeverExceeded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var candidates []Candidate
	for i := int64(1); i <= 60; i++ {
		candidates = append(candidates, cand(i, 40+rng.Intn(140), rng.Float64()))
	}

	for _, budget := range []int{60, 90, 120, 180, 240, 360, 480} {
		combo := testFinder().Find(candidates, budget, 0)
		if combo == nil {
			t.Fatalf("Find(budget=%d) returned nil", budget)
		}
		if combo.TotalRuntime > budget {
			t.Errorf("budget %d: TotalRuntime = %d exceeds ceiling", budget, combo.TotalRuntime)
		}

		sum := 0
		seen := map[int64]bool{}
		for _, c := range combo.Items {
			sum += c.Runtime
			if seen[c.ID] {
				t.Errorf("budget %d: movie %d appears twice", budget, c.ID)
			}
			seen[c.ID] = true
		}
		if sum != combo.TotalRuntime {
			t.Errorf("budget %d: TotalRuntime = %d, items sum to %d", budget, combo.TotalRuntime, sum)
		}
	}
}

func TestFind_InBandWhenPlentiful(t *testing.T) {
	// Plenty of varied runtimes: the band should be reachable.
	rng := rand.New(rand.NewSource(11))
	var candidates []Candidate
	for i := int64(1); i <= 100; i++ {
		candidates = append(candidates, cand(i, 30+rng.Intn(120), rng.Float64()))
	}

	budget := 300
	combo := testFinder().Find(candidates, budget, 0)
	if combo == nil {
		t.Fatal("Find returned nil")
	}
	floor := int(float64(budget) * bandFloor)
	if combo.TotalRuntime < floor || combo.TotalRuntime > budget {
		t.Errorf("TotalRuntime = %d, want within [%d, %d]", combo.TotalRuntime, floor, budget)
	}
}

func TestFind_BestEffortBelowFloor(t *testing.T) {
	// Only 30 minutes of material against a 300-minute budget: no in-band
	// combination exists, but the partial fill is still returned.
	candidates := []Candidate{cand(1, 30, 0.5)}

	combo := testFinder().Find(candidates, 300, 0)
	if combo == nil {
		t.Fatal("Find returned nil, want best-effort combination")
	}
	if combo.TotalRuntime != 30 || len(combo.Items) != 1 {
		t.Errorf("got total=%d items=%d, want the single 30-minute movie", combo.TotalRuntime, len(combo.Items))
	}
}

func TestFind_MaxItemsCap(t *testing.T) {
	var candidates []Candidate
	for i := int64(1); i <= 50; i++ {
		candidates = append(candidates, cand(i, 10, 0.5))
	}

	// Budget large enough that the derived slot count hits the cap.
	combo := testFinder().Find(candidates, 2000, 0)
	if combo == nil {
		t.Fatal("Find returned nil")
	}
	if len(combo.Items) > maxItemsCap {
		t.Errorf("len(Items) = %d, want <= %d", len(combo.Items), maxItemsCap)
	}
}

func TestFind_ExplicitMaxItems(t *testing.T) {
	var candidates []Candidate
	for i := int64(1); i <= 20; i++ {
		candidates = append(candidates, cand(i, 60, 0.5))
	}

	combo := testFinder().Find(candidates, 600, 2)
	if combo == nil {
		t.Fatal("Find returned nil")
	}
	if len(combo.Items) > 2 {
		t.Errorf("len(Items) = %d, want <= 2", len(combo.Items))
	}
}

func TestFind_SkipsNonPositiveRuntime(t *testing.T) {
	candidates := []Candidate{
		cand(1, 0, 0.9),
		cand(2, -10, 0.8),
	}
	if combo := testFinder().Find(candidates, 120, 0); combo != nil {
		t.Errorf("Find = %+v, want nil when no candidate has a usable runtime", combo)
	}
}

func TestSortByScore_DescendingStable(t *testing.T) {
	candidates := []Candidate{
		cand(1, 90, 0.2),
		cand(2, 90, 0.8),
		cand(3, 90, 0.8),
		cand(4, 90, 0.5),
	}
	sortByScore(candidates)

	wantOrder := []int64{2, 3, 4, 1}
	for i, want := range wantOrder {
		if candidates[i].ID != want {
			t.Fatalf("position %d: got movie %d, want %d (order %v)", i, candidates[i].ID, want, candidates)
		}
	}
}
