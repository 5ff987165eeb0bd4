package recommend

import (
	"math/rand"
)

const (
	// The acceptable total runtime band is [bandFloor*budget, budget]:
	// never exceed the budget, allow up to a 10% shortfall.
	bandFloor = 0.9

	// retryBudget bounds the randomized shuffle-and-fill attempts.
	retryBudget = 30

	// Default combination size assumes roughly one movie per 90 minutes of
	// budget plus slack, never fewer than minItems slots and never more
	// than maxItemsCap.
	minutesPerItem = 90
	minItems       = 5
	maxItemsCap    = 15
)

// Combination is a set of unique candidates plus their summed runtime.
type Combination struct {
	Items        []Candidate
	TotalRuntime int
}

// Finder searches ranked candidates for a subset whose total runtime lands
// inside the tolerance band. The random source drives shuffle diversity
// across repeated calls; seed it for deterministic tests. A Finder is
// request-local state and must not be shared across goroutines.
type Finder struct {
	rng *rand.Rand
}

// NewFinder creates a Finder using the given random source.
func NewFinder(rng *rand.Rand) *Finder {
	return &Finder{rng: rng}
}

// Find searches for a combination totalling within [0.9*availableTime,
// availableTime] minutes. maxItems <= 0 selects the budget-derived default.
//
// Attempts, in order: greedy by score, then randomized shuffles with a
// single gap-filling append, then the best under-ceiling total seen across
// all attempts even if below the band floor, then the single candidate
// closest to the budget. Returns nil only when no candidate fits under the
// ceiling at all.
func (f *Finder) Find(candidates []Candidate, availableTime, maxItems int) *Combination {
	minTime := int(float64(availableTime) * bandFloor)
	maxTime := availableTime

	valid := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Runtime > 0 && c.Runtime <= availableTime {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	if maxItems <= 0 {
		maxItems = max(minItems, availableTime/minutesPerItem+2)
	}
	maxItems = min(maxItems, maxItemsCap)

	var best []Candidate
	bestTotal := 0

	// Attempt 1: fill best-scored first.
	byScore := make([]Candidate, len(valid))
	copy(byScore, valid)
	sortByScore(byScore)
	combo, total := greedyFill(byScore, maxTime, maxItems)
	if total >= minTime && total <= maxTime {
		return &Combination{Items: combo, TotalRuntime: total}
	}
	if total > bestTotal {
		best, bestTotal = combo, total
	}

	// Attempt 2: randomized fills, topping up any remaining gap with the
	// single unused candidate closest to it.
	for attempt := 0; attempt < retryBudget; attempt++ {
		f.rng.Shuffle(len(valid), func(i, j int) {
			valid[i], valid[j] = valid[j], valid[i]
		})
		combo, total = greedyFill(valid, maxTime, maxItems)

		if total < maxTime && len(combo) < maxItems {
			if filler, ok := closestGapFiller(valid, combo, maxTime-total); ok {
				combo = append(combo, filler)
				total += filler.Runtime
			}
		}

		if total >= minTime && total <= maxTime {
			return &Combination{Items: combo, TotalRuntime: total}
		}
		if total > bestTotal && total <= maxTime {
			best = append([]Candidate(nil), combo...)
			bestTotal = total
		}
	}

	// Below the band floor is still better than nothing.
	if bestTotal > 0 {
		return &Combination{Items: best, TotalRuntime: bestTotal}
	}

	// No combination was ever built: fall back to the single candidate
	// closest to the budget.
	closest := valid[0]
	for _, c := range valid[1:] {
		if abs(c.Runtime-availableTime) < abs(closest.Runtime-availableTime) {
			closest = c
		}
	}
	return &Combination{Items: []Candidate{closest}, TotalRuntime: closest.Runtime}
}

// greedyFill walks the pool in order, adding every movie that keeps the
// running total under maxTime, until maxItems is reached.
func greedyFill(pool []Candidate, maxTime, maxItems int) ([]Candidate, int) {
	combo := make([]Candidate, 0, maxItems)
	total := 0
	used := make(map[int64]struct{}, maxItems)

	for _, c := range pool {
		if len(combo) >= maxItems {
			break
		}
		if _, dup := used[c.ID]; dup {
			continue
		}
		if total+c.Runtime <= maxTime {
			combo = append(combo, c)
			total += c.Runtime
			used[c.ID] = struct{}{}
		}
	}
	return combo, total
}

// closestGapFiller finds the unused candidate whose runtime comes closest
// to the gap without exceeding it.
func closestGapFiller(pool, combo []Candidate, gap int) (Candidate, bool) {
	used := make(map[int64]struct{}, len(combo))
	for _, c := range combo {
		used[c.ID] = struct{}{}
	}

	var filler Candidate
	found := false
	for _, c := range pool {
		if _, dup := used[c.ID]; dup {
			continue
		}
		if c.Runtime > gap {
			continue
		}
		if !found || gap-c.Runtime < gap-filler.Runtime {
			filler = c
			found = true
		}
	}
	return filler, found
}

func sortByScore(candidates []Candidate) {
	// Insertion sort keeps equal scores in their incoming order.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].Score > candidates[j-1].Score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
