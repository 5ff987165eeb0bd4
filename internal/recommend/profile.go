// Package recommend implements the hybrid scoring and time-fit combination
// engine: user profiles over two embedding spaces, composite per-movie
// scores, and the search for movie sets whose total runtime lands inside a
// target band.
package recommend

import (
	"github.com/viterin/vek/vek32"

	"github.com/movigation/moviesir/internal/embedding"
)

// coldStartSample is how many movies from the head of a space's ordering
// seed the profile when none of the user's history is known to that space.
// An arbitrary-prefix default, not a principled cold-start policy.
const coldStartSample = 5

// Profile is a user's aggregate taste vector in each embedding space.
// The semantic vector is unit-normalized; the graph vector is a raw mean.
type Profile struct {
	Semantic []float32
	Graph    []float32
}

// BuildProfile reduces a watch history to one mean vector per space.
// Unknown ids are skipped per space independently; an empty history is a
// degraded default, never an error.
func BuildProfile(semantic, graph *embedding.Space, historyIDs []int64) Profile {
	return Profile{
		Semantic: embedding.UnitNorm(meanVector(semantic, historyIDs)),
		Graph:    meanVector(graph, historyIDs),
	}
}

func meanVector(space *embedding.Space, historyIDs []int64) []float32 {
	sum := make([]float32, space.Dim())
	n := 0
	for _, id := range historyIDs {
		if v, ok := space.Vector(id); ok {
			sum = vek32.Add(sum, v)
			n++
		}
	}

	if n == 0 {
		for _, id := range space.IDs()[:min(coldStartSample, space.Len())] {
			v, _ := space.Vector(id)
			sum = vek32.Add(sum, v)
			n++
		}
	}

	return vek32.MulNumber(sum, 1/float32(n))
}
