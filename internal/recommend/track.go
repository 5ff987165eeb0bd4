package recommend

import "fmt"

// Track identifies one of the independently configured recommendation
// passes run against the same user profile.
type Track int

const (
	// TrackPreference filters by the caller's genres and providers and
	// leans on the semantic space.
	TrackPreference Track = iota

	// TrackExploration ignores genre/provider preferences, leans on the
	// graph space, and subsamples a wider pool for diversity.
	TrackExploration
)

// trackPolicy carries a track's weight mix and filter strictness as data,
// so track behavior is declared in one place instead of branched on.
type trackPolicy struct {
	label          string
	semanticWeight float64
	graphWeight    float64
	useGenres      bool
	useProviders   bool
	poolSize       int
	sampleSize     int // 0 = use the whole pool
}

var trackPolicies = [...]trackPolicy{
	TrackPreference: {
		label:          "preference-matched",
		semanticWeight: 0.7,
		graphWeight:    0.3,
		useGenres:      true,
		useProviders:   true,
		poolSize:       300,
	},
	TrackExploration: {
		label:          "exploration",
		semanticWeight: 0.4,
		graphWeight:    0.6,
		poolSize:       500,
		sampleSize:     300,
	},
}

func (t Track) valid() bool {
	return t >= 0 && int(t) < len(trackPolicies)
}

func (t Track) policy() trackPolicy {
	return trackPolicies[t]
}

// String returns the track's wire name.
func (t Track) String() string {
	switch t {
	case TrackPreference:
		return "a"
	case TrackExploration:
		return "b"
	}
	return fmt.Sprintf("Track(%d)", int(t))
}

// ParseTrack maps a wire name to a Track.
func ParseTrack(s string) (Track, error) {
	switch s {
	case "a", "A", "preference":
		return TrackPreference, nil
	case "b", "B", "exploration":
		return TrackExploration, nil
	}
	return 0, fmt.Errorf("unknown track %q", s)
}
