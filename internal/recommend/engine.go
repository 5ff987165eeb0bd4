package recommend

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/movigation/moviesir/internal/catalog"
	"github.com/movigation/moviesir/internal/embedding"
)

const (
	// defaultMinYear is the recency cutoff applied to every track.
	defaultMinYear = 2000

	// relaxThreshold triggers the preference track's filter relaxation:
	// when the first pass fills less than this share of the budget, the
	// provider filter is dropped and the pass re-run.
	relaxThreshold = 0.7
)

// Request is one recommendation call. All exclusion state is call-scoped;
// the engine never accumulates what it has shown across calls.
type Request struct {
	HistoryIDs    []int64
	AvailableTime int // minutes
	Genres        []string
	Providers     []string
	AllowAdult    bool
	ExcludedIDs   []int64
}

// SingleRequest asks for one replacement movie near a target runtime.
type SingleRequest struct {
	HistoryIDs    []int64
	TargetRuntime int // minutes
	ExcludedIDs   []int64
	Track         Track
	Genres        []string
	Providers     []string
	AllowAdult    bool
}

// TrackResult is one track's combination. Empty items are a valid outcome,
// not an error.
type TrackResult struct {
	Label        string
	Items        []Candidate
	TotalRuntime int
}

// Response is the two-track recommendation plus elapsed wall-clock time.
type Response struct {
	TrackA  TrackResult
	TrackB  TrackResult
	Elapsed float64 // seconds
}

// Engine runs the full pipeline: profile, filter, score, combination
// search, two-track orchestration. All catalog and embedding state is
// read-only after New; each call builds its own request-local state, so an
// Engine is safe for concurrent use.
type Engine struct {
	catalog  *catalog.Catalog
	semantic *embedding.Space
	graph    *embedding.Space
	aligned  *embedding.Aligned
	scorer   *Scorer
	minYear  int
	newRand  func() *rand.Rand
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMinYear overrides the recency cutoff.
func WithMinYear(year int) Option {
	return func(e *Engine) { e.minYear = year }
}

// WithRand overrides the per-call random source factory. Tests pass a
// seeded source for deterministic search behavior.
func WithRand(newRand func() *rand.Rand) Option {
	return func(e *Engine) { e.newRand = newRand }
}

// WithLogger overrides the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New aligns the two embedding spaces and builds the engine. An empty
// intersection between the spaces fails here, at startup, so the engine
// never serves from an unaligned catalog.
func New(cat *catalog.Catalog, semantic, graph *embedding.Space, opts ...Option) (*Engine, error) {
	aligned, err := embedding.Align(semantic, graph)
	if err != nil {
		return nil, fmt.Errorf("aligning embedding spaces: %w", err)
	}

	e := &Engine{
		catalog:  cat,
		semantic: semantic,
		graph:    graph,
		aligned:  aligned,
		scorer:   NewScorer(cat, aligned),
		minYear:  defaultMinYear,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(rand.Int63()))
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// AlignedCount returns the number of recommendable movies.
func (e *Engine) AlignedCount() int {
	return e.aligned.Len()
}

// Recommend runs both tracks against the caller's time budget and returns
// their combinations. Track A (preference-matched) honors genre and
// provider preferences, relaxing the provider filter when it starves the
// pool; Track B (exploration) widens the pool and excludes everything
// Track A picked, so one response never shows a movie twice.
func (e *Engine) Recommend(req Request) Response {
	start := time.Now()
	rng := e.newRand()
	finder := NewFinder(rng)

	profile := BuildProfile(e.semantic, e.graph, req.HistoryIDs)
	exclude := idSet(req.HistoryIDs, req.ExcludedIDs)

	comboA := e.runPreferenceTrack(profile, finder, req, exclude)
	trackA := toTrackResult(TrackPreference, comboA)

	excludeB := idSet(req.HistoryIDs, req.ExcludedIDs)
	for _, c := range trackA.Items {
		excludeB[c.ID] = struct{}{}
	}
	comboB := e.runTrack(TrackExploration, profile, finder, rng, req.AllowAdult, nil, nil, excludeB, req.AvailableTime)
	trackB := toTrackResult(TrackExploration, comboB)

	elapsed := time.Since(start).Seconds()
	e.logger.Debug("recommend complete",
		"available_time", req.AvailableTime,
		"track_a_items", len(trackA.Items),
		"track_a_total", trackA.TotalRuntime,
		"track_b_items", len(trackB.Items),
		"track_b_total", trackB.TotalRuntime,
		"elapsed", elapsed)

	return Response{TrackA: trackA, TrackB: trackB, Elapsed: elapsed}
}

// runPreferenceTrack runs Track A, re-running it with the provider filter
// relaxed (genres kept) when the strict pass comes up short, and keeping
// whichever result fills more of the budget.
func (e *Engine) runPreferenceTrack(profile Profile, finder *Finder, req Request, exclude map[int64]struct{}) *Combination {
	combo := e.runTrack(TrackPreference, profile, finder, nil, req.AllowAdult, req.Genres, req.Providers, exclude, req.AvailableTime)

	short := combo == nil || float64(combo.TotalRuntime) < float64(req.AvailableTime)*relaxThreshold
	if short && len(req.Providers) > 0 {
		e.logger.Debug("preference track starved, relaxing provider filter",
			"total", totalOrZero(combo), "budget", req.AvailableTime)
		relaxed := e.runTrack(TrackPreference, profile, finder, nil, req.AllowAdult, req.Genres, nil, exclude, req.AvailableTime)
		if relaxed != nil && (combo == nil || relaxed.TotalRuntime > combo.TotalRuntime) {
			combo = relaxed
		}
	}
	return combo
}

// runTrack executes one track: filter, score, optional pool subsampling,
// combination search. rng is only needed for tracks that subsample.
func (e *Engine) runTrack(t Track, profile Profile, finder *Finder, rng *rand.Rand, allowAdult bool, genres, providers []string, exclude map[int64]struct{}, availableTime int) *Combination {
	p := t.policy()

	opts := catalog.FilterOptions{MinYear: e.minYear, AllowAdult: allowAdult}
	if p.useGenres {
		opts.Genres = genres
	}
	if p.useProviders {
		opts.Providers = providers
	}

	filtered := e.catalog.Filter(e.aligned.IDs(), opts)
	candidates := e.scorer.Score(profile, filtered, p.semanticWeight, p.graphWeight, p.poolSize, exclude)

	if p.sampleSize > 0 && len(candidates) > p.sampleSize && rng != nil {
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		candidates = candidates[:p.sampleSize]
	}

	return finder.Find(candidates, availableTime, 0)
}

// RecommendSingle scores one track's candidate pool and picks a single
// movie whose runtime lands in [0.9*target, target]. An in-band movie is
// picked at random for diversity; failing that, the longest candidate not
// exceeding the target; failing that, nil.
func (e *Engine) RecommendSingle(req SingleRequest) *Candidate {
	if !req.Track.valid() {
		req.Track = TrackPreference
	}
	p := req.Track.policy()
	rng := e.newRand()

	profile := BuildProfile(e.semantic, e.graph, req.HistoryIDs)
	exclude := idSet(req.HistoryIDs, req.ExcludedIDs)

	opts := catalog.FilterOptions{MinYear: e.minYear, AllowAdult: req.AllowAdult}
	if p.useGenres {
		opts.Genres = req.Genres
	}
	if p.useProviders {
		opts.Providers = req.Providers
	}

	filtered := e.catalog.Filter(e.aligned.IDs(), opts)
	candidates := e.scorer.Score(profile, filtered, p.semanticWeight, p.graphWeight, p.poolSize, exclude)

	minRuntime := int(float64(req.TargetRuntime) * bandFloor)

	var inBand []Candidate
	for _, c := range candidates {
		if c.Runtime >= minRuntime && c.Runtime <= req.TargetRuntime {
			inBand = append(inBand, c)
		}
	}
	if len(inBand) > 0 {
		pick := inBand[rng.Intn(len(inBand))]
		return &pick
	}

	var longest *Candidate
	for i := range candidates {
		c := &candidates[i]
		if c.Runtime <= 0 || c.Runtime > req.TargetRuntime {
			continue
		}
		if longest == nil || c.Runtime > longest.Runtime {
			longest = c
		}
	}
	if longest == nil {
		return nil
	}
	pick := *longest
	return &pick
}

func toTrackResult(t Track, combo *Combination) TrackResult {
	result := TrackResult{Label: t.policy().label}
	if combo != nil {
		result.Items = combo.Items
		result.TotalRuntime = combo.TotalRuntime
	}
	return result
}

func idSet(lists ...[]int64) map[int64]struct{} {
	set := make(map[int64]struct{})
	for _, list := range lists {
		for _, id := range list {
			set[id] = struct{}{}
		}
	}
	return set
}

func totalOrZero(combo *Combination) int {
	if combo == nil {
		return 0
	}
	return combo.TotalRuntime
}
