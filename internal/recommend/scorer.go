package recommend

import (
	"sort"

	"github.com/viterin/vek/vek32"

	"github.com/movigation/moviesir/internal/catalog"
	"github.com/movigation/moviesir/internal/embedding"
)

const (
	// Top-level blend between the embedding-model score and the rating
	// quality score. Fixed scorer constants, distinct from the per-track
	// semantic/graph mix.
	modelWeight   = 0.9
	qualityWeight = 0.1

	// Movies with fewer votes than this get a quality score of zero; a
	// handful of ratings says nothing about quality.
	minVoteCount = 100
)

// Candidate is a scored movie carrying the attributes needed for display
// and for the runtime constraint.
type Candidate struct {
	ID          int64
	Title       string
	Runtime     int
	Genres      []string
	VoteAverage float64
	VoteCount   int
	Overview    string
	ReleaseDate string
	PosterPath  string
	Score       float64
}

// Scorer ranks filtered movies against a user profile. Pure function of its
// inputs; safe for concurrent use.
type Scorer struct {
	catalog *catalog.Catalog
	aligned *embedding.Aligned
}

// NewScorer creates a Scorer over the aligned catalog.
func NewScorer(cat *catalog.Catalog, aligned *embedding.Aligned) *Scorer {
	return &Scorer{catalog: cat, aligned: aligned}
}

// Score computes composite scores for the filtered ids and returns up to
// topK candidates, best first.
//
// The two spaces are deliberately scored asymmetrically: semantic similarity
// is cosine (unit matrix against the unit profile), graph similarity is a
// raw dot product. Both are min-max normalized over the filtered subset,
// blended by the caller's weight pair, then mixed with the rating quality
// score. Excluded ids are dropped after normalization so the scale of the
// candidate set doesn't shift with the exclusion list. Ties keep
// aligned-index order for determinism.
func (s *Scorer) Score(p Profile, filteredIDs []int64, semanticWeight, graphWeight float64, topK int, exclude map[int64]struct{}) []Candidate {
	rows := make([]int, 0, len(filteredIDs))
	ids := make([]int64, 0, len(filteredIDs))
	for _, id := range filteredIDs {
		if row, ok := s.aligned.Index(id); ok {
			rows = append(rows, row)
			ids = append(ids, id)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	semScores := make([]float64, len(rows))
	graphScores := make([]float64, len(rows))
	for i, row := range rows {
		semScores[i] = float64(vek32.Dot(s.aligned.SemanticUnit(row), p.Semantic))
		graphScores[i] = float64(vek32.Dot(s.aligned.Graph(row), p.Graph))
	}
	minMaxNormalize(semScores)
	minMaxNormalize(graphScores)

	candidates := make([]Candidate, 0, len(ids))
	for i, id := range ids {
		if _, skip := exclude[id]; skip {
			continue
		}
		m, ok := s.catalog.Get(id)
		if !ok {
			continue
		}

		modelScore := semanticWeight*semScores[i] + graphWeight*graphScores[i]
		final := modelScore*modelWeight + qualityScore(m)*qualityWeight

		candidates = append(candidates, Candidate{
			ID:          m.ID,
			Title:       m.Title,
			Runtime:     m.Runtime,
			Genres:      m.Genres,
			VoteAverage: m.VoteAverage,
			VoteCount:   m.VoteCount,
			Overview:    m.Overview,
			ReleaseDate: m.ReleaseDate,
			PosterPath:  m.PosterPath,
			Score:       final,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// qualityScore maps vote data into [0,1]. Rating-average-only, gated by a
// minimum vote count. The rating*log(count+1) variant was rejected: it lets
// vote volume dominate and re-surfaces the same blockbusters on every call.
func qualityScore(m catalog.Movie) float64 {
	if m.VoteCount < minVoteCount {
		return 0
	}
	return m.VoteAverage / 10.0
}

// minMaxNormalize rescales values into [0,1] in place using the set's own
// range. Sets of fewer than two values pass through raw; a constant set
// collapses to zero.
func minMaxNormalize(values []float64) {
	if len(values) < 2 {
		return
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	for i, v := range values {
		if span == 0 {
			values[i] = 0
		} else {
			values[i] = (v - lo) / span
		}
	}
}
