package api

import "github.com/movigation/moviesir/internal/recommend"

// RecommendRequest is the body of POST /recommend. When UserID is set, the
// user's stored watch history and recently recommended movies are merged
// into the call's exclusion set and the response is recorded as a session.
type RecommendRequest struct {
	UserID        string   `json:"user_id,omitempty"`
	HistoryIDs    []int64  `json:"history_ids"`
	AvailableTime int      `json:"available_time"`
	Genres        []string `json:"genres,omitempty"`
	Providers     []string `json:"providers,omitempty"`
	AllowAdult    bool     `json:"allow_adult"`
	ExcludedIDs   []int64  `json:"excluded_ids,omitempty"`
}

// SingleRequest is the body of POST /recommend/single.
type SingleRequest struct {
	UserID        string   `json:"user_id,omitempty"`
	HistoryIDs    []int64  `json:"history_ids"`
	TargetRuntime int      `json:"target_runtime"`
	ExcludedIDs   []int64  `json:"excluded_ids,omitempty"`
	Track         string   `json:"track,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Providers     []string `json:"providers,omitempty"`
	AllowAdult    bool     `json:"allow_adult"`
}

// MovieView is one recommended movie on the wire.
type MovieView struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Runtime     int      `json:"runtime"`
	Genres      []string `json:"genres"`
	VoteAverage float64  `json:"vote_average"`
	VoteCount   int      `json:"vote_count"`
	Overview    string   `json:"overview"`
	ReleaseDate string   `json:"release_date"`
	PosterPath  string   `json:"poster_path,omitempty"`
	Score       float64  `json:"score"`
}

// TrackView is one track's combination on the wire.
type TrackView struct {
	Label        string      `json:"label"`
	Movies       []MovieView `json:"movies"`
	TotalRuntime int         `json:"total_runtime"`
}

// RecommendResponse is the body of a successful POST /recommend.
type RecommendResponse struct {
	TrackA         TrackView `json:"track_a"`
	TrackB         TrackView `json:"track_b"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	SessionID      string    `json:"session_id,omitempty"`
}

// SingleResponse is the body of POST /recommend/single. A null movie with
// success=false is a valid outcome, not an HTTP error.
type SingleResponse struct {
	Movie   *MovieView `json:"movie"`
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
}

// ProviderView is one provider's availability for a movie.
type ProviderView struct {
	Provider string `json:"provider"`
	URL      string `json:"url,omitempty"`
}

// MovieDetailResponse is the body of GET /movies/{id}.
type MovieDetailResponse struct {
	Movie     MovieView      `json:"movie"`
	Adult     bool           `json:"adult"`
	Providers []ProviderView `json:"providers"`
}

func toMovieView(c recommend.Candidate) MovieView {
	genres := c.Genres
	if genres == nil {
		genres = []string{}
	}
	return MovieView{
		ID:          c.ID,
		Title:       c.Title,
		Runtime:     c.Runtime,
		Genres:      genres,
		VoteAverage: c.VoteAverage,
		VoteCount:   c.VoteCount,
		Overview:    c.Overview,
		ReleaseDate: c.ReleaseDate,
		PosterPath:  c.PosterPath,
		Score:       c.Score,
	}
}

func toTrackView(t recommend.TrackResult) TrackView {
	movies := make([]MovieView, len(t.Items))
	for i, c := range t.Items {
		movies[i] = toMovieView(c)
	}
	return TrackView{Label: t.Label, Movies: movies, TotalRuntime: t.TotalRuntime}
}
