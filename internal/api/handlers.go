package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/movigation/moviesir/internal/catalog"
	"github.com/movigation/moviesir/internal/recommend"
	"github.com/movigation/moviesir/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Recommender abstracts the recommendation engine for the API layer.
type Recommender interface {
	Recommend(req recommend.Request) recommend.Response
	RecommendSingle(req recommend.SingleRequest) *recommend.Candidate
}

// ActivityStore records user activity and answers history queries.
type ActivityStore interface {
	WatchedMovies(userID string) ([]int64, error)
	RecentlyRecommended(userID string, limit int) ([]int64, error)
	MarkWatched(userID string, movieID int64) error
	LogClick(userID string, movieID int64, provider string) error
	SaveSession(session storage.Session) error
	MovieProviderLinks(movieID int64) ([]storage.ProviderLink, error)
	ProviderLinkURL(movieID int64, provider string) (string, error)
}

type AppDeps struct {
	Engine        Recommender
	Store         ActivityStore
	Catalog       *catalog.Catalog
	Token         string
	HistoryWindow int // max stored history entries merged into a request
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth(deps))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/recommend", handleRecommend(deps))
		r.Post("/recommend/single", handleRecommendSingle(deps))
		r.Get("/movies/{id}", handleGetMovie(deps))
		r.Post("/movies/{id}/watched", handleMarkWatched(deps))
		r.Post("/movies/{id}/play", handlePlay(deps))
	})

	return r
}

func handleHealth(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"movies": deps.Catalog.Len(),
		})
	}
}

func handleRecommend(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req RecommendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.AvailableTime <= 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "available_time must be positive")
			return
		}

		history := req.HistoryIDs
		excluded := req.ExcludedIDs
		if req.UserID != "" {
			watched, err := deps.Store.WatchedMovies(req.UserID)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to load watch history: %v", err)
				return
			}
			history = mergeIDs(history, clampIDs(watched, deps.HistoryWindow))

			recent, err := deps.Store.RecentlyRecommended(req.UserID, deps.HistoryWindow)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to load recent sessions: %v", err)
				return
			}
			excluded = mergeIDs(excluded, recent)
		}

		resp := deps.Engine.Recommend(recommend.Request{
			HistoryIDs:    history,
			AvailableTime: req.AvailableTime,
			Genres:        req.Genres,
			Providers:     req.Providers,
			AllowAdult:    req.AllowAdult,
			ExcludedIDs:   excluded,
		})

		out := RecommendResponse{
			TrackA:         toTrackView(resp.TrackA),
			TrackB:         toTrackView(resp.TrackB),
			ElapsedSeconds: resp.Elapsed,
		}

		if req.UserID != "" {
			ids := make([]int64, 0, len(out.TrackA.Movies)+len(out.TrackB.Movies))
			for _, m := range out.TrackA.Movies {
				ids = append(ids, m.ID)
			}
			for _, m := range out.TrackB.Movies {
				ids = append(ids, m.ID)
			}
			if len(ids) > 0 {
				session := storage.Session{
					ID:        uuid.New().String(),
					UserID:    req.UserID,
					MovieIDs:  ids,
					CreatedAt: time.Now().UTC(),
				}
				if err := deps.Store.SaveSession(session); err != nil {
					httpError(w, http.StatusInternalServerError, "api_error", "failed to save session: %v", err)
					return
				}
				out.SessionID = session.ID
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

func handleRecommendSingle(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req SingleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.TargetRuntime <= 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "target_runtime must be positive")
			return
		}

		track := recommend.TrackPreference
		if req.Track != "" {
			var err error
			track, err = recommend.ParseTrack(req.Track)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid track: %v", err)
				return
			}
		}

		history := req.HistoryIDs
		excluded := req.ExcludedIDs
		if req.UserID != "" {
			watched, err := deps.Store.WatchedMovies(req.UserID)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to load watch history: %v", err)
				return
			}
			history = mergeIDs(history, clampIDs(watched, deps.HistoryWindow))
		}

		candidate := deps.Engine.RecommendSingle(recommend.SingleRequest{
			HistoryIDs:    history,
			TargetRuntime: req.TargetRuntime,
			ExcludedIDs:   excluded,
			Track:         track,
			Genres:        req.Genres,
			Providers:     req.Providers,
			AllowAdult:    req.AllowAdult,
		})

		out := SingleResponse{Success: candidate != nil}
		if candidate != nil {
			v := toMovieView(*candidate)
			out.Movie = &v
		} else {
			out.Message = "no movie fits the target runtime"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

func handleGetMovie(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := movieIDParam(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid movie id")
			return
		}

		m, ok := deps.Catalog.Get(id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "movie not found")
			return
		}

		links, err := deps.Store.MovieProviderLinks(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load providers: %v", err)
			return
		}
		providers := make([]ProviderView, len(links))
		for i, l := range links {
			providers[i] = ProviderView{Provider: l.Provider, URL: l.URL}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(MovieDetailResponse{
			Movie: MovieView{
				ID:          m.ID,
				Title:       m.Title,
				Runtime:     m.Runtime,
				Genres:      m.Genres,
				VoteAverage: m.VoteAverage,
				VoteCount:   m.VoteCount,
				Overview:    m.Overview,
				ReleaseDate: m.ReleaseDate,
				PosterPath:  m.PosterPath,
			},
			Adult:     m.Adult,
			Providers: providers,
		})
	}
}

func handleMarkWatched(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := movieIDParam(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid movie id")
			return
		}
		if _, ok := deps.Catalog.Get(id); !ok {
			httpError(w, http.StatusNotFound, "not_found", "movie not found")
			return
		}

		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}

		if err := deps.Store.MarkWatched(req.UserID, id); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to mark watched: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "watched"})
	}
}

func handlePlay(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := movieIDParam(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid movie id")
			return
		}

		var req struct {
			UserID   string `json:"user_id"`
			Provider string `json:"provider"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Provider == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "provider is required")
			return
		}

		url, err := deps.Store.ProviderLinkURL(id, req.Provider)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no link for provider %q", req.Provider)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load provider link: %v", err)
			return
		}

		if req.UserID != "" {
			if err := deps.Store.LogClick(req.UserID, id, req.Provider); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to log click: %v", err)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"url": url})
	}
}

func movieIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// mergeIDs appends ids from extra that are not already in base, preserving order.
func mergeIDs(base, extra []int64) []int64 {
	seen := make(map[int64]struct{}, len(base))
	for _, id := range base {
		seen[id] = struct{}{}
	}
	out := base
	for _, id := range extra {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func clampIDs(ids []int64, limit int) []int64 {
	if limit > 0 && len(ids) > limit {
		return ids[:limit]
	}
	return ids
}
