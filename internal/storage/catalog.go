package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/movigation/moviesir/internal/catalog"
)

// LoadMovies reads the full movie table, with provider availability
// attached, ordered by movie id.
func (s *Store) LoadMovies(ctx context.Context) ([]catalog.Movie, error) {
	providersByMovie, err := s.loadMovieProviders(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT movie_id, title, runtime, genres, overview, poster_path,
		       release_date, vote_average, vote_count, popularity, adult
		FROM movies ORDER BY movie_id`)
	if err != nil {
		return nil, fmt.Errorf("querying movies: %w", err)
	}
	defer rows.Close()

	var movies []catalog.Movie
	for rows.Next() {
		var m catalog.Movie
		var genresJSON string
		var adult int
		if err := rows.Scan(&m.ID, &m.Title, &m.Runtime, &genresJSON, &m.Overview, &m.PosterPath,
			&m.ReleaseDate, &m.VoteAverage, &m.VoteCount, &m.Popularity, &adult); err != nil {
			return nil, fmt.Errorf("scanning movie row: %w", err)
		}
		if err := json.Unmarshal([]byte(genresJSON), &m.Genres); err != nil {
			return nil, fmt.Errorf("parsing genres for movie %d: %w", m.ID, err)
		}
		m.Adult = adult != 0
		m.Providers = providersByMovie[m.ID]
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

func (s *Store) loadMovieProviders(ctx context.Context) (map[int64][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mp.movie_id, p.provider_name
		FROM movie_providers mp
		JOIN providers p ON p.provider_id = mp.provider_id
		ORDER BY p.display_priority, p.provider_name`)
	if err != nil {
		return nil, fmt.Errorf("querying movie providers: %w", err)
	}
	defer rows.Close()

	byMovie := make(map[int64][]string)
	for rows.Next() {
		var movieID int64
		var name string
		if err := rows.Scan(&movieID, &name); err != nil {
			return nil, fmt.Errorf("scanning provider row: %w", err)
		}
		byMovie[movieID] = append(byMovie[movieID], name)
	}
	return byMovie, rows.Err()
}

// InsertMovies writes catalog rows in one transaction. Used by the import
// command and by tests.
func (s *Store) InsertMovies(movies []catalog.Movie) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO movies (movie_id, title, runtime, genres, overview, poster_path,
		                    release_date, vote_average, vote_count, popularity, adult)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing movie insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range movies {
		genres := m.Genres
		if genres == nil {
			genres = []string{}
		}
		genresJSON, err := json.Marshal(genres)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshaling genres for movie %d: %w", m.ID, err)
		}
		adult := 0
		if m.Adult {
			adult = 1
		}
		if _, err := stmt.Exec(m.ID, m.Title, m.Runtime, string(genresJSON), m.Overview, m.PosterPath,
			m.ReleaseDate, m.VoteAverage, m.VoteCount, m.Popularity, adult); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting movie %d: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// SetMovieProviders replaces a movie's provider availability, creating
// provider rows on first sight of a name.
func (s *Store) SetMovieProviders(movieID int64, links []ProviderLink) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning provider transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM movie_providers WHERE movie_id = ?", movieID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing providers for movie %d: %w", movieID, err)
	}

	for _, link := range links {
		providerID, err := upsertProvider(tx, link.Provider)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO movie_providers (movie_id, provider_id, link_url) VALUES (?, ?, ?)",
			movieID, providerID, link.URL); err != nil {
			tx.Rollback()
			return fmt.Errorf("linking movie %d to provider %q: %w", movieID, link.Provider, err)
		}
	}

	return tx.Commit()
}

func upsertProvider(tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT provider_id FROM providers WHERE provider_name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("looking up provider %q: %w", name, err)
	}

	res, err := tx.Exec("INSERT INTO providers (provider_name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("creating provider %q: %w", name, err)
	}
	return res.LastInsertId()
}

// MovieProviderLinks returns a movie's provider availability with deep
// links, in display-priority order.
func (s *Store) MovieProviderLinks(movieID int64) ([]ProviderLink, error) {
	rows, err := s.db.Query(`
		SELECT p.provider_name, mp.link_url
		FROM movie_providers mp
		JOIN providers p ON p.provider_id = mp.provider_id
		WHERE mp.movie_id = ?
		ORDER BY p.display_priority, p.provider_name`, movieID)
	if err != nil {
		return nil, fmt.Errorf("querying provider links: %w", err)
	}
	defer rows.Close()

	var links []ProviderLink
	for rows.Next() {
		var link ProviderLink
		if err := rows.Scan(&link.Provider, &link.URL); err != nil {
			return nil, fmt.Errorf("scanning provider link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// ProviderLinkURL returns the deep link for a movie on the named provider.
func (s *Store) ProviderLinkURL(movieID int64, provider string) (string, error) {
	var url string
	err := s.db.QueryRow(`
		SELECT mp.link_url
		FROM movie_providers mp
		JOIN providers p ON p.provider_id = mp.provider_id
		WHERE mp.movie_id = ? AND p.provider_name = ?`, movieID, provider).Scan(&url)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying provider link: %w", err)
	}
	return url, nil
}
