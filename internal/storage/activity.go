package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

// MarkWatched records that a user finished a movie. Re-watching refreshes
// the timestamp.
func (s *Store) MarkWatched(userID string, movieID int64) error {
	_, err := s.db.Exec(`
		INSERT INTO watch_logs (user_id, movie_id, watched_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET watched_at = CURRENT_TIMESTAMP`,
		userID, movieID)
	if err != nil {
		return fmt.Errorf("recording watch log: %w", err)
	}
	return nil
}

// WatchedMovies returns the user's watch history, most recent first.
func (s *Store) WatchedMovies(userID string) ([]int64, error) {
	rows, err := s.db.Query(
		"SELECT movie_id FROM watch_logs WHERE user_id = ? ORDER BY watched_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("querying watch logs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning watch log: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LogClick records a provider link click.
func (s *Store) LogClick(userID string, movieID int64, provider string) error {
	_, err := s.db.Exec(
		"INSERT INTO click_logs (user_id, movie_id, provider) VALUES (?, ?, ?)",
		userID, movieID, provider)
	if err != nil {
		return fmt.Errorf("recording click log: %w", err)
	}
	return nil
}

// SaveSession persists the movies shown in one recommendation response.
func (s *Store) SaveSession(session Session) error {
	ids := session.MovieIDs
	if ids == nil {
		ids = []int64{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshaling session movie ids: %w", err)
	}

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.Exec(`
		INSERT INTO recommendation_sessions (session_id, user_id, movie_ids, created_at)
		VALUES (?, ?, ?, ?)`,
		session.ID, session.UserID, string(idsJSON), createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving session %s: %w", session.ID, err)
	}
	return nil
}

// RecentlyRecommended flattens the user's latest sessions into an exclusion
// list of up to limit movie ids, newest sessions first.
func (s *Store) RecentlyRecommended(userID string, limit int) ([]int64, error) {
	rows, err := s.db.Query(`
		SELECT movie_ids FROM recommendation_sessions
		WHERE user_id = ? ORDER BY created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	seen := make(map[int64]struct{})
	for rows.Next() {
		var idsJSON string
		if err := rows.Scan(&idsJSON); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		var sessionIDs []int64
		if err := json.Unmarshal([]byte(idsJSON), &sessionIDs); err != nil {
			return nil, fmt.Errorf("parsing session movie ids: %w", err)
		}
		for _, id := range sessionIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			if limit > 0 && len(ids) >= limit {
				return ids, nil
			}
		}
	}
	return ids, rows.Err()
}
