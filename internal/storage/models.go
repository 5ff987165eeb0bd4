package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Session records one recommendation response shown to a user. Sessions are
// the external "what was shown before" store: written after each recommend
// call, read back as a call-scoped exclusion list, never accumulated inside
// the engine.
type Session struct {
	ID        string
	UserID    string
	MovieIDs  []int64
	CreatedAt time.Time
}

// ProviderLink pairs a provider name with its deep link for one movie.
type ProviderLink struct {
	Provider string
	URL      string
}
