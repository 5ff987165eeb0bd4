package catalog

import (
	"sort"
	"strconv"
)

// Movie is an immutable catalog record. Loaded once at startup and shared
// read-only across requests.
type Movie struct {
	ID          int64
	Title       string
	Runtime     int // minutes
	Genres      []string
	Providers   []string
	VoteAverage float64
	VoteCount   int
	Popularity  float64
	Overview    string
	PosterPath  string
	ReleaseDate string
	Year        int // parsed from ReleaseDate; 0 when unparseable
	Adult       bool
}

// Catalog is the in-memory movie metadata table plus the aggregate genre
// and provider vocabularies.
type Catalog struct {
	movies    map[int64]Movie
	genres    []string
	providers []string
}

// New builds a Catalog from loaded movie rows. Release years are parsed
// here so filtering never touches the date string again.
func New(movies []Movie) *Catalog {
	byID := make(map[int64]Movie, len(movies))
	genreSet := make(map[string]struct{})
	providerSet := make(map[string]struct{})

	for _, m := range movies {
		if m.Year == 0 {
			m.Year = ParseYear(m.ReleaseDate)
		}
		byID[m.ID] = m
		for _, g := range m.Genres {
			genreSet[g] = struct{}{}
		}
		for _, p := range m.Providers {
			providerSet[p] = struct{}{}
		}
	}

	return &Catalog{
		movies:    byID,
		genres:    sortedKeys(genreSet),
		providers: sortedKeys(providerSet),
	}
}

// ParseYear extracts the four-digit release year from a date string such as
// "2014-11-05". Returns 0 when the prefix is not a valid year.
func ParseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

// Get returns the movie for the given ID.
func (c *Catalog) Get(id int64) (Movie, bool) {
	m, ok := c.movies[id]
	return m, ok
}

// Len returns the number of movies in the catalog.
func (c *Catalog) Len() int {
	return len(c.movies)
}

// Genres returns the sorted set of all genres present in the catalog.
func (c *Catalog) Genres() []string {
	return c.genres
}

// Providers returns the sorted set of all provider names in the catalog.
func (c *Catalog) Providers() []string {
	return c.providers
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
