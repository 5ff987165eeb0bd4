package catalog

// FilterOptions selects which movies survive a filtering pass. MinYear is
// always enforced; Genres and Providers only apply when non-empty.
type FilterOptions struct {
	Genres     []string
	Providers  []string
	MinYear    int
	AllowAdult bool
}

// Filter returns the subset of ids whose movies pass every predicate, in the
// input order. Unknown ids are dropped. Movies without a parseable release
// year are always dropped since the year gate cannot be evaluated for them.
// Filtering is pure selection; no scoring happens here.
func (c *Catalog) Filter(ids []int64, opts FilterOptions) []int64 {
	filtered := make([]int64, 0, len(ids))

	for _, id := range ids {
		m, ok := c.movies[id]
		if !ok {
			continue
		}

		if m.Adult && !opts.AllowAdult {
			continue
		}

		if m.Year == 0 || m.Year < opts.MinYear {
			continue
		}

		if len(opts.Genres) > 0 && !intersects(m.Genres, opts.Genres) {
			continue
		}

		if len(opts.Providers) > 0 && !intersects(m.Providers, opts.Providers) {
			continue
		}

		filtered = append(filtered, id)
	}

	return filtered
}

// intersects reports whether the two string sets share any element.
// Set sizes here are tiny (a handful of genres or providers), so the
// quadratic scan beats building maps per movie.
func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
