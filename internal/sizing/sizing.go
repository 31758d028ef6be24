// Package sizing resolves the portfolio size in force for a given month.
package sizing

import (
	"time"

	"trade-journal/pkg/utils"
)

// Lookup returns the portfolio size for a month label ("Jan".."Dec") and year.
// It must be pure and must not block; 0 or a negative value means unknown.
type Lookup func(month string, year int) float64

// MonthKey identifies one month of portfolio history.
type MonthKey struct {
	Month string
	Year  int
}

// KeyFor returns the month key for a date.
func KeyFor(t time.Time) MonthKey {
	return MonthKey{Month: utils.MonthLabel(t), Year: t.Year()}
}

// FromMap turns pre-resolved monthly sizes into a Lookup.
func FromMap(sizes map[MonthKey]float64) Lookup {
	return func(month string, year int) float64 {
		return sizes[MonthKey{Month: month, Year: year}]
	}
}

// Constant returns a Lookup that reports the same size for every month.
func Constant(size float64) Lookup {
	return func(string, int) float64 { return size }
}

// Resolver memoizes lookups for the duration of one computation pass and
// substitutes the fallback size when a month has no usable size.
// A Resolver is not safe for concurrent use.
type Resolver struct {
	lookup   Lookup
	fallback float64
	cache    map[MonthKey]float64
}

// NewResolver creates a resolver over lookup. A nil lookup always yields the fallback.
func NewResolver(lookup Lookup, fallback float64) *Resolver {
	return &Resolver{
		lookup:   lookup,
		fallback: fallback,
		cache:    make(map[MonthKey]float64),
	}
}

// SizeAt returns the portfolio size for the month containing t.
func (r *Resolver) SizeAt(t time.Time) float64 {
	if t.IsZero() {
		return r.fallback
	}
	key := KeyFor(t)
	if size, ok := r.cache[key]; ok {
		return size
	}

	size := 0.0
	if r.lookup != nil {
		size = r.lookup(key.Month, key.Year)
	}
	if size <= 0 {
		size = r.fallback
	}
	r.cache[key] = size
	return size
}
