package hubx

import (
	"fmt"
	"sort"
)

// Price bounds accepted by the price filter.
const (
	MinPrice = 0
	MaxPrice = 1000
)

// SortKey selects the order of the displayed listings.
type SortKey string

const (
	SortByDatePosted SortKey = "datePosted"
	SortByPrice      SortKey = "price"
)

// ParseSortKey parses a sort key. The empty string selects
// SortByDatePosted.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "", SortByDatePosted:
		return SortByDatePosted, nil
	case SortByPrice:
		return SortByPrice, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

// PriceRange is an inclusive [Min, Max] price filter.
type PriceRange [2]float64

func (p PriceRange) Min() float64 { return p[0] }
func (p PriceRange) Max() float64 { return p[1] }

// Contains reports whether price lies within the range, both ends
// inclusive.
func (p PriceRange) Contains(price float64) bool {
	return p[0] <= price && price <= p[1]
}

func (p PriceRange) validate() error {
	if p[0] < MinPrice || p[1] > MaxPrice || p[0] > p[1] {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidPriceRange, p[0], p[1])
	}
	return nil
}

// QueryState is everything the user has chosen about which listings to
// see. It changes only through Reduce.
type QueryState struct {
	SearchQuery string
	PriceRange  PriceRange
	Location    Location
	SortKey     SortKey
}

// DefaultQuery is the state before any user interaction: no text, the
// full price range, any location, most recent first.
func DefaultQuery() QueryState {
	return QueryState{
		PriceRange: PriceRange{MinPrice, MaxPrice},
		SortKey:    SortByDatePosted,
	}
}

// Event is a user interaction that changes the QueryState.
type Event interface {
	apply(QueryState) (QueryState, error)
}

// SearchQueryChanged records a new search text.
type SearchQueryChanged struct {
	Query string
}

// PriceRangeChanged sets the price filter.
type PriceRangeChanged struct {
	Range PriceRange
}

// LocationChanged sets the location filter. The empty Location means any.
type LocationChanged struct {
	Location Location
}

// SortChanged sets the sort key.
type SortChanged struct {
	Key SortKey
}

// FiltersChanged sets the price range, location and sort key at once.
type FiltersChanged struct {
	Range    PriceRange
	Location Location
	Key      SortKey
}

func (e SearchQueryChanged) apply(s QueryState) (QueryState, error) {
	s.SearchQuery = e.Query
	return s, nil
}

func (e PriceRangeChanged) apply(s QueryState) (QueryState, error) {
	if err := e.Range.validate(); err != nil {
		return s, err
	}
	s.PriceRange = e.Range
	return s, nil
}

func (e LocationChanged) apply(s QueryState) (QueryState, error) {
	if e.Location != "" && !e.Location.Valid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownLocation, e.Location)
	}
	s.Location = e.Location
	return s, nil
}

func (e SortChanged) apply(s QueryState) (QueryState, error) {
	if e.Key != SortByDatePosted && e.Key != SortByPrice {
		return s, fmt.Errorf("%w: %q", ErrUnknownSortKey, e.Key)
	}
	s.SortKey = e.Key
	return s, nil
}

func (e FiltersChanged) apply(s QueryState) (QueryState, error) {
	var err error
	for _, ev := range []Event{PriceRangeChanged{e.Range}, LocationChanged{e.Location}, SortChanged{e.Key}} {
		if s, err = ev.apply(s); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Reduce returns the state produced by applying e to s. On error the
// original state is returned unchanged.
func Reduce(s QueryState, e Event) (QueryState, error) {
	next, err := e.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}

// Apply derives the displayed listings from source and q:
//
//  1. start from the full source set
//  2. keep items priced within q.PriceRange, both ends inclusive
//  3. if q.Location is set, keep only exact matches
//  4. stable sort, descending by date posted or by price
//
// The source slice is never modified.
func Apply(source []Listing, q QueryState) []Listing {
	out := make([]Listing, 0, len(source))
	for _, l := range source {
		if !q.PriceRange.Contains(l.Price) {
			continue
		}
		if q.Location != "" && l.Location != q.Location {
			continue
		}
		out = append(out, l)
	}

	if q.SortKey == SortByPrice {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Price > out[j].Price
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DatePosted.After(out[j].DatePosted.Time)
		})
	}
	return out
}
