package hubx

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Searcher runs a free-text listing search against the remote service.
type Searcher interface {
	SearchListings(ctx context.Context, query string) ([]Listing, error)
}

// Discovery owns the listing result set. It fetches listings through a
// Searcher and derives the displayed listings locally with Apply whenever
// the source set or the QueryState changes.
//
// Filter changes never hit the network. Overlapping searches are ordered
// by a sequence number: only the response to the most recently issued
// query may replace the source set.
type Discovery struct {
	searcher Searcher
	log      *zap.Logger

	mu       sync.Mutex
	seq      uint64
	query    QueryState
	source   []Listing
	filtered []Listing
	subs     []func([]Listing)
}

type discoveryConfig func(*Discovery)

// WithDiscoveryLogger sets the logger used for search failures.
func WithDiscoveryLogger(log *zap.Logger) discoveryConfig {
	return discoveryConfig(func(d *Discovery) {
		d.log = log
	})
}

// WithSource seeds the source set, for instance with listings cached
// from a previous run.
func WithSource(listings []Listing) discoveryConfig {
	return discoveryConfig(func(d *Discovery) {
		d.source = append([]Listing(nil), listings...)
	})
}

// NewDiscovery creates a Discovery with DefaultQuery and an empty source
// set.
func NewDiscovery(searcher Searcher, cfgs ...discoveryConfig) *Discovery {
	d := &Discovery{
		searcher: searcher,
		log:      zap.NewNop(),
		query:    DefaultQuery(),
	}

	for _, cfg := range cfgs {
		cfg(d)
	}

	d.filtered = Apply(d.source, d.query)
	return d
}

// Search sends query to the remote service. On success the source set is
// replaced and the displayed listings recomputed. On failure the error is
// returned and nothing changes. A response arriving after a newer Search
// was issued is dropped and Search returns nil.
func (d *Discovery) Search(ctx context.Context, query string) error {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.query, _ = Reduce(d.query, SearchQueryChanged{Query: query})
	d.mu.Unlock()

	listings, err := d.searcher.SearchListings(ctx, query)

	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		d.log.Debug("stale search response dropped", zap.String("query", query), zap.Uint64("seq", seq))
		return nil
	}

	if err != nil {
		d.mu.Unlock()
		d.log.Warn("search failed", zap.String("query", query), zap.Error(err))
		return err
	}

	d.source = listings
	filtered, subs := d.recompute()
	d.mu.Unlock()

	d.notify(subs, filtered)
	return nil
}

// SetFilters updates the price range, location and sort key and
// recomputes the displayed listings from the current source set.
func (d *Discovery) SetFilters(priceRange PriceRange, location Location, key SortKey) error {
	return d.Dispatch(FiltersChanged{Range: priceRange, Location: location, Key: key})
}

// Dispatch applies e to the QueryState and recomputes the displayed
// listings. Invalid events change nothing.
func (d *Discovery) Dispatch(e Event) error {
	d.mu.Lock()
	next, err := Reduce(d.query, e)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.query = next
	filtered, subs := d.recompute()
	d.mu.Unlock()

	d.notify(subs, filtered)
	return nil
}

// Listings returns a copy of the displayed listings.
func (d *Discovery) Listings() []Listing {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Listing(nil), d.filtered...)
}

// Source returns a copy of the last fetched result set.
func (d *Discovery) Source() []Listing {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Listing(nil), d.source...)
}

// Query returns the current QueryState.
func (d *Discovery) Query() QueryState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query
}

// Subscribe registers fn to be called with the displayed listings after
// every recompute.
func (d *Discovery) Subscribe(fn func([]Listing)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, fn)
}

// recompute must be called with d.mu held.
func (d *Discovery) recompute() ([]Listing, []func([]Listing)) {
	d.filtered = Apply(d.source, d.query)
	return d.filtered, d.subs
}

func (d *Discovery) notify(subs []func([]Listing), filtered []Listing) {
	for _, fn := range subs {
		fn(append([]Listing(nil), filtered...))
	}
}
