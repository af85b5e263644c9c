// Package stats accumulates crawl statistics shared by concurrent workers.
package stats

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/aluiziolira/go-crawl-books/models"
)

// priceScale is the fixed-point resolution of the running price sum.
// Integer accumulation keeps the sum independent of arrival order.
const priceScale = 10000

// Aggregator is a concurrency-safe accumulator of record statistics.
//
// Counts and sums are independent atomics. The min/max scalars and the
// records carrying them share one mutex so a scalar never points at a
// different record than the one stored beside it.
type Aggregator struct {
	total      atomic.Int64
	priceUnits atomic.Int64
	ratingSum  atomic.Int64
	buckets    [6]atomic.Int64

	mu        sync.Mutex
	has       bool
	minPrice  float64
	maxPrice  float64
	minRecord models.ExtremumRecord
	maxRecord models.ExtremumRecord
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record folds a batch of records into the running state.
func (a *Aggregator) Record(batch []models.Record) {
	for _, r := range batch {
		a.record(r)
	}
}

func (a *Aggregator) record(r models.Record) {
	a.total.Add(1)
	a.priceUnits.Add(int64(math.Round(r.Price * priceScale)))

	rating := r.Rating
	if rating < 1 || rating > 5 {
		rating = 0
	}
	a.ratingSum.Add(int64(rating))
	a.buckets[rating].Add(1)

	candidate := models.ExtremumRecord{Title: r.Title, Price: r.Price, Rating: rating}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.has {
		a.has = true
		a.minPrice, a.minRecord = r.Price, candidate
		a.maxPrice, a.maxRecord = r.Price, candidate
		return
	}
	if cheaper(candidate, a.minRecord) {
		a.minPrice, a.minRecord = r.Price, candidate
	}
	if pricier(candidate, a.maxRecord) {
		a.maxPrice, a.maxRecord = r.Price, candidate
	}
}

// Snapshot returns a copy of the current state. Callers must ensure no
// worker is still recording.
func (a *Aggregator) Snapshot() models.AggregateState {
	state := models.AggregateState{
		TotalCount: a.total.Load(),
		PriceSum:   float64(a.priceUnits.Load()) / priceScale,
		RatingSum:  a.ratingSum.Load(),
	}
	for i := range a.buckets {
		state.RatingCounts[i] = a.buckets[i].Load()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	state.HasRecords = a.has
	state.MinPrice = a.minPrice
	state.MaxPrice = a.maxPrice
	state.MinRecord = a.minRecord
	state.MaxRecord = a.maxRecord
	return state
}

// Reset zeroes every field. Only call between runs.
func (a *Aggregator) Reset() {
	a.total.Store(0)
	a.priceUnits.Store(0)
	a.ratingSum.Store(0)
	for i := range a.buckets {
		a.buckets[i].Store(0)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.has = false
	a.minPrice, a.maxPrice = 0, 0
	a.minRecord = models.ExtremumRecord{}
	a.maxRecord = models.ExtremumRecord{}
}

// cheaper orders by price, then title, then rating so equal prices
// resolve to the same record whatever the arrival order.
func cheaper(a, b models.ExtremumRecord) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return tieBreak(a, b)
}

func pricier(a, b models.ExtremumRecord) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return tieBreak(a, b)
}

func tieBreak(a, b models.ExtremumRecord) bool {
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.Rating < b.Rating
}
