// Package models defines data structures for the crawler.
package models

import "time"

// Record represents a book extracted from a category listing page.
// Rating is 0 when the page did not carry a recognisable star rating.
type Record struct {
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Rating int     `json:"rating"`
}

// ExtremumRecord is the record currently holding the minimum or maximum price.
type ExtremumRecord struct {
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Rating int     `json:"rating"`
}

// Page is everything the extractor pulls out of a single document.
type Page struct {
	Category string
	Records  []Record
	Links    []string
}

// AggregateState is a point-in-time copy of the aggregator.
// RatingCounts is indexed by rating; index 0 counts unrated records.
type AggregateState struct {
	TotalCount   int64          `json:"total_count"`
	PriceSum     float64        `json:"price_sum"`
	RatingSum    int64          `json:"rating_sum"`
	RatingCounts [6]int64       `json:"rating_counts"`
	MinPrice     float64        `json:"min_price"`
	MaxPrice     float64        `json:"max_price"`
	MinRecord    ExtremumRecord `json:"min_record"`
	MaxRecord    ExtremumRecord `json:"max_record"`
	HasRecords   bool           `json:"has_records"`
}

// AveragePrice returns the mean record price, or 0 for an empty state.
func (s AggregateState) AveragePrice() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return s.PriceSum / float64(s.TotalCount)
}

// AverageRating returns the mean rating over all records, unrated included.
func (s AggregateState) AverageRating() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.RatingSum) / float64(s.TotalCount)
}

// BucketTotal sums the per-rating counters, unrated included.
func (s AggregateState) BucketTotal() int64 {
	var total int64
	for _, c := range s.RatingCounts {
		total += c
	}
	return total
}

// Consistent reports whether the quiescent invariants hold.
func (s AggregateState) Consistent() bool {
	if s.TotalCount != s.BucketTotal() {
		return false
	}
	if !s.HasRecords {
		return s.TotalCount == 0
	}
	return s.MinRecord.Price == s.MinPrice && s.MaxRecord.Price == s.MaxPrice
}

// RunResult holds the overall result of one crawl strategy run.
type RunResult struct {
	Strategy     string
	StartTime    time.Time
	EndTime      time.Time
	Elapsed      time.Duration
	Visited      int
	VisitedURLs  []string
	Categories   []string
	State        AggregateState
	FailedURLs   []string
	ErrorsByType map[string]int
	RetryCount   int
	RequestCount int
}
