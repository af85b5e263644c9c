package crawler

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Ledger is the set of URLs claimed during one crawl run. A successful
// Claim is the only way a URL enters processing.
type Ledger struct {
	claimed mapset.Set[string]
}

// NewLedger returns an empty ledger safe for concurrent use.
func NewLedger() *Ledger {
	return &Ledger{claimed: mapset.NewSet[string]()}
}

// Claim reports whether this call is the first to claim url.
func (l *Ledger) Claim(url string) bool {
	return l.claimed.Add(url)
}

// Contains reports whether url has been claimed.
func (l *Ledger) Contains(url string) bool {
	return l.claimed.Contains(url)
}

// Size returns the number of claimed URLs.
func (l *Ledger) Size() int {
	return l.claimed.Cardinality()
}

// URLs returns the claimed URLs in sorted order.
func (l *Ledger) URLs() []string {
	urls := l.claimed.ToSlice()
	sort.Strings(urls)
	return urls
}

// Reset forgets every claim. Never call it while a run is in flight.
func (l *Ledger) Reset() {
	l.claimed.Clear()
}
