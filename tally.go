package triage

import (
	"sort"
	"time"
)

// Filter selects records by time and status. A nil bound leaves that end of
// the window open; both bounds are inclusive. An empty Statuses set accepts
// every status.
type Filter struct {
	From     *time.Time
	To       *time.Time
	Statuses map[int]bool
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Record) bool {
	if f.From != nil && r.Time.Before(*f.From) {
		return false
	}
	if f.To != nil && r.Time.After(*f.To) {
		return false
	}
	if len(f.Statuses) > 0 && !f.Statuses[r.Status] {
		return false
	}
	return true
}

// Key groups records for counting.
type Key struct {
	Status int
	Path   string
}

// Tally maps each (status, path) pair to the number of records seen for it.
type Tally map[Key]int

// Add counts one occurrence of r.
func (t Tally) Add(r Record) {
	t[Key{r.Status, r.Path}]++
}

// Entry is one row of a ranking.
type Entry struct {
	Rank int
	Key
	Hits int
}

// Top returns the n most frequent keys, most hits first. Ties are ordered by
// status and then path, so the ranking is the same on every call. If n is not
// positive, or exceeds the number of keys, every key is returned.
func (t Tally) Top(n int) []Entry {
	entries := make([]Entry, 0, len(t))
	for k, hits := range t {
		entries = append(entries, Entry{Key: k, Hits: hits})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Hits != b.Hits {
			return a.Hits > b.Hits
		}
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		return a.Path < b.Path
	})
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
