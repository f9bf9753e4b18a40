package engine

import (
	"fmt"
	"time"
)

// DedupSet tracks which events have already been admitted, so that
// re-reading the same log files on a later refresh never double-counts.
// Events carrying a messageID:requestID are keyed by it; events without
// one fall back to a content key, since admitted events are retained
// across refreshes and would otherwise accumulate on every re-read.
// Keys are kept at least as long as the longest aggregation window and
// pruned past that horizon.
type DedupSet struct {
	seen    map[string]time.Time
	horizon time.Duration
}

// NewDedupSet creates a set that remembers keys for the given horizon.
func NewDedupSet(horizon time.Duration) *DedupSet {
	return &DedupSet{
		seen:    make(map[string]time.Time),
		horizon: horizon,
	}
}

func dedupKey(e Event) string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("%d|%s|%s|%s|%d|%d|%d|%d",
		e.Timestamp.UnixNano(), e.Session, e.Project, e.Model,
		e.InputTokens, e.OutputTokens, e.CacheCreationTokens, e.CacheReadTokens)
}

// Admit reports whether the event should be counted. The first call
// for a given key returns true; repeats return false.
func (d *DedupSet) Admit(e Event) bool {
	key := dedupKey(e)
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = e.Timestamp
	return true
}

// Prune drops keys whose event timestamps have aged out of the horizon.
func (d *DedupSet) Prune(now time.Time) {
	cutoff := now.Add(-d.horizon)
	for key, ts := range d.seen {
		if ts.Before(cutoff) {
			delete(d.seen, key)
		}
	}
}

// Len returns the number of remembered keys.
func (d *DedupSet) Len() int {
	return len(d.seen)
}
