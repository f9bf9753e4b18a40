package engine

import (
	"sort"
	"time"
)

// WindowKind identifies one of the aggregation windows rebuilt on every
// refresh.
type WindowKind int

const (
	WindowSession WindowKind = iota // since the last idle gap
	WindowCycle                     // rolling cycle duration (5h)
	WindowDay                       // current local calendar day
	WindowWeek                      // rolling 7 days
	WindowMonth                     // current local calendar month
)

func (k WindowKind) String() string {
	switch k {
	case WindowSession:
		return "session"
	case WindowCycle:
		return "cycle"
	case WindowDay:
		return "day"
	case WindowWeek:
		return "week"
	case WindowMonth:
		return "month"
	default:
		return "unknown"
	}
}

// RankedShare is one row of a breakdown, ordered for display.
type RankedShare struct {
	Name   string
	Tokens int64
	Share  float64 // fraction of the window total, 0 when total is 0
}

// Breakdown accumulates billable tokens per grouping key while
// remembering first-seen order, so that ranking ties stay stable.
type Breakdown struct {
	tokens map[string]int64
	order  []string
}

func newBreakdown() *Breakdown {
	return &Breakdown{tokens: make(map[string]int64)}
}

func (b *Breakdown) add(key string, tokens int64) {
	if _, ok := b.tokens[key]; !ok {
		b.order = append(b.order, key)
	}
	b.tokens[key] += tokens
}

// Get returns the accumulated tokens for a key.
func (b *Breakdown) Get(key string) int64 {
	return b.tokens[key]
}

// Sum returns the total across all keys.
func (b *Breakdown) Sum() int64 {
	var total int64
	for _, v := range b.tokens {
		total += v
	}
	return total
}

// Len returns the number of distinct keys.
func (b *Breakdown) Len() int {
	return len(b.order)
}

// Ranked returns shares ordered by descending tokens, ties broken by
// first-seen insertion order.
func (b *Breakdown) Ranked() []RankedShare {
	total := b.Sum()
	out := make([]RankedShare, 0, len(b.order))
	for _, key := range b.order {
		s := RankedShare{Name: key, Tokens: b.tokens[key]}
		if total > 0 {
			s.Share = float64(s.Tokens) / float64(total)
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tokens > out[j].Tokens
	})
	return out
}

// Aggregate is one window's worth of usage, rebuilt from scratch each
// refresh so late or out-of-order events can never cause drift.
type Aggregate struct {
	Kind                WindowKind
	Start               time.Time
	End                 time.Time
	Total               int64 // billable tokens
	InputTokens         int64
	OutputTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
	Cost                float64
	Events              int
	Models              *Breakdown
	Projects            *Breakdown
}

func newAggregate(kind WindowKind, start, end time.Time) *Aggregate {
	return &Aggregate{
		Kind:     kind,
		Start:    start,
		End:      end,
		Models:   newBreakdown(),
		Projects: newBreakdown(),
	}
}

func (a *Aggregate) add(e Event, cost float64) {
	billable := e.Billable()
	a.Total += billable
	a.InputTokens += e.InputTokens
	a.OutputTokens += e.OutputTokens
	a.CacheCreationTokens += e.CacheCreationTokens
	a.CacheReadTokens += e.CacheReadTokens
	a.Cost += cost
	a.Events++
	a.Models.add(e.Model, billable)
	a.Projects.add(e.Project, billable)
}

// contains reports whether the event timestamp falls inside the window.
// Start is inclusive: an event exactly at now-duration is counted.
func (a *Aggregate) contains(ts time.Time) bool {
	return !ts.Before(a.Start) && !ts.After(a.End)
}

// Windows holds every aggregate produced by one refresh.
type Windows struct {
	Session *Aggregate
	Cycle   *Aggregate
	Day     *Aggregate
	Week    *Aggregate
	Month   *Aggregate
}

// All returns the aggregates in display order.
func (w Windows) All() []*Aggregate {
	return []*Aggregate{w.Session, w.Cycle, w.Day, w.Week, w.Month}
}

// WindowConfig carries the boundaries the aggregator needs.
type WindowConfig struct {
	CycleDuration time.Duration
	RollingDays   int
	IdleGap       time.Duration
}

// costFunc prices one event; the engine passes a pricing-backed
// implementation so the aggregator stays free of the price table.
type costFunc func(Event) float64

// BuildWindows buckets the deduplicated event stream into all five
// windows. Events must not contain duplicates; ordering is not
// required. The session window starts after the most recent activity
// gap exceeding cfg.IdleGap (or at the earliest event when no gap
// exists).
func BuildWindows(events []Event, now time.Time, cfg WindowConfig, cost costFunc) Windows {
	year, month, day := now.Date()
	loc := now.Location()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)

	w := Windows{
		Session: newAggregate(WindowSession, sessionStart(events, now, cfg.IdleGap), now),
		Cycle:   newAggregate(WindowCycle, now.Add(-cfg.CycleDuration), now),
		Day:     newAggregate(WindowDay, dayStart, now),
		Week:    newAggregate(WindowWeek, now.Add(-time.Duration(cfg.RollingDays)*24*time.Hour), now),
		Month:   newAggregate(WindowMonth, monthStart, now),
	}

	for _, e := range events {
		c := 0.0
		if cost != nil {
			c = cost(e)
		}
		for _, agg := range w.All() {
			if agg.contains(e.Timestamp) {
				agg.add(e, c)
			}
		}
	}
	return w
}

// sessionStart finds the boundary of the current session: the first
// event after the most recent gap in activity longer than idleGap.
// With no events the session window is empty (start == now).
func sessionStart(events []Event, now time.Time, idleGap time.Duration) time.Time {
	if len(events) == 0 {
		return now
	}
	ts := make([]time.Time, 0, len(events))
	for _, e := range events {
		if !e.Timestamp.After(now) {
			ts = append(ts, e.Timestamp)
		}
	}
	if len(ts) == 0 {
		return now
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })

	start := ts[0]
	for i := 1; i < len(ts); i++ {
		if ts[i].Sub(ts[i-1]) > idleGap {
			start = ts[i]
		}
	}
	// The session is over if the last event itself is stale.
	if now.Sub(ts[len(ts)-1]) > idleGap {
		return now
	}
	return start
}
