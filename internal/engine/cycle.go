package engine

import (
	"sort"
	"time"
)

// Cycle is the active rate-limit cycle: the fixed-duration period
// after which the product's consumed-token accounting resets.
type Cycle struct {
	Start  time.Time
	Reset  time.Time
	Limit  int64
	Used   int64 // billable tokens in the current cycle window
	Active bool  // false when no event has started a cycle yet
}

// PercentUsed returns Used/Limit as a fraction. Values above 1.0 are
// meaningful (overage) and are never capped here; clamping is a
// display concern.
func (c Cycle) PercentUsed() float64 {
	if c.Limit <= 0 {
		return 0
	}
	return float64(c.Used) / float64(c.Limit)
}

// Remaining returns the tokens left before the limit, negative when
// over.
func (c Cycle) Remaining() int64 {
	return c.Limit - c.Used
}

// TimeToReset returns the duration until the cycle boundary, zero when
// inactive or already past.
func (c Cycle) TimeToReset(now time.Time) time.Duration {
	if !c.Active {
		return 0
	}
	d := c.Reset.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// CycleTracker maintains the one active cycle across refreshes. A
// cycle starts at the timestamp of the first event observed after the
// previous reset boundary, truncated to the hour (matching the
// product's block anchoring), and resets after the configured
// duration. When now passes the reset boundary the tracker rolls over
// and re-anchors on the next event.
type CycleTracker struct {
	duration  time.Duration
	limit     int64
	current   Cycle
	lastReset time.Time // reset boundary of the most recently ended cycle
}

// NewCycleTracker creates a tracker for the given cycle duration and
// nominal token limit.
func NewCycleTracker(duration time.Duration, limit int64) *CycleTracker {
	return &CycleTracker{duration: duration, limit: limit}
}

// Current returns the cycle as of the last Observe call.
func (t *CycleTracker) Current() Cycle {
	return t.current
}

// Observe advances the state machine and returns the active cycle
// along with whether a rollover happened since the previous call.
// used is the cycle window total from the aggregator; events is the
// deduplicated stream, used only to anchor a fresh cycle's start.
func (t *CycleTracker) Observe(now time.Time, events []Event, used int64) (Cycle, bool) {
	rolled := false
	if t.current.Active && !now.Before(t.current.Reset) {
		t.lastReset = t.current.Reset
		t.current = Cycle{Limit: t.limit}
		rolled = true
	}

	if !t.current.Active {
		if start, ok := t.anchor(now, events); ok {
			t.current = Cycle{
				Start:  start,
				Reset:  start.Add(t.duration),
				Limit:  t.limit,
				Active: true,
			}
		}
	}

	if t.current.Active {
		t.current.Used = used
	}
	return t.current, rolled
}

// anchor picks the start of a new cycle: the hour-truncated timestamp
// of the earliest event at or after the previous reset boundary that
// still falls inside a cycle containing now. Events from before the
// boundary belong to the ended cycle and can never anchor a new one.
// Returns false when no event can anchor an active cycle.
func (t *CycleTracker) anchor(now time.Time, events []Event) (time.Time, bool) {
	ts := make([]time.Time, 0, len(events))
	for _, e := range events {
		if e.Timestamp.After(now) || e.Timestamp.Before(t.lastReset) {
			continue
		}
		ts = append(ts, e.Timestamp)
	}
	if len(ts) == 0 {
		return time.Time{}, false
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })

	for _, candidate := range ts {
		start := candidate.Truncate(time.Hour)
		if now.Before(start.Add(t.duration)) {
			return start, true
		}
	}
	return time.Time{}, false
}
