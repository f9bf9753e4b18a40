package engine

import (
	"time"

	"github.com/tokenpace/tokenpace/internal/pricing"
)

// Thresholds the engine reports crossings for, in percent of the
// cycle limit.
var alertThresholds = []int{50, 75, 90}

const maxBurnHistory = 120

// Config carries the engine's tunables.
type Config struct {
	Limit             int64         // nominal cycle token limit
	CycleDuration     time.Duration // limit refresh period, 5h for Claude
	RollingDays       int           // width of the rolling week window
	IdleGap           time.Duration // activity gap that ends a session
	BurnWindow        time.Duration // trailing sub-window for burn rate
	HighBurnPerMinute float64       // tokens/min considered high velocity
	ClockSkew         time.Duration // tolerated future-timestamp drift
}

// SourceStats carries ingest diagnostics through to the snapshot.
type SourceStats struct {
	Files      int
	Records    int
	Malformed  int
	Anomalies  int // future or pre-epoch timestamps
	Duplicates int
	NoData     bool // no readable log files at all
}

// Snapshot is the immutable result of one refresh pass. The renderer
// performs no aggregation of its own; everything it shows is here.
type Snapshot struct {
	At              time.Time
	Cycle           Cycle
	RolledOver      bool
	Windows         Windows
	Burn            BurnRate
	Exhaustion      time.Time
	ExhaustionKnown bool
	Guidance        Guidance
	NewThreshold    int // 50/75/90 when freshly crossed, else 0
	BurnHistory     []float64
	Stats           SourceStats
}

// Engine folds normalized events into aggregates and guidance. It owns
// the only state that survives across refreshes: the dedup set (with
// the retained deduplicated events it guards), the per-run dismissed
// action set, the cycle tracker, and threshold bookkeeping. All of it
// is mutated only on the refresh goroutine.
type Engine struct {
	cfg      Config
	dedup    *DedupSet
	retained []Event
	tracker  *CycleTracker

	dismissed   map[string]struct{}
	crossed     map[int]struct{}
	lastPercent float64
	burnHistory []float64
}

// New creates an engine. The dedup horizon covers the longest window
// (the rolling week) plus a day of slack.
func New(cfg Config) *Engine {
	horizon := time.Duration(cfg.RollingDays+1) * 24 * time.Hour
	return &Engine{
		cfg:       cfg,
		dedup:     NewDedupSet(horizon),
		tracker:   NewCycleTracker(cfg.CycleDuration, cfg.Limit),
		dismissed: make(map[string]struct{}),
		crossed:   make(map[int]struct{}),
	}
}

// Dismiss suppresses an action id for the rest of the run (until the
// next cycle rollover). The guidance message for its tier still shows.
func (e *Engine) Dismiss(action string) {
	if action != "" {
		e.dismissed[action] = struct{}{}
	}
}

// Refresh runs the full pipeline over a freshly read event stream and
// returns a complete snapshot. Raw events may repeat records already
// seen on earlier ticks; deduplication makes the pass idempotent.
func (e *Engine) Refresh(now time.Time, raw []Event, stats SourceStats) Snapshot {
	for _, ev := range raw {
		if e.anomalous(ev.Timestamp, now) {
			stats.Anomalies++
			continue
		}
		if !e.dedup.Admit(ev) {
			stats.Duplicates++
			continue
		}
		e.retained = append(e.retained, ev)
	}
	e.prune(now)

	windows := BuildWindows(e.retained, now, WindowConfig{
		CycleDuration: e.cfg.CycleDuration,
		RollingDays:   e.cfg.RollingDays,
		IdleGap:       e.cfg.IdleGap,
	}, func(ev Event) float64 {
		return pricing.Cost(ev.Model, ev.InputTokens, ev.OutputTokens, ev.CacheCreationTokens, ev.CacheReadTokens)
	})

	cycle, rolled := e.tracker.Observe(now, e.retained, windows.Cycle.Total)
	if rolled {
		e.dismissed = make(map[string]struct{})
		e.crossed = make(map[int]struct{})
		e.lastPercent = 0
	}

	burn := EstimateBurn(e.retained, now, e.cfg.BurnWindow)
	e.pushBurn(burn)

	snap := Snapshot{
		At:          now,
		Cycle:       cycle,
		RolledOver:  rolled,
		Windows:     windows,
		Burn:        burn,
		BurnHistory: append([]float64(nil), e.burnHistory...),
		Stats:       stats,
	}

	if t, ok := ProjectExhaustion(now, cycle.Remaining(), burn); ok {
		snap.Exhaustion = t
		snap.ExhaustionKnown = true
	}

	snap.NewThreshold = e.checkThresholds(cycle.PercentUsed() * 100)
	snap.Guidance = Advise(e.guidanceInput(snap), e.dismissed)
	return snap
}

func (e *Engine) anomalous(ts, now time.Time) bool {
	if ts.IsZero() || ts.Unix() < 0 {
		return true
	}
	return ts.After(now.Add(e.cfg.ClockSkew))
}

// prune drops retained events and dedup ids older than the horizon.
func (e *Engine) prune(now time.Time) {
	e.dedup.Prune(now)
	cutoff := now.Add(-time.Duration(e.cfg.RollingDays+1) * 24 * time.Hour)
	kept := e.retained[:0]
	for _, ev := range e.retained {
		if !ev.Timestamp.Before(cutoff) {
			kept = append(kept, ev)
		}
	}
	e.retained = kept
}

func (e *Engine) pushBurn(b BurnRate) {
	v := 0.0
	if b.Defined {
		v = b.PerMinute
	}
	e.burnHistory = append(e.burnHistory, v)
	if len(e.burnHistory) > maxBurnHistory {
		e.burnHistory = e.burnHistory[len(e.burnHistory)-maxBurnHistory:]
	}
}

// checkThresholds returns the lowest threshold newly crossed this
// refresh, resetting the crossing set when usage dropped sharply
// (a reset happened underneath us).
func (e *Engine) checkThresholds(percent float64) int {
	if percent < e.lastPercent-10 {
		e.crossed = make(map[int]struct{})
	}
	e.lastPercent = percent

	for _, th := range alertThresholds {
		if percent >= float64(th) {
			if _, ok := e.crossed[th]; !ok {
				e.crossed[th] = struct{}{}
				return th
			}
		}
	}
	return 0
}

func (e *Engine) guidanceInput(snap Snapshot) GuidanceInput {
	in := GuidanceInput{
		PercentUsed: snap.Cycle.PercentUsed(),
		Burn:        snap.Burn,
		HighBurn:    e.cfg.HighBurnPerMinute,
		TimeToReset: snap.Cycle.TimeToReset(snap.At),
	}
	// A cheaper alternative only "exists" when the user demonstrably
	// has one: another model in the window mix with lower rates.
	if ranked := snap.Windows.Cycle.Models.Ranked(); len(ranked) > 0 {
		top := ranked[0]
		in.TopModel = pricing.Family(top.Name)
		in.TopModelShare = top.Share
		for _, other := range ranked[1:] {
			if pricing.For(other.Name).Input < pricing.For(top.Name).Input {
				in.CheaperModel = pricing.Family(other.Name)
				break
			}
		}
	}
	return in
}
