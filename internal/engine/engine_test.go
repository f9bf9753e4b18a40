package engine

import (
	"fmt"
	"testing"
	"time"
)

func testEngineConfig(limit int64) Config {
	return Config{
		Limit:             limit,
		CycleDuration:     5 * time.Hour,
		RollingDays:       7,
		IdleGap:           30 * time.Minute,
		BurnWindow:        10 * time.Minute,
		HighBurnPerMinute: 150,
		ClockSkew:         2 * time.Minute,
	}
}

func eventsTotalling(now time.Time, total int64, model string) []Event {
	// Spread the tokens over a handful of events inside the cycle.
	per := total / 4
	var events []Event
	for i := 0; i < 4; i++ {
		tokens := per
		if i == 3 {
			tokens = total - 3*per
		}
		events = append(events, Event{
			Timestamp:    now.Add(-time.Duration(i+1) * 30 * time.Minute),
			Model:        model,
			Project:      "proj",
			ID:           fmt.Sprintf("msg-%d-%d:req%d", now.UnixNano(), i, i),
			InputTokens:  tokens / 2,
			OutputTokens: tokens - tokens/2,
		})
	}
	return events
}

// Running the full pipeline twice over the same input yields identical
// window aggregates.
func TestRefreshIdempotent(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	e := New(testEngineConfig(1_000_000))
	events := eventsTotalling(now, 100_000, "claude-opus-4")

	first := e.Refresh(now, events, SourceStats{})
	second := e.Refresh(now.Add(time.Second), events, SourceStats{})

	if second.Stats.Duplicates != len(events) {
		t.Errorf("Duplicates = %d, want %d", second.Stats.Duplicates, len(events))
	}
	for i := range first.Windows.All() {
		a, b := first.Windows.All()[i], second.Windows.All()[i]
		if a.Total != b.Total {
			t.Errorf("%s: total drifted on re-read: %d vs %d", a.Kind, a.Total, b.Total)
		}
		if a.Events != b.Events {
			t.Errorf("%s: event count drifted: %d vs %d", a.Kind, a.Events, b.Events)
		}
	}
}

// Logs older than the request-id field carry no event ID; re-reading
// them on a later tick must not inflate any window.
func TestRefreshIdempotentWithoutIDs(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	e := New(testEngineConfig(1_000_000))
	events := []Event{
		{Timestamp: now.Add(-time.Hour), Model: "m", Project: "p", Session: "s", InputTokens: 100},
	}

	first := e.Refresh(now, events, SourceStats{})
	second := e.Refresh(now.Add(time.Second), events, SourceStats{})

	if first.Windows.Week.Total != 100 {
		t.Fatalf("first week total = %d, want 100", first.Windows.Week.Total)
	}
	if second.Windows.Week.Total != 100 {
		t.Errorf("second week total = %d, want 100 (ID-less event was double-counted)", second.Windows.Week.Total)
	}
	if second.Stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", second.Stats.Duplicates)
	}
}

func TestScenarioHalfway(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	e := New(testEngineConfig(1_000_000))

	snap := e.Refresh(now, eventsTotalling(now, 580_000, "claude-opus-4"), SourceStats{})

	if got := snap.Cycle.PercentUsed(); got != 0.58 {
		t.Errorf("PercentUsed = %f, want 0.58", got)
	}
	if snap.Guidance.Tier != TierInfo {
		t.Errorf("Tier = %s, want info (halfway)", snap.Guidance.Tier)
	}
	if snap.Guidance.Interactive() {
		t.Error("halfway guidance carries no action")
	}
}

func TestScenarioDismissalPersistsUntilRollover(t *testing.T) {
	now := time.Date(2026, 8, 24, 9, 10, 0, 0, time.UTC)
	e := New(testEngineConfig(1_000_000))

	snap := e.Refresh(now, eventsTotalling(now, 920_000, "claude-opus-4"), SourceStats{})
	if snap.Guidance.Tier != TierCritical || snap.Guidance.Action != ActionCompact {
		t.Fatalf("setup: want critical with compact, got %+v", snap.Guidance)
	}

	e.Dismiss(snap.Guidance.Action)

	// Usage rises further in a later refresh: same action must not
	// reappear this run.
	later := now.Add(10 * time.Minute)
	snap = e.Refresh(later, eventsTotalling(later, 70_000, "claude-opus-4"), SourceStats{})
	if snap.Guidance.Tier != TierCritical {
		t.Errorf("Tier = %s, want critical", snap.Guidance.Tier)
	}
	if snap.Guidance.Interactive() {
		t.Error("dismissed action reappeared within the same cycle")
	}

	// A new cycle resets suppression.
	afterReset := now.Add(5*time.Hour + 30*time.Minute)
	snap = e.Refresh(afterReset, eventsTotalling(afterReset, 950_000, "claude-opus-4"), SourceStats{})
	if !snap.RolledOver {
		t.Fatal("expected a cycle rollover")
	}
	if !snap.Guidance.Interactive() {
		t.Error("suppression should reset when a new cycle starts")
	}
}

// A single model dominating the window with a cheaper model also in
// the mix suggests a switch even at low overall usage.
func TestScenarioSwitchModel(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	e := New(testEngineConfig(1_000_000))

	events := append(
		eventsTotalling(now, 300_000, "claude-opus-4"),
		Event{
			Timestamp:    now.Add(-40 * time.Minute),
			Model:        "claude-sonnet-4",
			Project:      "proj",
			ID:           "sonnet-1:r",
			InputTokens:  50_000,
			OutputTokens: 50_000,
		},
	)

	snap := e.Refresh(now, events, SourceStats{})

	if pct := snap.Cycle.PercentUsed(); pct != 0.4 {
		t.Fatalf("PercentUsed = %f, want 0.4", pct)
	}
	if snap.Guidance.Action != "model sonnet" {
		t.Errorf("Action = %q, want model sonnet (rule priority over halfway)", snap.Guidance.Action)
	}
}

func TestRolloverResetsUsage(t *testing.T) {
	start := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	e := New(testEngineConfig(1_000_000))

	now := start.Add(10 * time.Minute)
	snap := e.Refresh(now, eventsTotalling(now, 800_000, "claude-opus-4"), SourceStats{})
	if !snap.Cycle.Active {
		t.Fatal("expected active cycle")
	}

	// Cross the boundary with fresh activity: tokens_used reflects the
	// new window, not the prior cycle.
	later := start.Add(5*time.Hour + 40*time.Minute)
	snap = e.Refresh(later, eventsTotalling(later, 5_000, "claude-opus-4"), SourceStats{})
	if !snap.RolledOver {
		t.Fatal("expected rollover")
	}
	if snap.Cycle.Used >= 800_000 {
		t.Errorf("Used = %d carried over from the previous cycle", snap.Cycle.Used)
	}
}

func TestClockAnomaliesExcluded(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	e := New(testEngineConfig(1_000_000))

	events := []Event{
		{Timestamp: now.Add(-time.Hour), Model: "m", Project: "p", ID: "ok:1", InputTokens: 100},
		{Timestamp: now.Add(time.Hour), Model: "m", Project: "p", ID: "future:2", InputTokens: 1000},
		{Timestamp: time.Unix(-1, 0), Model: "m", Project: "p", ID: "epoch:3", InputTokens: 1000},
	}

	snap := e.Refresh(now, events, SourceStats{})
	if snap.Stats.Anomalies != 2 {
		t.Errorf("Anomalies = %d, want 2", snap.Stats.Anomalies)
	}
	if snap.Windows.Week.Total != 100 {
		t.Errorf("week total = %d, want 100 (anomalous records excluded)", snap.Windows.Week.Total)
	}
}

func TestThresholdCrossings(t *testing.T) {
	now := time.Date(2026, 8, 24, 9, 10, 0, 0, time.UTC)
	e := New(testEngineConfig(1_000_000))

	snap := e.Refresh(now, eventsTotalling(now, 600_000, "claude-opus-4"), SourceStats{})
	if snap.NewThreshold != 50 {
		t.Errorf("NewThreshold = %d, want 50", snap.NewThreshold)
	}

	// Same level again: no new crossing.
	snap = e.Refresh(now.Add(time.Minute), nil, SourceStats{})
	if snap.NewThreshold != 0 {
		t.Errorf("NewThreshold = %d, want 0 on repeat", snap.NewThreshold)
	}

	later := now.Add(20 * time.Minute)
	snap = e.Refresh(later, eventsTotalling(later, 200_000, "claude-opus-4"), SourceStats{})
	if snap.NewThreshold != 75 {
		t.Errorf("NewThreshold = %d, want 75", snap.NewThreshold)
	}
}

func TestNoBurnSignalNoExhaustion(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	e := New(testEngineConfig(1_000_000))

	// One lone event: burn undefined, exhaustion unknown.
	events := []Event{{Timestamp: now.Add(-time.Minute), Model: "m", Project: "p", ID: "a:1", InputTokens: 100}}
	snap := e.Refresh(now, events, SourceStats{})

	if snap.Burn.Defined {
		t.Error("one event in the sub-window must not define a burn rate")
	}
	if snap.ExhaustionKnown {
		t.Error("exhaustion must not be reported without a burn signal")
	}
}
