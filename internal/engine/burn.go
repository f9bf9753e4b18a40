package engine

import "time"

// BurnRate is consumption velocity over a short trailing sub-window.
// Defined is false when fewer than two events landed in the window;
// rules that depend on burn rate treat that as no signal, not zero.
type BurnRate struct {
	PerMinute float64
	Defined   bool
}

// High reports whether the rate is at or above the given threshold.
// An undefined rate is never high.
func (b BurnRate) High(threshold float64) bool {
	return b.Defined && b.PerMinute >= threshold
}

// EstimateBurn computes billable tokens per minute over the trailing
// window ending at now.
func EstimateBurn(events []Event, now time.Time, window time.Duration) BurnRate {
	if window <= 0 {
		return BurnRate{}
	}
	cutoff := now.Add(-window)
	var total int64
	count := 0
	for _, e := range events {
		if e.Timestamp.Before(cutoff) || e.Timestamp.After(now) {
			continue
		}
		total += e.Billable()
		count++
	}
	if count < 2 {
		return BurnRate{}
	}
	return BurnRate{
		PerMinute: float64(total) / window.Minutes(),
		Defined:   true,
	}
}

// ProjectExhaustion estimates when the remaining tokens run out at the
// current burn rate. The projection is only meaningful for a defined,
// positive rate; otherwise ok is false and exhaustion is effectively
// never.
func ProjectExhaustion(now time.Time, remaining int64, rate BurnRate) (time.Time, bool) {
	if !rate.Defined || rate.PerMinute <= 0 {
		return time.Time{}, false
	}
	if remaining <= 0 {
		return now, true
	}
	minutes := float64(remaining) / rate.PerMinute
	return now.Add(time.Duration(minutes * float64(time.Minute))), true
}
