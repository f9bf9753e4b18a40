package tui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tokenpace/tokenpace/internal/engine"
)

// RenderReport produces the plain-text snapshot used by --once mode.
func RenderReport(snap engine.Snapshot) string {
	var b strings.Builder

	if snap.Stats.NoData {
		b.WriteString("no usage data yet\n")
		return b.String()
	}

	c := snap.Cycle
	if c.Active {
		fmt.Fprintf(&b, "cycle    %s -> %s  %s / %s tokens (%.1f%%)\n",
			c.Start.Local().Format("15:04"),
			c.Reset.Local().Format("15:04"),
			humanize.Comma(c.Used),
			humanize.Comma(c.Limit),
			c.PercentUsed()*100)
	} else {
		b.WriteString("cycle    inactive\n")
	}

	if snap.Burn.Defined {
		fmt.Fprintf(&b, "burn     %.0f tok/min", snap.Burn.PerMinute)
		if snap.ExhaustionKnown {
			fmt.Fprintf(&b, "  (exhausts ~%s)", snap.Exhaustion.Local().Format("15:04"))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("burn     no signal\n")
	}

	rows := []struct {
		label string
		agg   *engine.Aggregate
	}{
		{"session", snap.Windows.Session},
		{"5h", snap.Windows.Cycle},
		{"today", snap.Windows.Day},
		{"week", snap.Windows.Week},
		{"month", snap.Windows.Month},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%-8s %12s tokens  $%.2f\n", r.label, humanize.Comma(r.agg.Total), r.agg.Cost)
	}

	for _, share := range snap.Windows.Cycle.Models.Ranked() {
		fmt.Fprintf(&b, "model    %3.0f%% %12s  %s\n", share.Share*100, humanize.Comma(share.Tokens), share.Name)
	}

	fmt.Fprintf(&b, "guidance [%s] %s\n", snap.Guidance.Tier, snap.Guidance.Message)
	return b.String()
}
