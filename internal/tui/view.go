package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/tokenpace/tokenpace/internal/engine"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#00BFFF")
	colorSecondary = lipgloss.Color("#FFD700")
	colorUrgent    = lipgloss.Color("#FF4444")
	colorSuccess   = lipgloss.Color("#44FF44")
	colorMuted     = lipgloss.Color("#666666")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	alertStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorUrgent)

	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

func tierStyle(t engine.Tier) lipgloss.Style {
	switch t {
	case engine.TierCritical, engine.TierUrgent:
		return lipgloss.NewStyle().Bold(true).Foreground(colorUrgent)
	case engine.TierWarning:
		return lipgloss.NewStyle().Bold(true).Foreground(colorSecondary)
	case engine.TierInfo:
		return lipgloss.NewStyle().Foreground(colorPrimary)
	default:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	}
}

// View renders the dashboard
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.viewHelp()
	}
	if !m.haveSnap {
		return "\n  Reading usage logs...\n"
	}

	innerWidth := m.width - 4
	if innerWidth < 40 {
		innerWidth = 40
	}

	sections := []string{
		m.viewHeader(innerWidth),
		"",
		m.viewGauges(innerWidth),
		"",
		m.viewWindows(innerWidth),
		"",
		m.viewBreakdowns(innerWidth),
		"",
		m.viewGuidance(innerWidth),
		m.viewStatus(innerWidth),
		helpBar(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(0, 1).
		Width(m.width - 2)
	return frame.Render(content)
}

func (m *Model) viewHeader(width int) string {
	title := titleStyle.Render("tokenpace")
	plan := mutedStyle.Render(fmt.Sprintf("plan %s · limit %s tokens / %s",
		m.cfg.Limit.Plan,
		humanize.Comma(m.snap.Cycle.Limit),
		m.cfg.CycleDuration()))
	clock := mutedStyle.Render(m.snap.At.Local().Format("15:04:05"))

	left := title + "  " + plan
	padding := width - lipgloss.Width(left) - lipgloss.Width(clock)
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + clock
}

func (m *Model) viewGauges(width int) string {
	cycle := m.snap.Cycle
	var lines []string

	if !cycle.Active {
		lines = append(lines, mutedStyle.Render("No active rate-limit cycle. Waiting for usage."))
		return strings.Join(lines, "\n")
	}

	// Over-limit percentages are surfaced verbatim; only the bar is
	// clamped for display.
	pct := cycle.PercentUsed()
	barPct := pct
	if barPct > 1 {
		barPct = 1
	}
	tokenLine := fmt.Sprintf("%s %s %s",
		labelStyle.Render("Tokens"),
		m.tokenBar.ViewAs(barPct),
		valueStyle.Render(fmt.Sprintf("%5.1f%%  %s / %s",
			pct*100,
			humanize.Comma(cycle.Used),
			humanize.Comma(cycle.Limit))))
	lines = append(lines, tokenLine)

	elapsed := m.snap.At.Sub(cycle.Start)
	total := cycle.Reset.Sub(cycle.Start)
	timePct := 0.0
	if total > 0 {
		timePct = float64(elapsed) / float64(total)
	}
	if timePct > 1 {
		timePct = 1
	}
	timeLine := fmt.Sprintf("%s %s %s",
		labelStyle.Render("Time  "),
		m.timeBar.ViewAs(timePct),
		valueStyle.Render(fmt.Sprintf("resets %s (%s)",
			cycle.Reset.Local().Format("15:04"),
			formatCountdown(cycle.TimeToReset(m.snap.At)))))
	lines = append(lines, timeLine)

	lines = append(lines, m.viewBurn(width))
	return strings.Join(lines, "\n")
}

func (m *Model) viewBurn(width int) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Burn  "))
	b.WriteString(" ")
	if !m.snap.Burn.Defined {
		b.WriteString(mutedStyle.Render("no signal"))
	} else {
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.0f tok/min", m.snap.Burn.PerMinute)))
		if m.snap.ExhaustionKnown {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  exhausts ~%s", m.snap.Exhaustion.Local().Format("15:04"))))
		}
	}
	if spark := burnSparkline(m.snap.BurnHistory, 24); spark != "" {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(spark))
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  session cost $%.2f", m.snap.Windows.Session.Cost)))
	return ansi.Truncate(b.String(), width, "…")
}

// burnSparkline renders recent burn-rate history as a one-row chart.
func burnSparkline(history []float64, width int) string {
	if len(history) < 2 || lo.Max(history) <= 0 {
		return ""
	}
	if len(history) > width {
		history = history[len(history)-width:]
	}
	sl := sparkline.New(width, 1)
	sl.PushAll(history)
	sl.Draw()
	return strings.TrimRight(sl.View(), "\n")
}

func (m *Model) viewWindows(width int) string {
	w := m.snap.Windows
	header := sectionHeaderStyle.Render("Windows")
	row := func(label string, agg *engine.Aggregate) string {
		return fmt.Sprintf("  %s %s tokens  %s",
			labelStyle.Render(fmt.Sprintf("%-8s", label)),
			valueStyle.Render(fmt.Sprintf("%12s", humanize.Comma(agg.Total))),
			mutedStyle.Render(fmt.Sprintf("$%.2f · %d requests", agg.Cost, agg.Events)))
	}
	lines := []string{
		header,
		row("session", w.Session),
		row("5 hours", w.Cycle),
		row("today", w.Day),
		row(fmt.Sprintf("%d days", m.cfg.Windows.RollingDays), w.Week),
		row("month", w.Month),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewBreakdowns(width int) string {
	half := width/2 - 2
	models := renderBreakdown("Models (5h)", m.snap.Windows.Cycle.Models, half)
	projects := renderBreakdown("Projects (5h)", m.snap.Windows.Cycle.Projects, half)
	return lipgloss.JoinHorizontal(lipgloss.Top, models, "    ", projects)
}

const maxBreakdownRows = 5

func renderBreakdown(title string, b *engine.Breakdown, width int) string {
	lines := []string{sectionHeaderStyle.Render(title)}
	ranked := b.Ranked()
	if len(ranked) == 0 {
		lines = append(lines, mutedStyle.Render("  (none)"))
	}
	for i, share := range ranked {
		if i >= maxBreakdownRows {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  +%d more", len(ranked)-maxBreakdownRows)))
			break
		}
		line := fmt.Sprintf("  %3.0f%% %10s  %s",
			share.Share*100,
			humanize.Comma(share.Tokens),
			share.Name)
		lines = append(lines, ansi.Truncate(line, width, "…"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewGuidance(width int) string {
	g := m.snap.Guidance
	style := tierStyle(g.Tier)
	var b strings.Builder
	b.WriteString(style.Render(fmt.Sprintf("[%s] ", g.Tier)))
	b.WriteString(g.Message)
	if g.Interactive() {
		b.WriteString("\n")
		b.WriteString(valueStyle.Render(g.ActionPrompt))
		b.WriteString(mutedStyle.Render("  [y] yes · [n] not this run"))
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.GetForeground()).
		Padding(0, 1).
		Width(width - 2)
	return box.Render(b.String())
}

func (m *Model) viewStatus(width int) string {
	var parts []string
	if m.alert != 0 {
		parts = append(parts, alertStyle.Render(fmt.Sprintf("⚠ crossed %d%% of the cycle limit", m.alert)))
	}
	if m.snap.Stats.NoData {
		parts = append(parts, mutedStyle.Render("no usage data yet, waiting for Claude Code logs"))
	}
	if m.snap.Stats.Malformed > 0 || m.snap.Stats.Anomalies > 0 {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("skipped %d malformed, %d clock-skewed records",
			m.snap.Stats.Malformed, m.snap.Stats.Anomalies)))
	}
	if m.actionErr != nil {
		parts = append(parts, alertStyle.Render(fmt.Sprintf("action failed: %v", m.actionErr)))
	}
	if len(parts) == 0 {
		return ""
	}
	return ansi.Truncate(strings.Join(parts, "  "), width, "…")
}

func helpBar() string {
	return helpStyle.Render("[y/n] guidance action  [r] refresh  [?] help  [q] quit")
}

func (m *Model) viewHelp() string {
	help := `
  tokenpace: live Claude Code token dashboard

  The dashboard re-reads your usage logs on every tick and shows
  billable tokens (input + output + cache creation; cache reads are
  free) against the current 5-hour rate-limit cycle.

  y        accept the suggested action (runs the claude command)
  n        decline it for the rest of this run
  r        refresh now
  ?        close this help
  q        quit
`
	return help
}

func formatCountdown(d time.Duration) string {
	if d < time.Minute {
		return "< 1m left"
	}
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm left", h, mins)
	}
	return fmt.Sprintf("%dm left", mins)
}
