package engine

import (
	"fmt"
	"time"
)

// Tier is the severity bucket of a recommendation. Higher values are
// more severe.
type Tier int

const (
	TierCalm Tier = iota
	TierInfo
	TierWarning
	TierUrgent
	TierCritical
)

func (t Tier) String() string {
	switch t {
	case TierCritical:
		return "critical"
	case TierUrgent:
		return "urgent"
	case TierWarning:
		return "warning"
	case TierInfo:
		return "info"
	default:
		return "calm"
	}
}

// Well-known action identifiers. The identifier doubles as the slash
// command the CLI layer runs on accept ("compact" -> `claude /compact`,
// "model sonnet" -> `claude /model sonnet`).
const ActionCompact = "compact"

// ActionSwitchModel builds the switch-model action id for a target
// model family.
func ActionSwitchModel(target string) string {
	return "model " + target
}

// Guidance is the single recommendation produced per refresh.
type Guidance struct {
	Message      string
	Tier         Tier
	Action       string // empty when nothing is suggested or it was dismissed
	ActionPrompt string // e.g. "Run /compact?"
}

// Interactive reports whether the guidance carries a pending action.
func (g Guidance) Interactive() bool {
	return g.Action != ""
}

// GuidanceInput is everything the rule cascade looks at.
type GuidanceInput struct {
	PercentUsed   float64
	Burn          BurnRate
	HighBurn      float64 // tokens/min considered "high"
	TopModel      string  // costliest model in the cycle window
	TopModelShare float64 // its fraction of the window's billable tokens
	CheaperModel  string  // cheaper alternative family, empty when none
	TimeToReset   time.Duration
}

type rule struct {
	name  string
	when  func(GuidanceInput) bool
	build func(GuidanceInput) Guidance
}

// The cascade is evaluated top to bottom; the first match wins so the
// priority order stays auditable.
var rules = []rule{
	{
		name: "critical",
		when: func(in GuidanceInput) bool { return in.PercentUsed >= 0.90 },
		build: func(in GuidanceInput) Guidance {
			return Guidance{
				Message:      "Almost at the limit. Focus on finishing your current task.",
				Tier:         TierCritical,
				Action:       ActionCompact,
				ActionPrompt: "Run /compact?",
			}
		},
	},
	{
		name: "high-burn-high-usage",
		when: func(in GuidanceInput) bool {
			return in.Burn.High(in.HighBurn) && in.PercentUsed >= 0.70
		},
		build: func(in GuidanceInput) Guidance {
			return Guidance{
				Message:      fmt.Sprintf("Using tokens quickly at %.0f%%. Consider wrapping up.", in.PercentUsed*100),
				Tier:         TierUrgent,
				Action:       ActionCompact,
				ActionPrompt: "Run /compact?",
			}
		},
	},
	{
		name: "switch-model",
		when: func(in GuidanceInput) bool {
			return in.TopModelShare > 0.60 && in.CheaperModel != ""
		},
		build: func(in GuidanceInput) Guidance {
			return Guidance{
				Message: fmt.Sprintf("%s is handling %.0f%% of this window. %s is often sufficient and more economical.",
					in.TopModel, in.TopModelShare*100, in.CheaperModel),
				Tier:         TierWarning,
				Action:       ActionSwitchModel(in.CheaperModel),
				ActionPrompt: fmt.Sprintf("Switch to %s?", in.CheaperModel),
			}
		},
	},
	{
		name: "running-low",
		when: func(in GuidanceInput) bool { return in.PercentUsed >= 0.75 },
		build: func(in GuidanceInput) Guidance {
			return Guidance{
				Message:      fmt.Sprintf("Running low on tokens. Resets in %s.", formatDuration(in.TimeToReset)),
				Tier:         TierWarning,
				Action:       ActionCompact,
				ActionPrompt: "Run /compact?",
			}
		},
	},
	{
		name: "high-velocity",
		when: func(in GuidanceInput) bool { return in.Burn.High(in.HighBurn) },
		build: func(in GuidanceInput) Guidance {
			return Guidance{
				Message: "High token velocity. Normal if you are deep in a complex task.",
				Tier:    TierInfo,
			}
		},
	},
	{
		name: "halfway",
		when: func(in GuidanceInput) bool { return in.PercentUsed >= 0.50 },
		build: func(in GuidanceInput) Guidance {
			return Guidance{
				Message: "Halfway through this cycle. You are pacing well.",
				Tier:    TierInfo,
			}
		},
	},
	{
		name: "healthy",
		when: func(in GuidanceInput) bool { return true },
		build: func(in GuidanceInput) Guidance {
			return Guidance{
				Message: "You are in good shape.",
				Tier:    TierCalm,
			}
		},
	},
}

// Advise evaluates the cascade and returns the first matching rule's
// guidance. An action the user already dismissed this run is stripped
// from the result while the message and tier still show.
func Advise(in GuidanceInput, dismissed map[string]struct{}) Guidance {
	for _, r := range rules {
		if !r.when(in) {
			continue
		}
		g := r.build(in)
		if g.Action != "" {
			if _, ok := dismissed[g.Action]; ok {
				g.Action = ""
				g.ActionPrompt = ""
			}
		}
		return g
	}
	return Guidance{Message: "You are in good shape.", Tier: TierCalm}
}

// formatDuration renders a duration as "2h 30m" or "45m".
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "< 1m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
