package engine

import (
	"testing"
	"time"
)

func noDismissals() map[string]struct{} { return map[string]struct{}{} }

func TestAdviseCascade(t *testing.T) {
	highBurn := BurnRate{PerMinute: 300, Defined: true}

	tests := []struct {
		name       string
		in         GuidanceInput
		wantTier   Tier
		wantAction string
	}{
		{
			name:       "critical at 92%",
			in:         GuidanceInput{PercentUsed: 0.92, HighBurn: 150},
			wantTier:   TierCritical,
			wantAction: ActionCompact,
		},
		{
			name:       "high burn plus high usage is urgent",
			in:         GuidanceInput{PercentUsed: 0.80, Burn: highBurn, HighBurn: 150},
			wantTier:   TierUrgent,
			wantAction: ActionCompact,
		},
		{
			name: "switch model fires despite low overall usage",
			in: GuidanceInput{
				PercentUsed:   0.40,
				HighBurn:      150,
				TopModel:      "opus",
				TopModelShare: 0.75,
				CheaperModel:  "sonnet",
			},
			wantTier:   TierWarning,
			wantAction: "model sonnet",
		},
		{
			name:       "running low at 80%",
			in:         GuidanceInput{PercentUsed: 0.80, HighBurn: 150, TimeToReset: 2 * time.Hour},
			wantTier:   TierWarning,
			wantAction: ActionCompact,
		},
		{
			name:       "high velocity alone is informational",
			in:         GuidanceInput{PercentUsed: 0.30, Burn: highBurn, HighBurn: 150},
			wantTier:   TierInfo,
			wantAction: "",
		},
		{
			name:       "halfway at 58% carries no action",
			in:         GuidanceInput{PercentUsed: 0.58, HighBurn: 150},
			wantTier:   TierInfo,
			wantAction: "",
		},
		{
			name:       "healthy",
			in:         GuidanceInput{PercentUsed: 0.10, HighBurn: 150},
			wantTier:   TierCalm,
			wantAction: "",
		},
		{
			name: "no cheaper alternative skips the switch rule",
			in: GuidanceInput{
				PercentUsed:   0.40,
				HighBurn:      150,
				TopModel:      "haiku",
				TopModelShare: 0.95,
				CheaperModel:  "",
			},
			wantTier:   TierCalm,
			wantAction: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Advise(tt.in, noDismissals())
			if g.Tier != tt.wantTier {
				t.Errorf("Tier = %s, want %s", g.Tier, tt.wantTier)
			}
			if g.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", g.Action, tt.wantAction)
			}
			if g.Message == "" {
				t.Error("every tier carries a message")
			}
		})
	}
}

func TestAdviseDismissedActionStillShowsMessage(t *testing.T) {
	dismissed := map[string]struct{}{ActionCompact: {}}

	g := Advise(GuidanceInput{PercentUsed: 0.92, HighBurn: 150}, dismissed)
	if g.Tier != TierCritical {
		t.Errorf("Tier = %s, want critical even with the action dismissed", g.Tier)
	}
	if g.Interactive() {
		t.Error("dismissed action must not re-fire")
	}
	if g.Message == "" {
		t.Error("informational message for the tier still shows")
	}
}

// Increasing percent_used with everything else fixed must never move
// guidance to a strictly lower severity tier.
func TestGuidanceMonotonicity(t *testing.T) {
	for _, burn := range []BurnRate{{}, {PerMinute: 300, Defined: true}} {
		last := TierCalm
		for pct := 0.0; pct <= 1.2; pct += 0.01 {
			g := Advise(GuidanceInput{
				PercentUsed:   pct,
				Burn:          burn,
				HighBurn:      150,
				TopModel:      "opus",
				TopModelShare: 0.5,
				CheaperModel:  "sonnet",
			}, noDismissals())
			if g.Tier < last {
				t.Fatalf("tier dropped from %s to %s at %.2f (burn defined=%v)", last, g.Tier, pct, burn.Defined)
			}
			last = g.Tier
		}
	}
}
