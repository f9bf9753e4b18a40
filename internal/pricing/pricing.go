package pricing

import "strings"

// Rates holds per-1M-token prices for a model family.
type Rates struct {
	Input      float64
	Output     float64
	CacheWrite float64
	CacheRead  float64
}

// Price table per 1M tokens, keyed by model family.
var familyRates = map[string]Rates{
	"opus": {
		Input:      15.0,
		Output:     75.0,
		CacheWrite: 18.75,
		CacheRead:  1.50,
	},
	"sonnet": {
		Input:      3.0,
		Output:     15.0,
		CacheWrite: 3.75,
		CacheRead:  0.30,
	},
	"haiku": {
		Input:      0.80,
		Output:     4.0,
		CacheWrite: 1.0,
		CacheRead:  0.08,
	},
}

// Family normalizes a full model ID (e.g. "claude-opus-4-20250514")
// to its family name. Unknown models default to sonnet.
func Family(model string) string {
	model = strings.ToLower(model)
	for _, f := range []string{"opus", "sonnet", "haiku"} {
		if strings.Contains(model, f) {
			return f
		}
	}
	return "sonnet"
}

// For returns the rates for a model ID.
func For(model string) Rates {
	return familyRates[Family(model)]
}

// Cost estimates the USD cost of one request's token counts.
func Cost(model string, input, output, cacheWrite, cacheRead int64) float64 {
	r := For(model)
	return float64(input)/1_000_000*r.Input +
		float64(output)/1_000_000*r.Output +
		float64(cacheWrite)/1_000_000*r.CacheWrite +
		float64(cacheRead)/1_000_000*r.CacheRead
}
