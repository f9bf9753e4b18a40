package pricing

import "testing"

func TestFamily(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"claude-opus-4-20250514", "opus"},
		{"claude-sonnet-4-20250514", "sonnet"},
		{"claude-3-5-haiku-20241022", "haiku"},
		{"Opus", "opus"},
		{"something-unknown", "sonnet"},
		{"", "sonnet"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := Family(tt.model); got != tt.want {
				t.Errorf("Family(%q) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}

func TestCost(t *testing.T) {
	tests := []struct {
		name                       string
		model                      string
		in, out, cacheW, cacheR    int64
		want                       float64
	}{
		{
			name:  "sonnet basic",
			model: "claude-sonnet-4-20250514",
			in:    1_000_000, out: 1_000_000,
			want: 18.0, // $3 input + $15 output
		},
		{
			name:  "sonnet with cache",
			model: "sonnet",
			out:   100_000, cacheW: 1_000_000, cacheR: 1_000_000,
			want: 5.55, // $1.50 output + $3.75 cache write + $0.30 cache read
		},
		{
			name:  "opus",
			model: "claude-opus-4-20250514",
			in:    1_000_000, out: 100_000,
			want: 22.5,
		},
		{
			name:  "haiku",
			model: "claude-3-5-haiku-20241022",
			in:    1_000_000, out: 1_000_000,
			want: 4.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cost(tt.model, tt.in, tt.out, tt.cacheW, tt.cacheR)
			if got < tt.want-0.01 || got > tt.want+0.01 {
				t.Errorf("Cost() = %v, want %v", got, tt.want)
			}
		})
	}
}
