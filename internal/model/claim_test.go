package model

import "testing"

func TestResolveVerdict(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  ClaimStatus
	}{
		{"zero score", 0, StatusDebunked},
		{"just below threshold", 49, StatusDebunked},
		{"at threshold", 50, StatusVerified},
		{"above threshold", 51, StatusVerified},
		{"perfect score", 100, StatusVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveVerdict(tt.score); got != tt.want {
				t.Errorf("ResolveVerdict(%d) = %s, want %s", tt.score, got, tt.want)
			}
		})
	}
}

func TestFallbackAnalysis(t *testing.T) {
	fallback := FallbackAnalysis()

	// A failed analysis must land on the VERIFIED side of the boundary
	if got := ResolveVerdict(fallback.TruthScore); got != StatusVerified {
		t.Errorf("fallback verdict = %s, want %s", got, StatusVerified)
	}
	if len(fallback.PropagandaFlags) != 1 || fallback.PropagandaFlags[0] != "ANALYSIS_FAILED" {
		t.Errorf("unexpected fallback flags: %v", fallback.PropagandaFlags)
	}
	if fallback.Summary == "" {
		t.Error("fallback summary should not be empty")
	}
}

func TestFallbackAnalysis_FreshCopy(t *testing.T) {
	first := FallbackAnalysis()
	first.PropagandaFlags[0] = "mutated"

	second := FallbackAnalysis()
	if second.PropagandaFlags[0] != "ANALYSIS_FAILED" {
		t.Error("FallbackAnalysis should return a fresh copy each call")
	}
}
