package model

import "time"

// ClaimStatus is the lifecycle state of a claim
type ClaimStatus string

const (
	StatusPending     ClaimStatus = "PENDING"     // Created, verification not yet started
	StatusAnalyzing   ClaimStatus = "ANALYZING"   // Oracle call in flight
	StatusVerified    ClaimStatus = "VERIFIED"    // Truth score at or above threshold
	StatusDebunked    ClaimStatus = "DEBUNKED"    // Truth score below threshold
	StatusBroadcasted ClaimStatus = "BROADCASTED" // Terminal: report logged and published
)

// TruthThreshold is the score at or above which a claim is VERIFIED.
// Fixed constant, not tunable business logic.
const TruthThreshold = 50

// PlaceholderCIDPrefix marks a cid that is not a real content address yet
const PlaceholderCIDPrefix = "pending-ipfs-"

// AnalysisResults is the Oracle's structured verdict for a claim
type AnalysisResults struct {
	TruthScore      int      `json:"truth_score"`      // 0-100, 100 is completely true
	PropagandaFlags []string `json:"propaganda_flags"` // Recognized propaganda techniques
	Summary         string   `json:"summary"`          // Factual summary of the analysis
}

// Claim is a single fact-check submission and its verification state
type Claim struct {
	ID              string           `json:"id"`
	ClaimText       string           `json:"claim_text"`
	SourceURL       string           `json:"source_url,omitempty"`
	CID             string           `json:"cid"` // Placeholder until a real upload succeeds
	Status          ClaimStatus      `json:"status"`
	AnalysisResults *AnalysisResults `json:"analysis_results,omitempty"` // Present once status reaches VERIFIED/DEBUNKED
	CreatedAt       time.Time        `json:"created_at"`
}

// ClaimUpdate carries the mutable fields for a partial update.
// Nil fields are left untouched by the store.
type ClaimUpdate struct {
	Status          *ClaimStatus     `json:"status,omitempty"`
	CID             *string          `json:"cid,omitempty"`
	AnalysisResults *AnalysisResults `json:"analysis_results,omitempty"`
}

// FallbackAnalysis is the fixed substitute verdict used when the Oracle
// is unreachable or returns malformed output. 50 lands on the VERIFIED
// boundary on purpose: a failed analysis must not debunk a claim.
func FallbackAnalysis() *AnalysisResults {
	return &AnalysisResults{
		TruthScore:      TruthThreshold,
		PropagandaFlags: []string{"ANALYSIS_FAILED"},
		Summary:         "Language model failed to analyze the claim.",
	}
}

// ResolveVerdict maps a truth score to VERIFIED or DEBUNKED
func ResolveVerdict(truthScore int) ClaimStatus {
	if truthScore >= TruthThreshold {
		return StatusVerified
	}
	return StatusDebunked
}
