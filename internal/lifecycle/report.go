package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/nocap-ai/nocap/internal/model"
)

const (
	verdictVerified = "✅ VERIFIED"
	verdictDebunked = "❌ DEBUNKED"

	noFlagsSentinel    = "   None detected"
	noScoreSentinel    = "N/A"
	noAnalysisSentinel = "No analysis available"
)

// RenderReport builds the fixed-format human-readable broadcast report.
// The claim text is embedded verbatim, without escaping. Claims without
// analysis render the sentinel values; a non-VERIFIED status always
// carries the negative verdict marker.
func RenderReport(claim *model.Claim, cid string, now time.Time) string {
	divider := strings.Repeat("═", 60)

	verdict := verdictDebunked
	if claim.Status == model.StatusVerified {
		verdict = verdictVerified
	}

	truthScore := noScoreSentinel
	flags := noFlagsSentinel
	summary := noAnalysisSentinel
	if claim.AnalysisResults != nil {
		truthScore = fmt.Sprintf("%d", claim.AnalysisResults.TruthScore)
		if claim.AnalysisResults.Summary != "" {
			summary = claim.AnalysisResults.Summary
		}
		if len(claim.AnalysisResults.PropagandaFlags) > 0 {
			var lines []string
			for _, flag := range claim.AnalysisResults.PropagandaFlags {
				lines = append(lines, "   • "+flag)
			}
			flags = strings.Join(lines, "\n")
		}
	}

	sourceLine := ""
	if claim.SourceURL != "" {
		sourceLine = "🌐 Source: " + claim.SourceURL
	}

	return fmt.Sprintf(`
%s
📡 NOCAP-AI BROADCAST
%s
🕐 Timestamp: %s
🆔 Claim ID:  %s
🔗 CID:       %s
%s
📝 CLAIM:
"%s"
%s
%s
%s — Truth Score: %s/100

🚩 Propaganda Flags:
%s

📊 Analysis Summary:
%s
%s

`,
		divider, divider,
		now.Format(time.RFC3339),
		claim.ID,
		cid,
		divider,
		claim.ClaimText,
		sourceLine,
		divider,
		verdict, truthScore,
		flags,
		summary,
		divider,
	)
}
