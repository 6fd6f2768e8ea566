package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nocap-ai/nocap/internal/model"
)

// Analyzer wraps a Provider with the fact-check prompt and strict JSON
// parsing of the verdict. It returns an error on any dependency failure;
// the lifecycle engine decides what to substitute.
type Analyzer struct {
	provider Provider
}

// NewAnalyzer creates an analyzer backed by the configured provider
func NewAnalyzer(config Config) (*Analyzer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return &Analyzer{provider: provider}, nil
}

// NewAnalyzerWithProvider wraps an existing provider (used by tests)
func NewAnalyzerWithProvider(provider Provider) *Analyzer {
	return &Analyzer{provider: provider}
}

// Provider returns the underlying provider
func (a *Analyzer) Provider() Provider {
	return a.provider
}

// BuildAnalysisPrompt constructs the fact-check prompt for a claim
func BuildAnalysisPrompt(claimText string) string {
	return fmt.Sprintf(`You are an expert fact-checker and propaganda analyst.
Analyze the following claim and provide an assessment.
Claim: %q

You must respond strictly with valid JSON conforming to the following structure:
{
  "truth_score": number (0-100, where 100 is completely true),
  "propaganda_flags": string[] (list of recognized propaganda techniques, if any),
  "summary": string (a strict factual summary of your analysis)
}
Return only JSON, nothing else.`, claimText)
}

// Analyze asks the model for a structured verdict on the claim
func (a *Analyzer) Analyze(ctx context.Context, claimText string) (*model.AnalysisResults, error) {
	resp, err := a.provider.Generate(ctx, GenerateRequest{
		Prompt:   BuildAnalysisPrompt(claimText),
		JSONMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	results, err := ParseAnalysis(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}
	return results, nil
}

// ParseAnalysis decodes the model's JSON verdict. Models occasionally
// wrap JSON in markdown fences; those are stripped before decoding.
func ParseAnalysis(text string) (*model.AnalysisResults, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}

	var results model.AnalysisResults
	if err := json.Unmarshal([]byte(cleaned), &results); err != nil {
		return nil, fmt.Errorf("unmarshal verdict: %w", err)
	}

	// Clamp out-of-range scores instead of rejecting them
	if results.TruthScore < 0 {
		results.TruthScore = 0
	}
	if results.TruthScore > 100 {
		results.TruthScore = 100
	}

	if results.PropagandaFlags == nil {
		results.PropagandaFlags = []string{}
	}

	return &results, nil
}
