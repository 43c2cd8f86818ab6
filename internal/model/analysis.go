package model

import "encoding/json"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

const AnalysisCompletedMessage = "Analysis completed"

// AnalysisResult is the outcome of one document submission. Findings is nil
// exactly when the outcome is a failure.
type AnalysisResult struct {
	outcome  Outcome
	message  string
	findings []Finding
}

// NewAnalysisSuccess copies findings so later changes to the caller's slice
// are not observed.
func NewAnalysisSuccess(findings []Finding) AnalysisResult {
	owned := make([]Finding, len(findings))
	copy(owned, findings)
	return AnalysisResult{
		outcome:  OutcomeSuccess,
		message:  AnalysisCompletedMessage,
		findings: owned,
	}
}

func NewAnalysisFailure(message string) AnalysisResult {
	return AnalysisResult{
		outcome: OutcomeFailure,
		message: message,
	}
}

func (r AnalysisResult) Outcome() Outcome { return r.outcome }
func (r AnalysisResult) Message() string  { return r.message }
func (r AnalysisResult) Succeeded() bool  { return r.outcome == OutcomeSuccess }

// Findings returns a copy of the findings, or nil for a failed analysis.
func (r AnalysisResult) Findings() []Finding {
	if r.findings == nil {
		return nil
	}
	out := make([]Finding, len(r.findings))
	copy(out, r.findings)
	return out
}

func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Outcome  Outcome   `json:"outcome"`
		Message  string    `json:"message"`
		Findings []Finding `json:"findings"`
	}{
		Outcome:  r.outcome,
		Message:  r.message,
		Findings: r.findings,
	})
}
