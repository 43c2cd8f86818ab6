package prompt

import (
	"fmt"
	"strings"

	"clausewise.app/review/internal/model"
)

// Name identifies a prompt in logs and spans.
type Name string

const (
	NameAnalysis Name = "analysis"
	NameDraft    Name = "draft"
)

const analysisTemplate = `You are a legal expert who reviews contracts and documents for freelancers and startups.
Analyze the following text and determine whether it is a contract.
If it is a contract, identify every potentially risky clause. For each one, give a brief plain-English explanation of the risk and suggest an improvement.
If it is not a contract, explain why and summarize the document's purpose or content instead.
Return your entire response as a single JSON array of objects and nothing else.
For contracts, each object must use exactly the keys "clause", "risk", and "suggestion".
For non-contracts, return one object with the keys "isContract" (set to false), "reason", and "summary".
If the text is too vague or invalid, return an error message inside the array.

Text to Analyze:
%s
Response:`

const draftTemplate = `You are a professional contract negotiation advisor. Below are the clauses from a contract review with %s:
%s
Draft a friendly, professional email proposing a renegotiation meeting with %s.
Do not include a specific date; instead, suggest scheduling a convenient time in the near future.
Address the email from %s.
Include next steps to address these clauses in plain language, keeping the tone genuine and collaborative.`

// BuildAnalysis embeds the trimmed document text into the classification and
// risk-analysis instructions.
func BuildAnalysis(documentText string) string {
	return fmt.Sprintf(analysisTemplate, strings.TrimSpace(documentText))
}

// BuildDraft embeds one line group per risky clause into the negotiation
// draft instructions. Findings other than risky clauses are left out.
func BuildDraft(findings []model.Finding, counterpartName, authorName string) string {
	return fmt.Sprintf(draftTemplate, counterpartName, RenderClauses(findings), counterpartName, authorName)
}

// RenderClauses renders risky clauses as a numbered list, numbering from 1 in
// the order the clauses appear.
func RenderClauses(findings []model.Finding) string {
	var sb strings.Builder
	for i, c := range model.RiskyClauses(findings) {
		fmt.Fprintf(&sb, "%d. Clause: %s\n   Risk: %s\n   Suggestion: %s\n\n", i+1, c.Clause(), c.Risk(), c.Suggestion())
	}
	return sb.String()
}
