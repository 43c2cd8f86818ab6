// Package parser turns a free-text model reply into an ordered, non-empty
// list of findings. Parsing never fails: when the reply cannot be decoded the
// result degrades to placeholder findings that preserve the original text.
package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"clausewise.app/review/internal/model"
)

// Strategy names the extraction step that produced a report's findings.
type Strategy string

const (
	StrategyWholeArray     Strategy = "whole_array"
	StrategyRecordRecovery Strategy = "record_recovery"
	StrategyFallback       Strategy = "fallback"
)

const (
	ReasonUnparseable     = "Unable to parse response"
	ReasonEmptyAnalysis   = "Analysis returned empty"
	ReasonNotContract     = "Document is not a contract"
	ReasonModelMessage    = "Model reported an issue"
	ReasonIncompleteEntry = "Incomplete clause analysis"
	ReasonUnrecognized    = "Unrecognized analysis entry"
)

// Report is the outcome of parsing one reply.
type Report struct {
	Findings []model.Finding
	Strategy Strategy
	// Failure is set when any part of the reply had to be replaced by a
	// placeholder finding.
	Failure model.ParseFailureReason
}

// Parse returns the findings of Analyze.
func Parse(raw string) []model.Finding {
	return Analyze(raw).Findings
}

// Analyze extracts findings from raw, trying in order: decoding an array in
// the reply, decoding record-sized chunks one at a time, and finally a single
// note carrying the head of the reply. The first decodable array holding a
// record wins; otherwise the first decodable array is used as is.
func Analyze(raw string) Report {
	var (
		first   []json.RawMessage
		decoded bool
	)
	for _, span := range arraySpans(raw) {
		elements, ok := decodeArray(span)
		if !ok {
			continue
		}
		if holdsRecord(elements) {
			return Report{Findings: mapElements(elements), Strategy: StrategyWholeArray}
		}
		if !decoded {
			first, decoded = elements, true
		}
	}

	if decoded {
		if len(first) == 0 {
			return fallback(raw, ReasonEmptyAnalysis, model.ParseFailureEmptyArray)
		}
		return Report{Findings: mapElements(first), Strategy: StrategyWholeArray}
	}

	if chunks := splitRecords(raw); len(chunks) > 0 {
		return recoverRecords(chunks)
	}

	return fallback(raw, ReasonUnparseable, model.ParseFailureNoStructureFound)
}

func decodeArray(span string) ([]json.RawMessage, bool) {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(stripFences(span)), &elements); err != nil {
		return nil, false
	}
	return elements, true
}

func holdsRecord(elements []json.RawMessage) bool {
	for _, el := range elements {
		if trimmed := bytes.TrimSpace(el); len(trimmed) > 0 && trimmed[0] == '{' {
			return true
		}
	}
	return false
}

func fallback(raw, reason string, failure model.ParseFailureReason) Report {
	return Report{
		Findings: []model.Finding{
			model.NewNonContractNote(reason, model.Truncate(raw, model.MaxFragmentLength)),
		},
		Strategy: StrategyFallback,
		Failure:  failure,
	}
}

func mapElements(elements []json.RawMessage) []model.Finding {
	findings := make([]model.Finding, 0, len(elements))
	for _, el := range elements {
		findings = append(findings, mapElement(el))
	}
	return findings
}

func mapElement(el json.RawMessage) model.Finding {
	trimmed := bytes.TrimSpace(el)

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return model.NewNonContractNote(ReasonModelMessage, model.Truncate(text, model.MaxFragmentLength))
		}
	}

	var record map[string]any
	if err := json.Unmarshal(trimmed, &record); err != nil || record == nil {
		return model.NewNonContractNote(ReasonUnrecognized, model.Truncate(string(trimmed), model.MaxFragmentLength))
	}

	if clause, err := riskyClause(record); err == nil {
		return clause
	}

	if isContract, ok := record["isContract"].(bool); ok && !isContract {
		reason := stringField(record, "reason")
		if reason == "" {
			reason = ReasonNotContract
		}
		return model.NewNonContractNote(reason, stringField(record, "summary"))
	}

	if _, ok := record["clause"]; ok {
		return model.NewNonContractNote(ReasonIncompleteEntry, model.Truncate(string(trimmed), model.MaxFragmentLength))
	}
	return model.NewNonContractNote(ReasonUnrecognized, model.Truncate(string(trimmed), model.MaxFragmentLength))
}

func recoverRecords(chunks []string) Report {
	report := Report{
		Findings: make([]model.Finding, 0, len(chunks)),
		Strategy: StrategyRecordRecovery,
	}

	for _, chunk := range chunks {
		candidate := chunk
		if !strings.HasSuffix(candidate, "}") {
			candidate += "}"
		}

		var record map[string]any
		if err := json.Unmarshal([]byte(candidate), &record); err == nil {
			if _, hasClause := record["clause"]; hasClause {
				if clause, err := riskyClause(record); err == nil {
					report.Findings = append(report.Findings, clause)
					continue
				}
			}
		}

		report.Findings = append(report.Findings, model.NewUnparsedFragment(chunk, model.ParseFailureChunkUnparseable))
		report.Failure = model.ParseFailureChunkUnparseable
	}

	return report
}

func riskyClause(record map[string]any) (model.RiskyClause, error) {
	return model.NewRiskyClause(
		stringField(record, "clause"),
		stringField(record, "risk"),
		stringField(record, "suggestion"),
	)
}

func stringField(record map[string]any, key string) string {
	s, _ := record[key].(string)
	return strings.TrimSpace(s)
}
