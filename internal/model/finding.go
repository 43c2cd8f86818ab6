package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxFragmentLength bounds the raw text carried by placeholder findings.
const MaxFragmentLength = 400

const truncationMarker = "..."

type FindingKind string

const (
	FindingKindRiskyClause      FindingKind = "risky_clause"
	FindingKindNonContractNote  FindingKind = "non_contract_note"
	FindingKindUnparsedFragment FindingKind = "unparsed_fragment"
)

type ParseFailureReason string

const (
	ParseFailureChunkUnparseable ParseFailureReason = "chunk_unparseable"
	ParseFailureEmptyArray       ParseFailureReason = "empty_array"
	ParseFailureNoStructureFound ParseFailureReason = "no_structure_found"
)

// Finding is one structured unit of analysis output. The set of
// implementations is closed: RiskyClause, NonContractNote and UnparsedFragment.
type Finding interface {
	Kind() FindingKind
	json.Marshaler
	sealed()
}

// RiskyClause is a contract clause the model flagged, with the risk it
// carries and a suggested remediation. All three fields are non-empty.
type RiskyClause struct {
	clause     string
	risk       string
	suggestion string
}

// NewRiskyClause trims the inputs and rejects the clause if any field is empty.
func NewRiskyClause(clause, risk, suggestion string) (RiskyClause, error) {
	c := RiskyClause{
		clause:     strings.TrimSpace(clause),
		risk:       strings.TrimSpace(risk),
		suggestion: strings.TrimSpace(suggestion),
	}

	var missing []string
	if c.clause == "" {
		missing = append(missing, "clause")
	}
	if c.risk == "" {
		missing = append(missing, "risk")
	}
	if c.suggestion == "" {
		missing = append(missing, "suggestion")
	}
	if len(missing) > 0 {
		return RiskyClause{}, fmt.Errorf("risky clause missing %s", strings.Join(missing, ", "))
	}

	return c, nil
}

func (c RiskyClause) Kind() FindingKind  { return FindingKindRiskyClause }
func (c RiskyClause) Clause() string     { return c.clause }
func (c RiskyClause) Risk() string       { return c.risk }
func (c RiskyClause) Suggestion() string { return c.suggestion }
func (RiskyClause) sealed()              {}

func (c RiskyClause) MarshalJSON() ([]byte, error) {
	return json.Marshal(WireFinding{
		Kind:       c.Kind(),
		Clause:     c.clause,
		Risk:       c.risk,
		Suggestion: c.suggestion,
	})
}

// NonContractNote explains why the input was not treated as a contract, or
// why no structured analysis could be produced.
type NonContractNote struct {
	reason  string
	summary string
}

func NewNonContractNote(reason, summary string) NonContractNote {
	return NonContractNote{reason: reason, summary: summary}
}

func (n NonContractNote) Kind() FindingKind { return FindingKindNonContractNote }
func (n NonContractNote) Reason() string    { return n.reason }
func (n NonContractNote) Summary() string   { return n.summary }
func (NonContractNote) sealed()             {}

func (n NonContractNote) MarshalJSON() ([]byte, error) {
	isContract := false
	return json.Marshal(WireFinding{
		Kind:       n.Kind(),
		IsContract: &isContract,
		Reason:     n.reason,
		Summary:    n.summary,
	})
}

// UnparsedFragment preserves a piece of the model reply that could not be
// decoded. The raw text is truncated to MaxFragmentLength characters.
type UnparsedFragment struct {
	rawText    string
	reasonCode ParseFailureReason
}

func NewUnparsedFragment(rawText string, reason ParseFailureReason) UnparsedFragment {
	return UnparsedFragment{
		rawText:    Truncate(rawText, MaxFragmentLength),
		reasonCode: reason,
	}
}

func (f UnparsedFragment) Kind() FindingKind              { return FindingKindUnparsedFragment }
func (f UnparsedFragment) RawText() string                { return f.rawText }
func (f UnparsedFragment) ReasonCode() ParseFailureReason { return f.reasonCode }
func (UnparsedFragment) sealed()                          {}

func (f UnparsedFragment) MarshalJSON() ([]byte, error) {
	return json.Marshal(WireFinding{
		Kind:       f.Kind(),
		RawText:    f.rawText,
		ReasonCode: f.reasonCode,
	})
}

// WireFinding is the JSON shape every finding is serialized to. Kind
// discriminates which of the remaining fields are populated.
type WireFinding struct {
	Kind       FindingKind        `json:"kind" jsonschema:"required,enum=risky_clause,enum=non_contract_note,enum=unparsed_fragment"`
	Clause     string             `json:"clause,omitempty" jsonschema:"description=Clause text (risky_clause)"`
	Risk       string             `json:"risk,omitempty" jsonschema:"description=Plain-language risk (risky_clause)"`
	Suggestion string             `json:"suggestion,omitempty" jsonschema:"description=Suggested improvement (risky_clause)"`
	IsContract *bool              `json:"is_contract,omitempty" jsonschema:"description=Always false for non_contract_note"`
	Reason     string             `json:"reason,omitempty" jsonschema:"description=Why the document was not analyzed as a contract (non_contract_note)"`
	Summary    string             `json:"summary,omitempty" jsonschema:"description=Summary of the document or of the raw reply (non_contract_note)"`
	RawText    string             `json:"raw_text,omitempty" jsonschema:"description=Unparsed reply text truncated to 400 characters (unparsed_fragment)"`
	ReasonCode ParseFailureReason `json:"reason_code,omitempty" jsonschema:"enum=chunk_unparseable,enum=empty_array,enum=no_structure_found"`
}

// RiskyClauses returns the risky clauses in findings, in order.
func RiskyClauses(findings []Finding) []RiskyClause {
	var clauses []RiskyClause
	for _, f := range findings {
		if c, ok := f.(RiskyClause); ok {
			clauses = append(clauses, c)
		}
	}
	return clauses
}

// Truncate cuts s to at most maxLen characters and appends "..." when anything
// was removed.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + truncationMarker
}
