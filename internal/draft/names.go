package draft

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"clausewise.app/review/internal/model"
)

const (
	DefaultCounterpart = "the company"
	DefaultAuthor      = "your team"
)

// Two or more capitalized words separated by spaces on one line.
var capitalizedPhrase = regexp.MustCompile(`\b[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)+\b`)

// CounterpartName guesses who the contract is with: the first capitalized
// multi-word phrase in documentText, then in the first risky clause.
func CounterpartName(documentText string, findings []model.Finding) string {
	if name := capitalizedPhrase.FindString(documentText); name != "" {
		return normalizeSpaces(name)
	}
	if clauses := model.RiskyClauses(findings); len(clauses) > 0 {
		if name := capitalizedPhrase.FindString(clauses[0].Clause()); name != "" {
			return normalizeSpaces(name)
		}
	}
	return DefaultCounterpart
}

// AuthorName derives a display name from the local part of email,
// e.g. "jane.doe@x.com" becomes "Jane Doe".
func AuthorName(email string) string {
	local, _, found := strings.Cut(strings.TrimSpace(email), "@")
	if !found {
		return DefaultAuthor
	}

	var parts []string
	for _, token := range strings.Split(local, ".") {
		if token == "" {
			continue
		}
		parts = append(parts, capitalize(token))
	}
	if len(parts) == 0 {
		return DefaultAuthor
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
