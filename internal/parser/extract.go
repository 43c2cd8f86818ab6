package parser

import "strings"

var fenceStripper = strings.NewReplacer("```json", "", "```", "")

const maxArraySpans = 32

// arraySpans returns the array-like spans of s in order of appearance. Each
// top-level '[' contributes the span up to its matching ']' (brackets inside
// JSON strings are ignored). The greedy span from the first '[' to the last
// ']' comes last, so unbalanced replies still yield a candidate.
func arraySpans(s string) []string {
	first := strings.IndexByte(s, '[')
	if first < 0 {
		return nil
	}

	var spans []string
	for start := first; start >= 0 && len(spans) < maxArraySpans; {
		next := start + 1
		if end, ok := matchBracket(s, start); ok {
			spans = append(spans, s[start:end+1])
			next = end + 1
		}
		rel := strings.IndexByte(s[next:], '[')
		if rel < 0 {
			break
		}
		start = next + rel
	}

	if last := strings.LastIndexByte(s, ']'); last > first {
		greedy := s[first : last+1]
		if len(spans) == 0 || spans[len(spans)-1] != greedy {
			spans = append(spans, greedy)
		}
	}
	return spans
}

func matchBracket(s string, start int) (int, bool) {
	var sc scanner
	depth := 0
	for p := start; p < len(s); p++ {
		if !sc.structural(s[p]) {
			continue
		}
		switch s[p] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return p, true
			}
		}
	}
	return 0, false
}

func stripFences(s string) string {
	return strings.TrimSpace(fenceStripper.Replace(s))
}

// splitRecords cuts s into record candidates. Each candidate starts at a '{'
// and ends at the earliest of: the brace that closes it, a ',' followed by the
// opening brace of the next record, the ']' closing the surrounding array, or
// the end of input.
func splitRecords(s string) []string {
	var chunks []string
	for i := 0; i < len(s); {
		rel := strings.IndexByte(s[i:], '{')
		if rel < 0 {
			break
		}
		start := i + rel
		end := recordEnd(s, start)
		if chunk := strings.TrimSpace(s[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		i = end
	}
	return chunks
}

func recordEnd(s string, start int) int {
	var sc scanner
	braces, brackets := 0, 0
	for p := start; p < len(s); p++ {
		if !sc.structural(s[p]) {
			continue
		}
		switch s[p] {
		case '{':
			braces++
		case '}':
			braces--
			if braces == 0 {
				return p + 1
			}
		case '[':
			brackets++
		case ']':
			if brackets == 0 {
				return p
			}
			brackets--
		case ',':
			if brackets == 0 && nextNonSpace(s, p+1) == '{' {
				return p
			}
		}
	}
	return len(s)
}

func nextNonSpace(s string, from int) byte {
	for p := from; p < len(s); p++ {
		switch s[p] {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return s[p]
	}
	return 0
}

// scanner tracks whether the current byte sits inside a JSON string literal.
type scanner struct {
	inString bool
	escaped  bool
}

// structural reports whether ch is outside any string literal, updating the
// string state as it goes. Quote characters themselves are never structural.
func (sc *scanner) structural(ch byte) bool {
	if sc.inString {
		switch {
		case sc.escaped:
			sc.escaped = false
		case ch == '\\':
			sc.escaped = true
		case ch == '"':
			sc.inString = false
		}
		return false
	}
	if ch == '"' {
		sc.inString = true
		return false
	}
	return true
}
