package task

import (
	"fmt"
	"unicode/utf8"

	"clausewise.app/review/internal/model"
)

// MaxChunkLength is the longest text a single leaf block may carry.
const MaxChunkLength = 2000

const (
	HeadingMeetingSchedule = "Renegotiation Meeting Schedule"
	HeadingClauses         = "Contract Clauses To Review"
	PlaceholderDraft       = "Meeting scheduled: Please review the proposed contract revisions and schedule a follow-up meeting."
)

type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockListItem  BlockType = "list_item"
)

// ContentBlock is one node of a task body. Leaf text never exceeds
// MaxChunkLength characters.
type ContentBlock struct {
	Type BlockType `json:"type"`
	Text string    `json:"text"`
}

// Chunk splits text into consecutive pieces of at most size characters.
// Joining the pieces gives back text exactly. Empty text yields no pieces.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = MaxChunkLength
	}

	var chunks []string
	for len(text) > 0 {
		if utf8.RuneCountInString(text) <= size {
			chunks = append(chunks, text)
			break
		}
		cut, n := 0, 0
		for cut < len(text) && n < size {
			_, w := utf8.DecodeRuneInString(text[cut:])
			cut += w
			n++
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return chunks
}

// BuildContentTree lays out the task body: the meeting heading, the draft
// split into paragraphs (or a placeholder when draft is empty), the clauses
// heading, and one list item per risky clause. Other findings are skipped.
func BuildContentTree(findings []model.Finding, draft string) []ContentBlock {
	blocks := []ContentBlock{{Type: BlockHeading, Text: HeadingMeetingSchedule}}

	if draft == "" {
		blocks = append(blocks, ContentBlock{Type: BlockParagraph, Text: PlaceholderDraft})
	}
	for _, chunk := range Chunk(draft, MaxChunkLength) {
		blocks = append(blocks, ContentBlock{Type: BlockParagraph, Text: chunk})
	}

	blocks = append(blocks, ContentBlock{Type: BlockHeading, Text: HeadingClauses})
	for _, c := range model.RiskyClauses(findings) {
		// A clause line past the leaf limit continues in the next list item.
		for _, chunk := range Chunk(ClauseLine(c), MaxChunkLength) {
			blocks = append(blocks, ContentBlock{Type: BlockListItem, Text: chunk})
		}
	}
	return blocks
}

func ClauseLine(c model.RiskyClause) string {
	return fmt.Sprintf("Clause: %s. Risk: %s. Suggestion: %s", c.Clause(), c.Risk(), c.Suggestion())
}
