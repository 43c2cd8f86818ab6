package draft

import (
	"context"
	"fmt"
	"log/slog"

	"clausewise.app/review/common/logger"
	"clausewise.app/review/internal/model"
	"clausewise.app/review/internal/prompt"
)

// Invoker issues one model call and returns the raw reply.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

type Synthesizer struct {
	invoker Invoker
}

func NewSynthesizer(invoker Invoker) *Synthesizer {
	return &Synthesizer{invoker: invoker}
}

// Synthesize asks the model for a renegotiation message covering the risky
// clauses in findings. assigneeEmail and documentText may be empty. The reply
// is returned as-is.
func (s *Synthesizer) Synthesize(ctx context.Context, findings []model.Finding, assigneeEmail, documentText string) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "review.draft",
		Prompt:    logger.Ptr(string(prompt.NameDraft)),
	})

	counterpart := CounterpartName(documentText, findings)
	author := AuthorName(assigneeEmail)

	slog.DebugContext(ctx, "synthesizing negotiation draft",
		"counterpart", counterpart,
		"author", author,
		"risky_clauses", len(model.RiskyClauses(findings)))

	text, err := s.invoker.Invoke(ctx, prompt.BuildDraft(findings, counterpart, author))
	if err != nil {
		return "", fmt.Errorf("invoking draft model: %w", err)
	}
	return text, nil
}
