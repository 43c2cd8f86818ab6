package logger

import (
	"context"
	"unicode/utf8"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so every log statement issued while
// handling a submission carries its submission id without passing it around.
type LogFields struct {
	SubmissionID *int64  // Snowflake id assigned when the submission is accepted
	Stage        *string // Pipeline stage ("analysis", "draft", "task")
	Prompt       *string // Prompt identity ("analysis", "draft")
	Provider     *string // LLM provider
	Tracker      *string // Task tracker ("notion", "gitlab")
	Component    string  // Component name (OTel semantic convention style, e.g., "review.service")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.SubmissionID != nil {
		result.SubmissionID = new.SubmissionID
	}
	if new.Stage != nil {
		result.Stage = new.Stage
	}
	if new.Prompt != nil {
		result.Prompt = new.Prompt
	}
	if new.Provider != nil {
		result.Provider = new.Provider
	}
	if new.Tracker != nil {
		result.Tracker = new.Tracker
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{SubmissionID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging potentially long strings like raw model replies.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
