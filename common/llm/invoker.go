package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"clausewise.app/review/common/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout         = 15 * time.Second
	DefaultMaxOutputTokens = 4000
	DefaultTemperature     = 0.7
)

type InvokerConfig struct {
	Timeout         time.Duration
	MaxOutputTokens int
	Temperature     *float64
}

// Invoker wraps a Client with a per-call timeout and maps every failure to an
// *InvocationError. It never retries.
type Invoker struct {
	client      Client
	timeout     time.Duration
	maxTokens   int
	temperature float64
}

func NewInvoker(client Client, cfg InvokerConfig) *Invoker {
	inv := &Invoker{
		client:      client,
		timeout:     cfg.Timeout,
		maxTokens:   cfg.MaxOutputTokens,
		temperature: DefaultTemperature,
	}
	if inv.timeout <= 0 {
		inv.timeout = DefaultTimeout
	}
	if inv.maxTokens <= 0 {
		inv.maxTokens = DefaultMaxOutputTokens
	}
	if cfg.Temperature != nil {
		inv.temperature = *cfg.Temperature
	}
	return inv
}

type generateResult struct {
	resp *GenerateResponse
	err  error
}

// Invoke issues one generation call for prompt and returns the raw reply text.
// The call races a timer; when the timer wins the call is abandoned and a
// timeout is reported.
func (i *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Provider: logger.Ptr(i.client.Provider())})
	sc := logger.StartSpan(ctx, "llm.generate", trace.WithSpanKind(trace.SpanKindClient))
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.String("llm.provider", i.client.Provider()),
		attribute.String("llm.model", i.client.Model()),
		attribute.Int("llm.prompt_length", len(prompt)),
	)

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req := GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   i.maxTokens,
		Temperature: Temp(i.temperature),
	}

	done := make(chan generateResult, 1)
	go func() {
		resp, err := i.client.Generate(callCtx, req)
		done <- generateResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(i.timeout)
	defer timer.Stop()

	start := time.Now()
	select {
	case r := <-done:
		if r.err != nil {
			return "", i.fail(ctx, sc, r.err, start)
		}
		if r.resp == nil || r.resp.Candidates == 0 || strings.TrimSpace(r.resp.Text) == "" {
			return "", i.fail(ctx, sc, ErrEmptyResponse, start)
		}
		sc.SetAttributes(
			attribute.Int("llm.prompt_tokens", r.resp.PromptTokens),
			attribute.Int("llm.completion_tokens", r.resp.CompletionTokens),
		)
		return r.resp.Text, nil
	case <-timer.C:
		return "", i.fail(ctx, sc, ErrTimedOut, start)
	case <-ctx.Done():
		return "", i.fail(ctx, sc, ctx.Err(), start)
	}
}

func (i *Invoker) fail(ctx context.Context, sc *logger.SpanContext, err error, start time.Time) *InvocationError {
	invErr := &InvocationError{
		Kind:     Classify(err),
		Provider: i.client.Provider(),
		Err:      err,
	}
	sc.RecordError(invErr)
	slog.WarnContext(ctx, "llm invocation failed",
		"provider", invErr.Provider,
		"model", i.client.Model(),
		"kind", invErr.Kind,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err)
	return invErr
}

func (i *Invoker) Timeout() time.Duration {
	return i.timeout
}

func (i *Invoker) Model() string {
	return i.client.Model()
}
