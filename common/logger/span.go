package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "clausewise-review"

// SpanContext pairs a span with the context it was started in.
type SpanContext struct {
	ctx  context.Context
	span trace.Span
}

// StartSpan starts a child span of whatever trace ctx carries.
//
//	sc := logger.StartSpan(ctx, "llm.generate", trace.WithSpanKind(trace.SpanKindClient))
//	defer sc.End()
//	ctx = sc.Context()
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) *SpanContext {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &SpanContext{ctx: ctx, span: span}
}

// StartStage opens the span for one pipeline stage ("analysis", "draft",
// "task") and tags both the span and the context's log fields with it.
func StartStage(ctx context.Context, stage string) *SpanContext {
	ctx = WithLogFields(ctx, LogFields{Stage: Ptr(stage)})
	sc := StartSpan(ctx, "review."+stage, trace.WithAttributes(attribute.String("review.stage", stage)))
	if fields := GetLogFields(ctx); fields.SubmissionID != nil {
		sc.span.SetAttributes(attribute.Int64("review.submission_id", *fields.SubmissionID))
	}
	return sc
}

func (sc *SpanContext) Context() context.Context {
	return sc.ctx
}

// End completes the span. Further calls are no-ops.
func (sc *SpanContext) End() {
	if sc.span != nil {
		sc.span.End()
	}
}

// RecordError records err on the span and marks the span failed.
func (sc *SpanContext) RecordError(err error) {
	if sc.span == nil || err == nil {
		return
	}
	sc.span.RecordError(err)
	sc.span.SetStatus(codes.Error, err.Error())
}

// SetAttributes annotates the span.
func (sc *SpanContext) SetAttributes(attrs ...attribute.KeyValue) {
	if sc.span != nil {
		sc.span.SetAttributes(attrs...)
	}
}

func (sc *SpanContext) Span() trace.Span {
	return sc.span
}
