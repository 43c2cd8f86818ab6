package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clausewise.app/review/common/id"
	"clausewise.app/review/common/llm"
	"clausewise.app/review/common/logger"
	"clausewise.app/review/internal/draft"
	"clausewise.app/review/internal/model"
	"clausewise.app/review/internal/parser"
	"clausewise.app/review/internal/prompt"
	"clausewise.app/review/internal/service/task_tracker"
	"clausewise.app/review/internal/task"
	"go.opentelemetry.io/otel/attribute"
)

const rawReplyLogLimit = 2000

// Submission is one request to review a document.
type Submission struct {
	Text       string
	Email      string // requester, used for personalization only
	CreateTask bool
	Task       model.TaskConfigInput
}

type StageStatus string

const (
	StageSkipped   StageStatus = "skipped"
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
)

// StageOutcome reports a stage that runs after analysis. Its failure never
// changes the analysis result.
type StageOutcome struct {
	Status         StageStatus               `json:"status"`
	Error          string                    `json:"error,omitempty"`
	Text           string                    `json:"text,omitempty"`
	Task           *task_tracker.CreatedTask `json:"task,omitempty"`
	AssigneeLookup task.LookupStatus         `json:"assignee_lookup,omitempty"`
}

type SubmissionResult struct {
	SubmissionID int64                `json:"submission_id,string"`
	Analysis     model.AnalysisResult `json:"analysis"`
	Draft        StageOutcome         `json:"draft"`
	Task         StageOutcome         `json:"task"`
	// AnalysisError is set when the analysis call failed.
	AnalysisError *llm.InvocationError `json:"-"`
}

type ReviewService interface {
	Submit(ctx context.Context, sub Submission) (*SubmissionResult, error)
}

// Invoker issues one model call and returns the raw reply.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

type reviewService struct {
	invoker     Invoker
	synthesizer *draft.Synthesizer
	assembler   *task.Assembler
	tracker     task_tracker.Tracker
	// timeout bounds each tracker call: the directory lookup and the create.
	timeout time.Duration
	now     func() time.Time
}

// NewReviewService wires the review pipeline. tracker may be nil, in which
// case task creation is reported as skipped.
func NewReviewService(invoker Invoker, tracker task_tracker.Tracker, trackerTimeout time.Duration) ReviewService {
	if trackerTimeout <= 0 {
		trackerTimeout = task.DefaultLookupTimeout
	}
	var directory task.Directory
	if tracker != nil {
		directory = tracker
	}
	return &reviewService{
		invoker:     invoker,
		synthesizer: draft.NewSynthesizer(invoker),
		assembler:   task.NewAssembler(directory, trackerTimeout),
		tracker:     tracker,
		timeout:     trackerTimeout,
		now:         time.Now,
	}
}

func (s *reviewService) Submit(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	text := strings.TrimSpace(sub.Text)
	if text == "" {
		return nil, &model.InputError{Field: "text", Reason: "document text is empty"}
	}

	var requester string
	if e := strings.TrimSpace(sub.Email); e != "" {
		addr, err := model.ParseEmail(e)
		if err != nil {
			return nil, &model.InputError{Field: "email", Reason: err.Error()}
		}
		requester = addr
	}

	cfg, err := model.NewTaskConfig(sub.Task, s.now())
	if err != nil {
		return nil, err
	}

	result := &SubmissionResult{
		SubmissionID: id.New(),
		Draft:        StageOutcome{Status: StageSkipped},
		Task:         StageOutcome{Status: StageSkipped},
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SubmissionID: logger.Ptr(result.SubmissionID),
		Component:    "review.service",
	})

	slog.InfoContext(ctx, "submission accepted",
		"text_length", len(text),
		"include_draft", cfg.IncludeDraft,
		"create_task", sub.CreateTask)

	analysis, invErr := s.analyze(ctx, text)
	result.Analysis = analysis
	if invErr != nil {
		result.AnalysisError = invErr
		return result, nil
	}

	findings := analysis.Findings()

	if cfg.IncludeDraft {
		assignee := requester
		if cfg.AssigneeEmail != nil {
			assignee = *cfg.AssigneeEmail
		}
		result.Draft = s.draft(ctx, findings, assignee, text)
	}

	if sub.CreateTask {
		result.Task = s.createTask(ctx, findings, cfg, result.Draft.Text)
	}

	return result, nil
}

func (s *reviewService) analyze(ctx context.Context, text string) (model.AnalysisResult, *llm.InvocationError) {
	sc := logger.StartStage(ctx, "analysis")
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		Prompt: logger.Ptr(string(prompt.NameAnalysis)),
	})

	raw, err := s.invoker.Invoke(ctx, prompt.BuildAnalysis(text))
	if err != nil {
		sc.RecordError(err)
		invErr := asInvocationError(err)
		slog.ErrorContext(ctx, "analysis call failed",
			"kind", invErr.Kind,
			"error", err)
		return model.NewAnalysisFailure(invErr.Message()), invErr
	}

	report := parser.Analyze(raw)
	sc.SetAttributes(
		attribute.String("parser.strategy", string(report.Strategy)),
		attribute.Int("parser.findings", len(report.Findings)),
	)
	if report.Failure != "" {
		slog.WarnContext(ctx, "model reply only partially parsed",
			"strategy", report.Strategy,
			"failure", report.Failure,
			"raw_reply", logger.Truncate(raw, rawReplyLogLimit))
	}

	slog.InfoContext(ctx, "analysis completed",
		"findings", len(report.Findings),
		"risky_clauses", len(model.RiskyClauses(report.Findings)),
		"strategy", report.Strategy)

	return model.NewAnalysisSuccess(report.Findings), nil
}

func (s *reviewService) draft(ctx context.Context, findings []model.Finding, assigneeEmail, text string) StageOutcome {
	if len(model.RiskyClauses(findings)) == 0 {
		slog.InfoContext(ctx, "no risky clauses, skipping negotiation draft")
		return StageOutcome{Status: StageSkipped}
	}

	sc := logger.StartStage(ctx, "draft")
	defer sc.End()
	ctx = sc.Context()

	body, err := s.synthesizer.Synthesize(ctx, findings, assigneeEmail, text)
	if err != nil {
		sc.RecordError(err)
		invErr := asInvocationError(err)
		slog.ErrorContext(ctx, "draft call failed",
			"kind", invErr.Kind,
			"error", err)
		return StageOutcome{Status: StageFailed, Error: invErr.Message()}
	}

	slog.InfoContext(ctx, "negotiation draft generated", "length", len(body))
	return StageOutcome{Status: StageSucceeded, Text: body}
}

func (s *reviewService) createTask(ctx context.Context, findings []model.Finding, cfg model.TaskConfig, draftText string) StageOutcome {
	if s.tracker == nil {
		slog.InfoContext(ctx, "task tracker not configured, skipping task creation")
		return StageOutcome{Status: StageSkipped, Error: task_tracker.ErrNotConfigured.Error()}
	}

	sc := logger.StartStage(ctx, "task")
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{Tracker: logger.Ptr(s.tracker.Name())})
	sc.SetAttributes(attribute.String("review.tracker", s.tracker.Name()))

	record := s.assembler.Assemble(ctx, findings, cfg, draftText)

	createCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.tracker.CreateTask(createCtx, record)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "task creation failed", "error", err)
		return StageOutcome{
			Status:         StageFailed,
			Error:          fmt.Sprintf("creating task: %v", err),
			AssigneeLookup: record.Lookup,
		}
	}

	slog.InfoContext(ctx, "task created",
		"task_id", created.ID,
		"assignee_lookup", record.Lookup)

	return StageOutcome{
		Status:         StageSucceeded,
		Task:           created,
		AssigneeLookup: record.Lookup,
	}
}

func asInvocationError(err error) *llm.InvocationError {
	var invErr *llm.InvocationError
	if errors.As(err, &invErr) {
		return invErr
	}
	return &llm.InvocationError{Kind: llm.Classify(err), Err: err}
}
