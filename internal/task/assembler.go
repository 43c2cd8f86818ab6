package task

import (
	"context"
	"log/slog"
	"time"

	"clausewise.app/review/internal/model"
)

const DefaultLookupTimeout = 15 * time.Second

// Directory resolves a person's tracker account id from their email.
type Directory interface {
	LookupUser(ctx context.Context, email string) (accountID string, found bool, err error)
}

type LookupStatus string

const (
	LookupSkipped  LookupStatus = "skipped"
	LookupResolved LookupStatus = "resolved"
	LookupNotFound LookupStatus = "not_found"
	LookupFailed   LookupStatus = "failed"
)

// Record is everything a tracker needs to create one task.
type Record struct {
	Content    []ContentBlock `json:"content"`
	Properties Properties     `json:"properties"`
	Lookup     LookupStatus   `json:"assignee_lookup"`
}

type Assembler struct {
	directory     Directory
	lookupTimeout time.Duration
}

// NewAssembler returns an Assembler. directory may be nil, in which case
// assignees are never resolved.
func NewAssembler(directory Directory, lookupTimeout time.Duration) *Assembler {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	return &Assembler{
		directory:     directory,
		lookupTimeout: lookupTimeout,
	}
}

// Assemble builds the task record for findings. A failed or empty directory
// lookup leaves the assignee list empty and never fails assembly.
func (a *Assembler) Assemble(ctx context.Context, findings []model.Finding, cfg model.TaskConfig, draft string) Record {
	record := Record{
		Content:    BuildContentTree(findings, draft),
		Properties: BuildProperties(cfg),
		Lookup:     LookupSkipped,
	}

	if cfg.AssigneeEmail == nil || a.directory == nil {
		return record
	}

	record.Lookup = a.resolve(ctx, *cfg.AssigneeEmail, &record.Properties)
	return record
}

func (a *Assembler) resolve(ctx context.Context, email string, props *Properties) LookupStatus {
	lookupCtx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
	defer cancel()

	accountID, found, err := a.directory.LookupUser(lookupCtx, email)
	if err != nil {
		slog.WarnContext(ctx, "assignee lookup failed, leaving task unassigned",
			"email", email,
			"error", err)
		return LookupFailed
	}
	if !found || accountID == "" {
		slog.InfoContext(ctx, "no tracker account for assignee email", "email", email)
		return LookupNotFound
	}

	props.Assignees = []string{accountID}
	return LookupResolved
}
