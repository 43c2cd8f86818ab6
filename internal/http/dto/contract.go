package dto

import (
	"clausewise.app/review/internal/model"
	"clausewise.app/review/internal/service"
)

type TaskOptions struct {
	DueDate       string   `json:"due_date,omitempty" form:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Status        string   `json:"status,omitempty" form:"status" binding:"omitempty,max=100"`
	AssigneeEmail string   `json:"assignee_email,omitempty" form:"assignee_email" binding:"omitempty,email,max=255"`
	Priority      string   `json:"priority,omitempty" form:"priority" binding:"omitempty,max=20"`
	TaskTypes     []string `json:"task_type,omitempty" form:"task_type" binding:"omitempty,max=20,dive,min=1,max=100"`
	EffortLevel   string   `json:"effort_level,omitempty" form:"effort_level" binding:"omitempty,max=20"`
}

type AnalyzeContractRequest struct {
	Text         string      `json:"text" binding:"required"`
	Email        string      `json:"email,omitempty" binding:"omitempty,email,max=255"`
	IncludeDraft bool        `json:"include_draft"`
	CreateTask   bool        `json:"create_task"`
	Task         TaskOptions `json:"task"`
}

// UploadContractRequest carries the form fields sent alongside an uploaded
// contract file. Task options are flattened into the form.
type UploadContractRequest struct {
	Email        string `form:"email" binding:"omitempty,email,max=255"`
	IncludeDraft bool   `form:"include_draft"`
	CreateTask   bool   `form:"create_task"`
	TaskOptions
}

func (o TaskOptions) ToInput(includeDraft bool) model.TaskConfigInput {
	return model.TaskConfigInput{
		DueDate:       o.DueDate,
		Status:        o.Status,
		AssigneeEmail: o.AssigneeEmail,
		Priority:      o.Priority,
		TaskTypes:     o.TaskTypes,
		EffortLevel:   o.EffortLevel,
		IncludeDraft:  includeDraft,
	}
}

func (r AnalyzeContractRequest) ToSubmission() service.Submission {
	return service.Submission{
		Text:       r.Text,
		Email:      r.Email,
		CreateTask: r.CreateTask,
		Task:       r.Task.ToInput(r.IncludeDraft),
	}
}

func (r UploadContractRequest) ToSubmission(text string) service.Submission {
	return service.Submission{
		Text:       text,
		Email:      r.Email,
		CreateTask: r.CreateTask,
		Task:       r.TaskOptions.ToInput(r.IncludeDraft),
	}
}

type SubmissionResponse struct {
	SubmissionID int64                `json:"submission_id,string"`
	Analysis     model.AnalysisResult `json:"analysis"`
	Draft        service.StageOutcome `json:"draft"`
	Task         service.StageOutcome `json:"task"`
}

func ToSubmissionResponse(r *service.SubmissionResult) *SubmissionResponse {
	return &SubmissionResponse{
		SubmissionID: r.SubmissionID,
		Analysis:     r.Analysis,
		Draft:        r.Draft,
		Task:         r.Task,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
