package task

import (
	"clausewise.app/review/internal/model"
)

const DefaultTitle = "Contract Review & Renegotiation Task"

// Properties are the typed fields of a task record.
type Properties struct {
	Title         string            `json:"title"`
	Status        string            `json:"status"`
	DueDate       string            `json:"due_date"`
	Priority      model.Priority    `json:"priority"`
	TaskTypes     []string          `json:"task_type"`
	EffortLevel   model.EffortLevel `json:"effort_level"`
	AssigneeEmail string            `json:"assignee_email,omitempty"`
	// Assignees holds tracker account ids. Empty when no assignee was given
	// or the directory had no match.
	Assignees []string `json:"assignees"`
}

// BuildProperties copies cfg into a property set with no assignees resolved.
func BuildProperties(cfg model.TaskConfig) Properties {
	props := Properties{
		Title:       DefaultTitle,
		Status:      cfg.Status,
		DueDate:     cfg.DueDateString(),
		Priority:    cfg.Priority,
		TaskTypes:   append([]string{}, cfg.TaskTypes...),
		EffortLevel: cfg.EffortLevel,
		Assignees:   []string{},
	}
	if cfg.AssigneeEmail != nil {
		props.AssigneeEmail = *cfg.AssigneeEmail
	}
	return props
}
