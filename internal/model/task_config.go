package model

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

type EffortLevel string

const (
	EffortSmall  EffortLevel = "Small"
	EffortMedium EffortLevel = "Medium"
	EffortLarge  EffortLevel = "Large"
)

const (
	DefaultTaskStatus = "Not started"
	DefaultTaskType   = "Polish"
)

// TaskConfig controls how a task record is built for the tracking service.
// Build it with NewTaskConfig; the zero value is not meaningful.
type TaskConfig struct {
	DueDate       time.Time
	Status        string
	AssigneeEmail *string
	Priority      Priority
	TaskTypes     []string
	EffortLevel   EffortLevel
	IncludeDraft  bool
}

// TaskConfigInput carries caller-supplied, unvalidated task options. Empty
// fields take their defaults.
type TaskConfigInput struct {
	DueDate       string
	Status        string
	AssigneeEmail string
	Priority      string
	TaskTypes     []string
	EffortLevel   string
	IncludeDraft  bool
}

// NewTaskConfig validates in and fills defaults. today supplies the default
// due date so that construction is the only place the clock is read.
func NewTaskConfig(in TaskConfigInput, today time.Time) (TaskConfig, error) {
	cfg := TaskConfig{
		DueDate:      truncateToDate(today),
		Status:       DefaultTaskStatus,
		Priority:     PriorityHigh,
		TaskTypes:    []string{DefaultTaskType},
		EffortLevel:  EffortMedium,
		IncludeDraft: in.IncludeDraft,
	}

	if s := strings.TrimSpace(in.DueDate); s != "" {
		due, err := time.Parse(DateLayout, s)
		if err != nil {
			return TaskConfig{}, &InputError{Field: "due_date", Reason: fmt.Sprintf("expected YYYY-MM-DD, got %q", s)}
		}
		cfg.DueDate = due
	}

	if s := strings.TrimSpace(in.Status); s != "" {
		cfg.Status = s
	}

	if s := strings.TrimSpace(in.AssigneeEmail); s != "" {
		email, err := ParseEmail(s)
		if err != nil {
			return TaskConfig{}, &InputError{Field: "assignee_email", Reason: err.Error()}
		}
		cfg.AssigneeEmail = &email
	}

	if s := strings.TrimSpace(in.Priority); s != "" {
		p, ok := parsePriority(s)
		if !ok {
			return TaskConfig{}, &InputError{Field: "priority", Reason: fmt.Sprintf("must be one of High, Medium, Low; got %q", s)}
		}
		cfg.Priority = p
	}

	if s := strings.TrimSpace(in.EffortLevel); s != "" {
		e, ok := parseEffort(s)
		if !ok {
			return TaskConfig{}, &InputError{Field: "effort_level", Reason: fmt.Sprintf("must be one of Small, Medium, Large; got %q", s)}
		}
		cfg.EffortLevel = e
	}

	if types := dedupe(in.TaskTypes); len(types) > 0 {
		cfg.TaskTypes = types
	}

	return cfg, nil
}

// DueDateString formats the due date as YYYY-MM-DD.
func (c TaskConfig) DueDateString() string {
	return c.DueDate.Format(DateLayout)
}

// ParseEmail returns the bare address of s, or an error when s is not a
// single mailbox.
func ParseEmail(s string) (string, error) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", fmt.Errorf("invalid email address %q", s)
	}
	return addr.Address, nil
}

func parsePriority(s string) (Priority, bool) {
	for _, p := range []Priority{PriorityHigh, PriorityMedium, PriorityLow} {
		if strings.EqualFold(s, string(p)) {
			return p, true
		}
	}
	return "", false
}

func parseEffort(s string) (EffortLevel, bool) {
	for _, e := range []EffortLevel{EffortSmall, EffortMedium, EffortLarge} {
		if strings.EqualFold(s, string(e)) {
			return e, true
		}
	}
	return "", false
}

// dedupe trims values and drops blanks and repeats, keeping first-seen order.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
