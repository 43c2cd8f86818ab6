package task_tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clausewise.app/review/internal/model"
	"clausewise.app/review/internal/task"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const ProviderGitLab = "gitlab"

type gitLabTracker struct {
	client    *gitlab.Client
	projectID string
}

func NewGitLabTracker(baseURL, token, projectID string) (Tracker, error) {
	client, err := newGitLabClient(baseURL, token)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}
	return &gitLabTracker{
		client:    client,
		projectID: projectID,
	}, nil
}

func (t *gitLabTracker) Name() string {
	return ProviderGitLab
}

// LookupUser returns the username of the account registered under email. An
// exact email match wins; otherwise a single search hit is accepted.
func (t *gitLabTracker) LookupUser(ctx context.Context, email string) (string, bool, error) {
	users, _, err := t.client.Users.ListUsers(&gitlab.ListUsersOptions{
		Search: gitlab.Ptr(email),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return "", false, fmt.Errorf("searching gitlab users: %w", err)
	}

	for _, u := range users {
		if strings.EqualFold(u.Email, email) || strings.EqualFold(u.PublicEmail, email) {
			return u.Username, true, nil
		}
	}
	if len(users) == 1 {
		return users[0].Username, true, nil
	}
	return "", false, nil
}

func (t *gitLabTracker) CreateTask(ctx context.Context, record task.Record) (*CreatedTask, error) {
	opts := &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(record.Properties.Title),
		Description: gitlab.Ptr(RenderMarkdown(record)),
		Labels:      gitlab.Ptr(gitlab.LabelOptions(issueLabels(record.Properties))),
	}
	if due, err := time.Parse(model.DateLayout, record.Properties.DueDate); err == nil {
		opts.DueDate = gitlab.Ptr(gitlab.ISOTime(due))
	}

	issue, _, err := t.client.Issues.CreateIssue(t.projectID, opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("creating gitlab issue: %w", err)
	}

	slog.InfoContext(ctx, "gitlab issue created",
		"project_id", t.projectID,
		"issue_iid", issue.IID,
		"labels", len(*opts.Labels))

	return &CreatedTask{
		ID:  fmt.Sprintf("%s#%d", t.projectID, issue.IID),
		URL: issue.WebURL,
	}, nil
}

// RenderMarkdown turns a task record into an issue description. Assignees are
// appended as quick actions.
func RenderMarkdown(record task.Record) string {
	var sb strings.Builder
	for _, block := range record.Content {
		switch block.Type {
		case task.BlockHeading:
			sb.WriteString("## " + block.Text + "\n\n")
		case task.BlockParagraph:
			sb.WriteString(block.Text + "\n\n")
		case task.BlockListItem:
			sb.WriteString("- " + block.Text + "\n")
		}
	}

	text := strings.TrimRight(sb.String(), "\n") + "\n"
	for _, username := range record.Properties.Assignees {
		text += "\n/assign @" + username
	}
	return text
}

func issueLabels(p task.Properties) []string {
	labels := []string{
		"status::" + p.Status,
		"priority::" + string(p.Priority),
		"effort::" + string(p.EffortLevel),
	}
	for _, t := range p.TaskTypes {
		labels = append(labels, "type::"+t)
	}
	return labels
}

func newGitLabClient(baseURL string, token string) (*gitlab.Client, error) {
	if baseURL == "" {
		return gitlab.NewClient(token, gitlab.WithoutRetries())
	}
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v4"
	return gitlab.NewClient(token, gitlab.WithBaseURL(apiURL), gitlab.WithoutRetries())
}
