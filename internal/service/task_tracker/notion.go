package task_tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clausewise.app/review/internal/model"
	"clausewise.app/review/internal/task"
	"github.com/jomei/notionapi"
)

const ProviderNotion = "notion"

// Database property names the review task database is expected to have.
const (
	notionPropTitle       = "Task name"
	notionPropStatus      = "Status"
	notionPropAssignee    = "Assignee"
	notionPropDueDate     = "Due date"
	notionPropPriority    = "Priority"
	notionPropTaskType    = "Task type"
	notionPropEffortLevel = "Effort level"
)

const notionUsersPageSize = 100

type notionTracker struct {
	client     *notionapi.Client
	databaseID notionapi.DatabaseID
}

func NewNotionTracker(token, databaseID string) Tracker {
	return &notionTracker{
		client:     notionapi.NewClient(notionapi.Token(token), notionapi.WithRetry(1)),
		databaseID: notionapi.DatabaseID(databaseID),
	}
}

func (t *notionTracker) Name() string {
	return ProviderNotion
}

// LookupUser pages through the workspace members and matches on email.
func (t *notionTracker) LookupUser(ctx context.Context, email string) (string, bool, error) {
	var cursor notionapi.Cursor
	for {
		resp, err := t.client.User.List(ctx, &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    notionUsersPageSize,
		})
		if err != nil {
			return "", false, fmt.Errorf("listing notion users: %w", err)
		}

		for _, u := range resp.Results {
			if u.Person != nil && strings.EqualFold(u.Person.Email, email) {
				return string(u.ID), true, nil
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return "", false, nil
		}
		cursor = resp.NextCursor
	}
}

func (t *notionTracker) CreateTask(ctx context.Context, record task.Record) (*CreatedTask, error) {
	page, err := t.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: t.databaseID,
		},
		Properties: NotionProperties(record.Properties),
		Children:   NotionBlocks(record.Content),
	})
	if err != nil {
		return nil, fmt.Errorf("creating notion page: %w", err)
	}

	slog.InfoContext(ctx, "notion page created",
		"page_id", page.ID,
		"blocks", len(record.Content))

	return &CreatedTask{
		ID:  string(page.ID),
		URL: page.URL,
	}, nil
}

func NotionProperties(p task.Properties) notionapi.Properties {
	props := notionapi.Properties{
		notionPropTitle: notionapi.TitleProperty{
			Title: richText(p.Title),
		},
		notionPropStatus: notionapi.StatusProperty{
			Status: notionapi.Status{Name: p.Status},
		},
		notionPropPriority: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(p.Priority)},
		},
		notionPropEffortLevel: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(p.EffortLevel)},
		},
	}

	taskTypes := make([]notionapi.Option, 0, len(p.TaskTypes))
	for _, tt := range p.TaskTypes {
		taskTypes = append(taskTypes, notionapi.Option{Name: tt})
	}
	props[notionPropTaskType] = notionapi.MultiSelectProperty{MultiSelect: taskTypes}

	if due, err := time.Parse(model.DateLayout, p.DueDate); err == nil {
		start := notionapi.Date(due)
		props[notionPropDueDate] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &start},
		}
	}

	people := make([]notionapi.User, 0, len(p.Assignees))
	for _, id := range p.Assignees {
		people = append(people, notionapi.User{ID: notionapi.UserID(id)})
	}
	props[notionPropAssignee] = notionapi.PeopleProperty{People: people}

	return props
}

func NotionBlocks(content []task.ContentBlock) []notionapi.Block {
	blocks := make([]notionapi.Block, 0, len(content))
	for _, c := range content {
		switch c.Type {
		case task.BlockHeading:
			blocks = append(blocks, &notionapi.Heading2Block{
				BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeHeading2},
				Heading2:   notionapi.Heading{RichText: richText(c.Text)},
			})
		case task.BlockParagraph:
			blocks = append(blocks, &notionapi.ParagraphBlock{
				BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeParagraph},
				Paragraph:  notionapi.Paragraph{RichText: richText(c.Text)},
			})
		case task.BlockListItem:
			blocks = append(blocks, &notionapi.BulletedListItemBlock{
				BasicBlock:       notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeBulletedListItem},
				BulletedListItem: notionapi.ListItem{RichText: richText(c.Text)},
			})
		}
	}
	return blocks
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}
