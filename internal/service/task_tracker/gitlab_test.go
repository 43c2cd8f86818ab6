package task_tracker_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"clausewise.app/review/internal/model"
	"clausewise.app/review/internal/service/task_tracker"
	"clausewise.app/review/internal/task"
)

func sampleRecord(assignees ...string) task.Record {
	return task.Record{
		Content: []task.ContentBlock{
			{Type: task.BlockHeading, Text: task.HeadingMeetingSchedule},
			{Type: task.BlockParagraph, Text: "Dear Acme"},
			{Type: task.BlockHeading, Text: task.HeadingClauses},
			{Type: task.BlockListItem, Text: "Clause: A. Risk: B. Suggestion: C"},
		},
		Properties: task.Properties{
			Title:       task.DefaultTitle,
			Status:      "Not started",
			DueDate:     "2026-05-02",
			Priority:    model.PriorityHigh,
			TaskTypes:   []string{"Polish", "Legal"},
			EffortLevel: model.EffortMedium,
			Assignees:   append([]string{}, assignees...),
		},
	}
}

var _ = Describe("RenderMarkdown", func() {
	It("renders headings, paragraphs and list items", func() {
		Expect(task_tracker.RenderMarkdown(sampleRecord())).To(Equal(
			"## Renegotiation Meeting Schedule\n\n" +
				"Dear Acme\n\n" +
				"## Contract Clauses To Review\n\n" +
				"- Clause: A. Risk: B. Suggestion: C\n"))
	})

	It("appends assign quick actions", func() {
		Expect(task_tracker.RenderMarkdown(sampleRecord("jdoe"))).To(HaveSuffix("\n\n/assign @jdoe"))
	})
})

var _ = Describe("GitLab tracker", func() {
	var (
		ctx     context.Context
		server  *httptest.Server
		mux     *http.ServeMux
		tracker task_tracker.Tracker
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)

		var err error
		tracker, err = task_tracker.NewGitLabTracker(server.URL, "token", "42")
		Expect(err).NotTo(HaveOccurred())
		Expect(tracker.Name()).To(Equal(task_tracker.ProviderGitLab))
	})

	Describe("LookupUser", func() {
		It("prefers an exact email match", func() {
			mux.HandleFunc("/api/v4/users", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("search")).To(Equal("jane.doe@x.com"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `[
					{"id":1,"username":"janet","email":"janet@x.com"},
					{"id":2,"username":"jdoe","email":"Jane.Doe@x.com"}
				]`)
			})

			username, found, err := tracker.LookupUser(ctx, "jane.doe@x.com")

			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(username).To(Equal("jdoe"))
		})

		It("accepts a single search hit", func() {
			mux.HandleFunc("/api/v4/users", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `[{"id":2,"username":"jdoe"}]`)
			})

			username, found, err := tracker.LookupUser(ctx, "jane.doe@x.com")

			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(username).To(Equal("jdoe"))
		})

		It("reports no match", func() {
			mux.HandleFunc("/api/v4/users", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `[]`)
			})

			_, found, err := tracker.LookupUser(ctx, "jane.doe@x.com")

			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})

	It("creates an issue with labels, due date and assignee", func() {
		var body map[string]any
		mux.HandleFunc("/api/v4/projects/42/issues", func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":100,"iid":7,"web_url":"https://gitlab.example/g/p/-/issues/7"}`)
		})

		created, err := tracker.CreateTask(ctx, sampleRecord("jdoe"))

		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(Equal(&task_tracker.CreatedTask{ID: "42#7", URL: "https://gitlab.example/g/p/-/issues/7"}))
		Expect(body).To(HaveKeyWithValue("title", task.DefaultTitle))
		Expect(body).To(HaveKeyWithValue("due_date", "2026-05-02"))
		Expect(body["description"]).To(ContainSubstring("/assign @jdoe"))
		Expect(body["labels"]).To(Equal("status::Not started,priority::High,effort::Medium,type::Polish,type::Legal"))
	})

	It("wraps API failures", func() {
		mux.HandleFunc("/api/v4/projects/42/issues", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"message":"403 Forbidden"}`)
		})

		_, err := tracker.CreateTask(ctx, sampleRecord())

		Expect(err).To(MatchError(ContainSubstring("creating gitlab issue")))
	})
	Describe("server errors", func() {
		var searches, creates atomic.Int32

		BeforeEach(func() {
			searches.Store(0)
			creates.Store(0)
			failing := func(counter *atomic.Int32) http.HandlerFunc {
				return func(w http.ResponseWriter, _ *http.Request) {
					counter.Add(1)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = io.WriteString(w, `{"message":"500 Internal Server Error"}`)
				}
			}
			mux.HandleFunc("/api/v4/users", failing(&searches))
			mux.HandleFunc("/api/v4/projects/42/issues", failing(&creates))
		})

		It("sends a single user search", func() {
			_, _, err := tracker.LookupUser(ctx, "jane.doe@x.com")

			Expect(err).To(MatchError(ContainSubstring("searching gitlab users")))
			Expect(searches.Load()).To(BeEquivalentTo(1))
		})

		It("sends a single create request", func() {
			_, err := tracker.CreateTask(ctx, sampleRecord())

			Expect(err).To(MatchError(ContainSubstring("creating gitlab issue")))
			Expect(creates.Load()).To(BeEquivalentTo(1))
		})
	})
})
