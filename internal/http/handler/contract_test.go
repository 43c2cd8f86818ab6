package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"clausewise.app/review/common/llm"
	"clausewise.app/review/internal/http/handler"
	"clausewise.app/review/internal/model"
	"clausewise.app/review/internal/service"
)

type filePart struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(fields map[string]string, file *filePart) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		Expect(w.WriteField(k, v)).To(Succeed())
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="contract"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(file.data)
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(w.Close()).To(Succeed())
	return body, w.FormDataContentType()
}

var _ = Describe("ContractHandler", func() {
	var (
		router *gin.Engine
		svc    *mockReviewService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockReviewService{}
		h := handler.NewContractHandler(svc, 1024)
		router.POST("/analyze", h.Analyze)
		router.POST("/upload", h.Upload)
		router.GET("/schema", h.Schema)
	})

	postJSON := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Analyze", func() {
		It("returns 200 with the serialized result", func() {
			svc.submitFn = func(_ context.Context, _ service.Submission) (*service.SubmissionResult, error) {
				rc, err := model.NewRiskyClause("Fees", "Uncapped", "Cap them")
				Expect(err).NotTo(HaveOccurred())
				return &service.SubmissionResult{
					SubmissionID: 9007199254740993,
					Analysis:     model.NewAnalysisSuccess([]model.Finding{rc}),
					Draft:        service.StageOutcome{Status: service.StageSkipped},
					Task:         service.StageOutcome{Status: service.StageSkipped},
				}, nil
			}

			w := postJSON(`{"text":"contract body","email":"a@x.com","include_draft":true,"create_task":true,"task":{"priority":"Low","task_type":["Legal"]}}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.Bytes()).To(MatchJSON(`{
				"submission_id":"9007199254740993",
				"analysis":{"outcome":"success","message":"Analysis completed","findings":[
					{"kind":"risky_clause","clause":"Fees","risk":"Uncapped","suggestion":"Cap them"}
				]},
				"draft":{"status":"skipped"},
				"task":{"status":"skipped"}
			}`))

			Expect(svc.submissions).To(HaveLen(1))
			sub := svc.submissions[0]
			Expect(sub.Text).To(Equal("contract body"))
			Expect(sub.Email).To(Equal("a@x.com"))
			Expect(sub.CreateTask).To(BeTrue())
			Expect(sub.Task.IncludeDraft).To(BeTrue())
			Expect(sub.Task.Priority).To(Equal("Low"))
			Expect(sub.Task.TaskTypes).To(Equal([]string{"Legal"}))
		})

		It("returns 400 on a malformed body", func() {
			Expect(postJSON(`{`).Code).To(Equal(http.StatusBadRequest))
			Expect(svc.submissions).To(BeEmpty())
		})

		It("returns 400 when text is missing", func() {
			Expect(postJSON(`{"email":"a@x.com"}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 on a badly formatted due date", func() {
			Expect(postJSON(`{"text":"t","task":{"due_date":"03/14/2026"}}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 with the field on input errors", func() {
			svc.submitFn = func(context.Context, service.Submission) (*service.SubmissionResult, error) {
				return nil, &model.InputError{Field: "priority", Reason: "unknown"}
			}

			w := postJSON(`{"text":"t"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.Bytes()).To(MatchJSON(`{"error":"invalid priority: unknown","field":"priority"}`))
		})

		It("returns 502 when the analysis call failed", func() {
			svc.submitFn = func(context.Context, service.Submission) (*service.SubmissionResult, error) {
				return &service.SubmissionResult{
					SubmissionID:  2,
					Analysis:      model.NewAnalysisFailure("Invalid API key"),
					AnalysisError: &llm.InvocationError{Kind: llm.ErrorKindInvalidCredential},
				}, nil
			}

			w := postJSON(`{"text":"t"}`)

			Expect(w.Code).To(Equal(http.StatusBadGateway))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["analysis"]).To(HaveKeyWithValue("message", "Invalid API key"))
		})

		It("returns 500 when the service fails", func() {
			svc.submitFn = func(context.Context, service.Submission) (*service.SubmissionResult, error) {
				return nil, errors.New("boom")
			}

			Expect(postJSON(`{"text":"t"}`).Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Upload", func() {
		upload := func(fields map[string]string, file *filePart) *httptest.ResponseRecorder {
			body, contentType := multipartBody(fields, file)
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		It("submits the file text with the form options", func() {
			w := upload(map[string]string{
				"email":          "a@x.com",
				"create_task":    "true",
				"include_draft":  "true",
				"assignee_email": "jane.doe@x.com",
			}, &filePart{name: "nda.txt", contentType: "text/plain", data: []byte("Mutual NDA between Acme Corp and us")})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(svc.submissions).To(HaveLen(1))
			sub := svc.submissions[0]
			Expect(sub.Text).To(Equal("Mutual NDA between Acme Corp and us"))
			Expect(sub.CreateTask).To(BeTrue())
			Expect(sub.Task.IncludeDraft).To(BeTrue())
			Expect(sub.Task.AssigneeEmail).To(Equal("jane.doe@x.com"))
		})

		It("requires a file", func() {
			w := upload(map[string]string{"email": "a@x.com"}, nil)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.Bytes()).To(MatchJSON(`{"error":"contract file is required","field":"contract"}`))
		})

		DescribeTable("rejects non-text files",
			func(file filePart) {
				w := upload(nil, &file)

				Expect(w.Code).To(Equal(http.StatusUnsupportedMediaType))
				Expect(svc.submissions).To(BeEmpty())
			},
			Entry("pdf extension", filePart{name: "nda.pdf", contentType: "application/pdf", data: []byte("%PDF-1.7")}),
			Entry("image content type", filePart{name: "nda.txt", contentType: "image/png", data: []byte("x")}),
			Entry("binary content", filePart{name: "nda.txt", contentType: "text/plain", data: []byte{'a', 0, 'b'}}),
			Entry("invalid utf-8", filePart{name: "nda", contentType: "application/octet-stream", data: []byte{0xff, 0xfe}}),
		)

		It("rejects a form that overruns the request body cap", func() {
			body, contentType := multipartBody(map[string]string{"email": "a@x.com"},
				&filePart{name: "nda.txt", contentType: "text/plain", data: bytes.Repeat([]byte("a"), 4096)})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			req.Body = http.MaxBytesReader(w, req.Body, 512)

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusRequestEntityTooLarge))
			Expect(w.Body.Bytes()).To(MatchJSON(`{"error":"request body is too large"}`))
			Expect(svc.submissions).To(BeEmpty())
		})

		It("rejects files over the size limit", func() {
			w := upload(nil, &filePart{name: "nda.txt", contentType: "text/plain", data: bytes.Repeat([]byte("a"), 2048)})

			Expect(w.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})
	})

	It("publishes the finding schema", func() {
		req := httptest.NewRequest(http.MethodGet, "/schema", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"risky_clause"`))
		Expect(w.Body.String()).To(ContainSubstring(`"reason_code"`))
	})
})
