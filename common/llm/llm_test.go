package llm_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clausewise.app/review/common/llm"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

type mockClient struct {
	generateFn func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error)
	calls      int
	lastReq    llm.GenerateRequest
}

func (m *mockClient) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	m.calls++
	m.lastReq = req
	return m.generateFn(ctx, req)
}

func (m *mockClient) Model() string    { return "mock-model" }
func (m *mockClient) Provider() string { return "mock" }

var _ = Describe("NewClient", func() {
	It("requires an API key", func() {
		_, err := llm.NewClient(context.Background(), llm.Config{Provider: llm.ProviderOpenAI})
		Expect(err).To(MatchError(ContainSubstring("API key is required")))
	})

	It("rejects unknown providers", func() {
		_, err := llm.NewClient(context.Background(), llm.Config{Provider: "palm", APIKey: "k"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM provider")))
	})

	DescribeTable("applies provider defaults",
		func(provider, wantProvider, wantModel string) {
			client, err := llm.NewClient(context.Background(), llm.Config{Provider: provider, APIKey: "k"})
			Expect(err).NotTo(HaveOccurred())
			Expect(client.Provider()).To(Equal(wantProvider))
			Expect(client.Model()).To(Equal(wantModel))
		},
		Entry("empty defaults to gemini", "", llm.ProviderGemini, "gemini-1.5-flash"),
		Entry("openai", llm.ProviderOpenAI, llm.ProviderOpenAI, "gpt-4o-mini"),
		Entry("anthropic", llm.ProviderAnthropic, llm.ProviderAnthropic, "claude-sonnet-4-5-20250514"),
	)
})

var _ = Describe("Invoker", func() {
	var (
		ctx    context.Context
		client *mockClient
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &mockClient{}
	})

	It("returns the reply text and sends the generation settings", func() {
		client.generateFn = func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return &llm.GenerateResponse{Text: "[]", Candidates: 1}, nil
		}
		inv := llm.NewInvoker(client, llm.InvokerConfig{})

		text, err := inv.Invoke(ctx, "prompt")

		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("[]"))
		Expect(client.calls).To(Equal(1))
		Expect(client.lastReq.Prompt).To(Equal("prompt"))
		Expect(client.lastReq.MaxTokens).To(Equal(llm.DefaultMaxOutputTokens))
		Expect(*client.lastReq.Temperature).To(Equal(0.7))
		Expect(inv.Timeout()).To(Equal(15 * time.Second))
	})

	It("reports a timeout when the call outlives the timer", func() {
		release := make(chan struct{})
		defer close(release)
		client.generateFn = func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			<-release
			return &llm.GenerateResponse{Text: "late", Candidates: 1}, nil
		}
		inv := llm.NewInvoker(client, llm.InvokerConfig{Timeout: 20 * time.Millisecond})

		_, err := inv.Invoke(ctx, "prompt")

		var invErr *llm.InvocationError
		Expect(errors.As(err, &invErr)).To(BeTrue())
		Expect(invErr.Kind).To(Equal(llm.ErrorKindTimeout))
		Expect(invErr.Message()).To(Equal("API request timed out"))
		Expect(invErr.Provider).To(Equal("mock"))
		Expect(client.calls).To(Equal(1))
	})

	It("reports an empty response when no candidate came back", func() {
		client.generateFn = func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return &llm.GenerateResponse{}, nil
		}
		inv := llm.NewInvoker(client, llm.InvokerConfig{})

		_, err := inv.Invoke(ctx, "prompt")

		var invErr *llm.InvocationError
		Expect(errors.As(err, &invErr)).To(BeTrue())
		Expect(invErr.Kind).To(Equal(llm.ErrorKindEmptyResponse))
		Expect(invErr.Message()).To(Equal("API returned no valid response candidates"))
	})

	DescribeTable("reports an empty response for a candidate without text",
		func(text string) {
			client.generateFn = func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
				return &llm.GenerateResponse{Candidates: 1, Text: text}, nil
			}

			_, err := llm.NewInvoker(client, llm.InvokerConfig{}).Invoke(ctx, "prompt")

			var invErr *llm.InvocationError
			Expect(errors.As(err, &invErr)).To(BeTrue())
			Expect(invErr.Kind).To(Equal(llm.ErrorKindEmptyResponse))
		},
		Entry("empty", ""),
		Entry("whitespace", " \n\t "),
	)

	It("does not retry failed calls", func() {
		client.generateFn = func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return nil, errors.New("connection reset by peer")
		}

		_, err := llm.NewInvoker(client, llm.InvokerConfig{}).Invoke(ctx, "prompt")

		Expect(err).To(HaveOccurred())
		Expect(client.calls).To(Equal(1))
		Expect(llm.Classify(err)).To(Equal(llm.ErrorKindUnknown))
	})

	It("honors caller cancellation", func() {
		cctx, cancel := context.WithCancel(ctx)
		client.generateFn = func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}

		_, err := llm.NewInvoker(client, llm.InvokerConfig{}).Invoke(cctx, "prompt")

		Expect(err).To(MatchError(context.Canceled))
	})

	It("uses an explicit temperature and output cap", func() {
		client.generateFn = func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return &llm.GenerateResponse{Text: "ok", Candidates: 1}, nil
		}
		inv := llm.NewInvoker(client, llm.InvokerConfig{MaxOutputTokens: 512, Temperature: llm.Temp(0)})

		_, err := inv.Invoke(ctx, "prompt")

		Expect(err).NotTo(HaveOccurred())
		Expect(client.lastReq.MaxTokens).To(Equal(512))
		Expect(*client.lastReq.Temperature).To(BeZero())
	})
})

var _ = Describe("Classify", func() {
	DescribeTable("maps errors onto the taxonomy",
		func(err error, want llm.ErrorKind) {
			Expect(llm.Classify(err)).To(Equal(want))
		},
		Entry("timer", llm.ErrTimedOut, llm.ErrorKindTimeout),
		Entry("deadline", fmt.Errorf("gemini generate: %w", context.DeadlineExceeded), llm.ErrorKindTimeout),
		Entry("empty", llm.ErrEmptyResponse, llm.ErrorKindEmptyResponse),
		Entry("gemini bad key", fmt.Errorf("gemini generate: %w", genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "API key not valid. Reason: API_KEY_INVALID"}), llm.ErrorKindInvalidCredential),
		Entry("gemini forbidden", genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}, llm.ErrorKindInvalidCredential),
		Entry("gemini quota", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, llm.ErrorKindQuotaExceeded),
		Entry("openai unauthorized", &openai.Error{StatusCode: 401}, llm.ErrorKindInvalidCredential),
		Entry("openai rate limit", &openai.Error{StatusCode: 429}, llm.ErrorKindQuotaExceeded),
		Entry("quota message", errors.New("Quota exceeded for project"), llm.ErrorKindQuotaExceeded),
		Entry("timed out message", errors.New("request timed out"), llm.ErrorKindTimeout),
		Entry("server error", genai.APIError{Code: 500, Status: "INTERNAL"}, llm.ErrorKindUnknown),
		Entry("anything else", errors.New("boom"), llm.ErrorKindUnknown),
		Entry("nil", nil, llm.ErrorKindUnknown),
	)

	It("preserves the kind of an existing invocation error", func() {
		err := fmt.Errorf("draft: %w", &llm.InvocationError{Kind: llm.ErrorKindQuotaExceeded, Provider: "gemini"})
		Expect(llm.Classify(err)).To(Equal(llm.ErrorKindQuotaExceeded))
	})

	It("maps unknown kinds to the generic message", func() {
		Expect(llm.ErrorKind("weird").Message()).To(Equal("Unknown error occurred"))
	})
})
