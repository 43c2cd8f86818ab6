package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// ErrorKind classifies a failed model call.
type ErrorKind string

const (
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindInvalidCredential ErrorKind = "invalid_credential"
	ErrorKindQuotaExceeded     ErrorKind = "quota_exceeded"
	ErrorKindEmptyResponse     ErrorKind = "empty_response"
	ErrorKindUnknown           ErrorKind = "unknown"
)

var (
	ErrTimedOut      = errors.New("llm request timed out")
	ErrEmptyResponse = errors.New("llm returned no candidates")
)

var kindMessages = map[ErrorKind]string{
	ErrorKindTimeout:           "API request timed out",
	ErrorKindInvalidCredential: "Invalid API key",
	ErrorKindQuotaExceeded:     "API quota exceeded",
	ErrorKindEmptyResponse:     "API returned no valid response candidates",
	ErrorKindUnknown:           "Unknown error occurred",
}

// Message returns the user-facing message for k.
func (k ErrorKind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return kindMessages[ErrorKindUnknown]
}

// InvocationError is returned by Invoker for every failed call.
type InvocationError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *InvocationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Message returns the user-facing message for the error kind.
func (e *InvocationError) Message() string {
	return e.Kind.Message()
}

// Classify maps a provider or transport error onto an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindUnknown
	}

	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return invErr.Kind
	}

	switch {
	case errors.Is(err, ErrTimedOut), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	case errors.Is(err, ErrEmptyResponse):
		return ErrorKindEmptyResponse
	}

	if kind, ok := classifyStatus(statusCode(err)); ok {
		return kind
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api_key_invalid"), strings.Contains(msg, "api key not valid"):
		return ErrorKindInvalidCredential
	case strings.Contains(msg, "resource_exhausted"), strings.Contains(msg, "quota"):
		return ErrorKindQuotaExceeded
	case strings.Contains(msg, "timed out"), strings.Contains(msg, "timeout"):
		return ErrorKindTimeout
	}
	return ErrorKindUnknown
}

func classifyStatus(code int) (ErrorKind, bool) {
	switch code {
	case 401, 403:
		return ErrorKindInvalidCredential, true
	case 429:
		return ErrorKindQuotaExceeded, true
	case 408, 504:
		return ErrorKindTimeout, true
	}
	return "", false
}

// statusCode digs the HTTP status out of whichever SDK produced err.
func statusCode(err error) int {
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code
	}
	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) {
		return geminiErrPtr.Code
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode
	}
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode
	}
	return 0
}
