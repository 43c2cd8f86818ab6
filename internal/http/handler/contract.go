package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"clausewise.app/review/common/llm"
	"clausewise.app/review/internal/http/dto"
	"clausewise.app/review/internal/model"
	"clausewise.app/review/internal/service"
	"github.com/gin-gonic/gin"
)

const contractFormField = "contract"

var textExtensions = map[string]bool{
	"":      true,
	".txt":  true,
	".text": true,
	".md":   true,
}

var errNotText = errors.New("only plain-text contracts can be uploaded; extract the text first")

type ContractHandler struct {
	reviewService  service.ReviewService
	maxUploadBytes int64
}

func NewContractHandler(reviewService service.ReviewService, maxUploadBytes int64) *ContractHandler {
	return &ContractHandler{
		reviewService:  reviewService,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *ContractHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AnalyzeContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if bodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "request body is too large"})
			return
		}
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	h.submit(c, req.ToSubmission())
}

func (h *ContractHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UploadContractRequest
	if err := c.ShouldBind(&req); err != nil {
		if bodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "request body is too large"})
			return
		}
		slog.WarnContext(ctx, "invalid upload form", "error", err)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	file, err := c.FormFile(contractFormField)
	if err != nil {
		slog.WarnContext(ctx, "contract file missing", "error", err)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "contract file is required", Field: contractFormField})
		return
	}

	text, err := h.readText(file)
	if err != nil {
		switch {
		case errors.Is(err, errNotText):
			slog.InfoContext(ctx, "rejected non-text upload",
				"filename", file.Filename,
				"content_type", file.Header.Get("Content-Type"))
			c.JSON(http.StatusUnsupportedMediaType, dto.ErrorResponse{Error: err.Error(), Field: contractFormField})
		case bodyTooLarge(err):
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "contract file is too large", Field: contractFormField})
		default:
			slog.ErrorContext(ctx, "failed to read uploaded contract", "error", err)
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "failed to read contract file", Field: contractFormField})
		}
		return
	}

	h.submit(c, req.ToSubmission(text))
}

// Schema publishes the JSON schema of a serialized finding.
func (h *ContractHandler) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, llm.GenerateSchema[model.WireFinding]())
}

func (h *ContractHandler) submit(c *gin.Context, sub service.Submission) {
	ctx := c.Request.Context()

	result, err := h.reviewService.Submit(ctx, sub)
	if err != nil {
		var inputErr *model.InputError
		if errors.As(err, &inputErr) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: inputErr.Error(), Field: inputErr.Field})
			return
		}
		slog.ErrorContext(ctx, "submission failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to review contract"})
		return
	}

	status := http.StatusOK
	if result.AnalysisError != nil {
		status = http.StatusBadGateway
	}
	c.JSON(status, dto.ToSubmissionResponse(result))
}

func (h *ContractHandler) readText(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !textExtensions[ext] {
		return "", errNotText
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !isTextContentType(ct) {
		return "", errNotText
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		return "", &http.MaxBytesError{Limit: h.maxUploadBytes}
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) || strings.ContainsRune(string(data), 0) {
		return "", errNotText
	}
	return string(data), nil
}

func isTextContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.HasPrefix(ct, "text/") || strings.HasPrefix(ct, "application/octet-stream")
}

func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
