package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// APIError is the body of every error response. Stage is set for
// ingestion failures and names the pipeline step that failed.
type APIError struct {
	Message string       `json:"message"`
	Code    string       `json:"code,omitempty"`
	Stage   domain.Stage `json:"stage,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// errorStatus maps a domain error to its HTTP status and code.
// Order matters: the first sentinel matched wins.
var errorStatus = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrUnsupportedFormat, http.StatusBadRequest, "unsupported_format"},
	{domain.ErrDecode, http.StatusUnprocessableEntity, "decode_failed"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrNoUpload, http.StatusBadRequest, "no_upload"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrUploadExists, http.StatusConflict, "upload_exists"},
	{domain.ErrIngestInProgress, http.StatusConflict, "ingest_in_progress"},
	{domain.ErrLLMUnavailable, http.StatusServiceUnavailable, "llm_unavailable"},
	{domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, "embedding_unavailable"},
	{domain.ErrStore, http.StatusInternalServerError, "store_failed"},
	{domain.ErrConfig, http.StatusInternalServerError, "config"},
}

// statusFor returns the status and code for err.
func statusFor(err error) (int, string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.target) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// respondError writes err in the error envelope. Server-side failures are logged.
func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.With("method", c.Request.Method, "path", c.FullPath(), "code", code).
			Errorw("request failed", "error", err)
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: err.Error(),
			Code:    code,
			Stage:   domain.StageOf(err),
		},
	})
}
