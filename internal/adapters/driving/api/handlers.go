package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
)

// UploadResponse is returned by POST /uploads.
type UploadResponse struct {
	UploadID  string `json:"upload_id"`
	Filename  string `json:"filename"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
}

// SearchResult is one ranked chunk.
type SearchResult struct {
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchResponse is returned by GET /uploads/:id/search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// AskRequest is the body of POST /sessions/:id/ask.
type AskRequest struct {
	UploadID string `json:"upload_id"`
	Question string `json:"question"`
}

// AskResponse is returned by POST /sessions/:id/ask.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Context []string `json:"context"`
}

// SummaryResponse is returned by POST /summaries.
type SummaryResponse struct {
	Filename string `json:"filename"`
	Summary  string `json:"summary"`
	Chunks   int    `json:"chunks"`
	LLMCalls int    `json:"llm_calls"`
}

// Turn is one conversation message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryResponse is returned by GET /sessions/:id/history.
type HistoryResponse struct {
	Turns []Turn `json:"turns"`
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// readFile reads the multipart "file" and answers the request itself
// when it is missing, too large or of an unsupported format. The
// extension is checked before the body is read.
func (s *Server) readFile(c *gin.Context) (string, []byte, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorEnvelope{Error: APIError{
				Message: fmt.Sprintf("upload exceeds %d MB", s.cfg.MaxUploadMB),
				Code:    "too_large",
			}})
			return "", nil, false
		}
		respondError(c, fmt.Errorf("%w: multipart field \"file\" is required", domain.ErrInvalidInput))
		return "", nil, false
	}

	if _, err := domain.ParseFormat(file.Filename); err != nil {
		respondError(c, err)
		return "", nil, false
	}

	opened, err := file.Open()
	if err != nil {
		respondError(c, fmt.Errorf("%w: open upload: %w", domain.ErrInvalidInput, err))
		return "", nil, false
	}
	defer opened.Close()

	data, err := io.ReadAll(opened)
	if err != nil {
		respondError(c, fmt.Errorf("%w: read upload: %w", domain.ErrInvalidInput, err))
		return "", nil, false
	}
	return file.Filename, data, true
}

// upload ingests the multipart "file".
func (s *Server) upload(c *gin.Context) {
	filename, data, ok := s.readFile(c)
	if !ok {
		return
	}

	uploadID := c.PostForm("upload_id")
	if uploadID == "" {
		uploadID = uuid.NewString()
	}
	replace, _ := strconv.ParseBool(c.PostForm("replace"))

	report, err := s.ports.Ingest.Ingest(c.Request.Context(), driving.IngestRequest{
		UploadID: uploadID,
		Filename: filename,
		Data:     data,
		Replace:  replace,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		UploadID:  report.UploadID,
		Filename:  report.Filename,
		Documents: report.Documents,
		Chunks:    report.Chunks,
	})
}

func (s *Server) deleteUpload(c *gin.Context) {
	if err := s.ports.Ingest.DeleteUpload(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) search(c *gin.Context) {
	k := 0
	if raw := c.Query("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, fmt.Errorf("%w: k must be an integer", domain.ErrInvalidInput))
			return
		}
		k = n
	}

	results, err := s.ports.Retrieval.Search(c.Request.Context(), c.Param("id"), c.Query("q"), k)
	if err != nil {
		respondError(c, err)
		return
	}

	out := SearchResponse{Results: make([]SearchResult, len(results))}
	for i, r := range results {
		out.Results[i] = SearchResult{
			Text:     r.Chunk.Text,
			Score:    r.Score,
			Metadata: r.Chunk.Metadata,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) ask(c *gin.Context) {
	if s.ports.Chat == nil {
		respondError(c, fmt.Errorf("%w: no LLM provider is configured", domain.ErrLLMUnavailable))
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}

	answer, err := s.ports.Chat.Ask(c.Request.Context(), c.Param("id"), req.UploadID, req.Question)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AskResponse{Answer: answer.Text, Context: answer.Context})
}

// summarize answers with a summary of the multipart "file". Nothing is
// stored.
func (s *Server) summarize(c *gin.Context) {
	if s.ports.Summarize == nil {
		respondError(c, fmt.Errorf("%w: no LLM provider is configured", domain.ErrLLMUnavailable))
		return
	}

	filename, data, ok := s.readFile(c)
	if !ok {
		return
	}

	summary, err := s.ports.Summarize.Summarize(c.Request.Context(), driving.SummarizeRequest{
		Filename: filename,
		Data:     data,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		Filename: summary.Filename,
		Summary:  summary.Text,
		Chunks:   summary.Chunks,
		LLMCalls: summary.Calls,
	})
}

func (s *Server) history(c *gin.Context) {
	turns, err := s.ports.History.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := HistoryResponse{Turns: make([]Turn, len(turns))}
	for i, t := range turns {
		out.Turns[i] = Turn{Role: string(t.Role), Content: t.Content}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) resetHistory(c *gin.Context) {
	if err := s.ports.History.Reset(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
