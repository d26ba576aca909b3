package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	UploadID string `json:"upload_id" jsonschema:"the upload to search"`
	Query    string `json:"query" jsonschema:"the text to find relevant chunks for"`
	K        int    `json:"k,omitempty" jsonschema:"number of chunks to return (default 5)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Texts []string `json:"texts"`
	Count int      `json:"count"`
}

// IngestInput is the input schema for the ingest_file tool.
type IngestInput struct {
	Path     string `json:"path" jsonschema:"absolute path of a csv, xls, xlsx, pdf or docx file"`
	UploadID string `json:"upload_id,omitempty" jsonschema:"upload id to index under (generated when empty)"`
	Replace  bool   `json:"replace,omitempty" jsonschema:"replace the chunks of an existing upload id"`
}

// IngestOutput is the output schema for the ingest_file tool.
type IngestOutput struct {
	UploadID  string `json:"upload_id"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
}

// DeleteInput is the input schema for the delete_upload tool.
type DeleteInput struct {
	UploadID string `json:"upload_id" jsonschema:"the upload to delete"`
}

// DeleteOutput is the output schema for the delete_upload tool.
type DeleteOutput struct {
	Deleted bool `json:"deleted"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	SessionID string `json:"session_id" jsonschema:"conversation id; history is kept per session"`
	UploadID  string `json:"upload_id" jsonschema:"the upload to answer from"`
	Question  string `json:"question" jsonschema:"the question to answer"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string   `json:"answer"`
	Context []string `json:"context"`
}

// SummarizeInput is the input schema for the summarize_file tool.
type SummarizeInput struct {
	Path string `json:"path" jsonschema:"absolute path of a csv, xls, xlsx, pdf or docx file"`
}

// SummarizeOutput is the output schema for the summarize_file tool.
type SummarizeOutput struct {
	Filename string `json:"filename"`
	Summary  string `json:"summary"`
	Chunks   int    `json:"chunks"`
	LLMCalls int    `json:"llm_calls"`
}

// registerTools registers all tool handlers with the MCP server.
// Tools whose ports are not configured are not offered.
func (s *Server) registerTools() {
	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the chunks of an uploaded file most relevant to a query",
	}, s.handleRetrieve)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.sdk, &mcp.Tool{
			Name:        "ingest_file",
			Description: "Index a local csv, xls, xlsx, pdf or docx file",
		}, s.handleIngest)
		mcp.AddTool(s.sdk, &mcp.Tool{
			Name:        "delete_upload",
			Description: "Remove every indexed chunk of an upload",
		}, s.handleDelete)
	}

	if s.ports.Chat != nil {
		mcp.AddTool(s.sdk, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question about an upload, keeping conversation history per session",
		}, s.handleAsk)
	}

	if s.ports.Summarize != nil {
		mcp.AddTool(s.sdk, &mcp.Tool{
			Name:        "summarize_file",
			Description: "Summarize a local csv, xls, xlsx, pdf or docx file without indexing it",
		}, s.handleSummarize)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if input.UploadID == "" {
		return nil, RetrieveOutput{}, fmt.Errorf("%w: upload_id is required", domain.ErrInvalidInput)
	}

	texts, err := s.ports.Retrieval.Retrieve(ctx, input.UploadID, input.Query, domain.NormaliseK(input.K))
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	return nil, RetrieveOutput{Texts: texts, Count: len(texts)}, nil
}

// handleIngest handles the ingest_file tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if input.Path == "" {
		return nil, IngestOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}
	uploadID := input.UploadID
	if uploadID == "" {
		uploadID = uuid.NewString()
	}

	report, err := s.ports.Ingest.Ingest(ctx, driving.IngestRequest{UploadID: uploadID, Path: input.Path, Replace: input.Replace})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		UploadID:  report.UploadID,
		Documents: report.Documents,
		Chunks:    report.Chunks,
	}, nil
}

// handleDelete handles the delete_upload tool invocation.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := s.ports.Ingest.DeleteUpload(ctx, input.UploadID); err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{Deleted: true}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Chat.Ask(ctx, input.SessionID, input.UploadID, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: answer.Text, Context: answer.Context}, nil
}

// handleSummarize handles the summarize_file tool invocation.
func (s *Server) handleSummarize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummarizeInput,
) (*mcp.CallToolResult, SummarizeOutput, error) {
	if input.Path == "" {
		return nil, SummarizeOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	summary, err := s.ports.Summarize.Summarize(ctx, driving.SummarizeRequest{Path: input.Path})
	if err != nil {
		return nil, SummarizeOutput{}, err
	}
	return nil, SummarizeOutput{
		Filename: summary.Filename,
		Summary:  summary.Text,
		Chunks:   summary.Chunks,
		LLMCalls: summary.Calls,
	}, nil
}
