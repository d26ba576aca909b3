package mcp

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/async"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	texts []string
	err   error

	gotUploadID string
	gotQuery    string
	gotK        int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, uploadID, query string, k int) ([]string, error) {
	m.gotUploadID, m.gotQuery, m.gotK = uploadID, query, k
	return m.texts, m.err
}

func (m *mockRetrievalService) Search(_ context.Context, _, _ string, _ int) ([]domain.SearchResult, error) {
	return nil, m.err
}

func (m *mockRetrievalService) RetrieveAsync(ctx context.Context, uploadID, query string, k int) *async.Task[[]string] {
	texts, err := m.Retrieve(ctx, uploadID, query, k)
	return async.Completed(texts, err)
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	err     error
	req     driving.IngestRequest
	deleted []string
}

func (m *mockIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*domain.IngestReport, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestReport{UploadID: req.UploadID, Documents: 3, Chunks: 4}, nil
}

func (m *mockIngestService) IngestAsync(ctx context.Context, req driving.IngestRequest) *async.Task[*domain.IngestReport] {
	report, err := m.Ingest(ctx, req)
	return async.Completed(report, err)
}

func (m *mockIngestService) DeleteUpload(_ context.Context, uploadID string) error {
	m.deleted = append(m.deleted, uploadID)
	return m.err
}

func (m *mockIngestService) Status(uploadID string) driving.IngestStatus {
	return driving.IngestStatus{UploadID: uploadID}
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer *domain.Answer
	err    error
}

func (m *mockChatService) Ask(_ context.Context, _, _, _ string) (*domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockChatService) Reset(_ context.Context, _ string) error { return m.err }

func (m *mockChatService) Greeting() string { return domain.Greeting }

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	turns []domain.Turn
	err   error
}

func (m *mockHistoryService) Get(_ context.Context, _ string) ([]domain.Turn, error) {
	return m.turns, m.err
}

func (m *mockHistoryService) Save(_ context.Context, _ string, _ []domain.Turn) error { return m.err }

func (m *mockHistoryService) Reset(_ context.Context, _ string) error { return m.err }

// mockSummarizeService is a mock implementation of driving.SummarizeService.
type mockSummarizeService struct {
	err error
	req driving.SummarizeRequest
}

func (m *mockSummarizeService) Summarize(_ context.Context, req driving.SummarizeRequest) (*domain.Summary, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Summary{Filename: "data.csv", Text: "three rows", Chunks: 3, Calls: 4}, nil
}
