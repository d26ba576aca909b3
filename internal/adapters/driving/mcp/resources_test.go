package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

func TestExtractSessionID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid session history URI",
			uri:      "sheetrag://sessions/s-123/history",
			expected: "s-123",
		},
		{
			name:     "invalid prefix",
			uri:      "file://sessions/s-123/history",
			expected: "",
		},
		{
			name:     "missing history suffix",
			uri:      "sheetrag://sessions/s-123",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSessionID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleFormatsResource(t *testing.T) {
	server := newTestServer(t, &Ports{})

	result, err := server.handleFormatsResource(context.Background(), makeReadResourceRequest("sheetrag://formats"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.JSONEq(t, `["csv","xls","xlsx","pdf","docx"]`, result.Contents[0].Text)
}

func TestServer_handleHistoryResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns turns", func(t *testing.T) {
		history := &mockHistoryService{turns: []domain.Turn{
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleAssistant, Content: "hello"},
		}}
		server := newTestServer(t, &Ports{History: history})

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest("sheetrag://sessions/s1/history"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.JSONEq(t,
			`[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`,
			result.Contents[0].Text)
	})

	t.Run("empty session is an empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{History: &mockHistoryService{turns: []domain.Turn{}}})

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest("sheetrag://sessions/s1/history"))

		require.NoError(t, err)
		assert.JSONEq(t, `[]`, result.Contents[0].Text)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{History: &mockHistoryService{}})

		_, err := server.handleHistoryResource(ctx, makeReadResourceRequest("sheetrag://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("returns error on store failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{History: &mockHistoryService{err: errors.New("redis down")}})

		_, err := server.handleHistoryResource(ctx, makeReadResourceRequest("sheetrag://sessions/s1/history"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting history")
	})
}
