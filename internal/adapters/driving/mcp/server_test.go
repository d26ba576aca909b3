package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil retrieval service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRetrievalService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Retrieval: &mockRetrievalService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil retrieval service returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingRetrievalService)
	})

	t.Run("retrieval only is valid", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Retrieval: &mockRetrievalService{},
			Ingest:    &mockIngestService{},
			Chat:      &mockChatService{},
			History:   &mockHistoryService{},
			Summarize: &mockSummarizeService{},
		}
		assert.NoError(t, ports.Validate())
	})
}

func TestInstructions(t *testing.T) {
	minimal := instructions(&Ports{Retrieval: &mockRetrievalService{}})
	assert.Contains(t, minimal, "retrieve")
	assert.NotContains(t, minimal, "ingest_file")
	assert.NotContains(t, minimal, "summarize_file")

	full := instructions(&Ports{
		Retrieval: &mockRetrievalService{},
		Ingest:    &mockIngestService{},
		Chat:      &mockChatService{},
		Summarize: &mockSummarizeService{},
	})
	assert.Contains(t, full, "ingest_file")
	assert.Contains(t, full, "session_id")
	assert.Contains(t, full, "summarize_file")
}

// connect opens an in-memory client session to server.
func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.sdk.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func toolNames(t *testing.T, session *mcp.ClientSession) []string {
	t.Helper()
	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	names := make([]string, len(res.Tools))
	for i, tool := range res.Tools {
		names[i] = tool.Name
	}
	return names
}

func TestServer_OffersToolsForConfiguredPorts(t *testing.T) {
	t.Run("retrieval only", func(t *testing.T) {
		session := connect(t, newTestServer(t, &Ports{}))

		assert.ElementsMatch(t, []string{"retrieve"}, toolNames(t, session))
		assert.Equal(t, implementationName, session.InitializeResult().ServerInfo.Name)
		assert.Contains(t, session.InitializeResult().Instructions, "upload_id")
	})

	t.Run("every port", func(t *testing.T) {
		session := connect(t, newTestServer(t, &Ports{
			Ingest:    &mockIngestService{},
			Chat:      &mockChatService{},
			Summarize: &mockSummarizeService{},
		}))

		assert.ElementsMatch(t,
			[]string{"retrieve", "ingest_file", "delete_upload", "ask", "summarize_file"},
			toolNames(t, session))
	})
}
