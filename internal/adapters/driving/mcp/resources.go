package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for sheetrag resources.
	uriScheme = "sheetrag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource listing the accepted file types.
	s.sdk.AddResource(&mcp.Resource{
		URI:         uriScheme + "formats",
		Name:        "formats",
		Description: "File extensions accepted by ingest_file",
		MIMEType:    "application/json",
	}, s.handleFormatsResource)

	if s.ports.History == nil {
		return
	}

	// Template for a conversation's turns.
	s.sdk.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}/history",
		Name:        "session-history",
		Description: "Conversation turns recorded for a chat session",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleFormatsResource returns the supported formats.
func (s *Server) handleFormatsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(domain.AllFormats())
	if err != nil {
		return nil, fmt.Errorf("marshalling formats: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleHistoryResource returns the turns of a session.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract sessionId from URI: sheetrag://sessions/{sessionId}/history
	sessionID := extractSessionID(req.Params.URI)
	if sessionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	turns, err := s.ports.History.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("getting history: %w", err)
	}

	type turnInfo struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	infos := make([]turnInfo, len(turns))
	for i, t := range turns {
		infos[i] = turnInfo{Role: string(t.Role), Content: t.Content}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling history: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID extracts the session ID from a URI like sheetrag://sessions/{sessionId}/history.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"
	const suffix = "/history"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
