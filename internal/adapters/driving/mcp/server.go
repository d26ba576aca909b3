package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sheetrag/internal/logger"
)

// Version is reported to clients in the initialize handshake.
const Version = "0.1.0"

const (
	implementationName = "sheetrag"
	shutdownTimeout    = 5 * time.Second
)

// Server exposes sheetrag uploads to MCP clients. Retrieval is always
// offered; ingest, ask and summarize tools appear only when their
// services are configured.
type Server struct {
	ports *Ports
	sdk   *mcp.Server
}

// NewServer registers the tools and resources the ports allow.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports}
	s.sdk = mcp.NewServer(
		&mcp.Implementation{Name: implementationName, Version: Version},
		&mcp.ServerOptions{Instructions: instructions(ports)},
	)
	s.registerTools()
	s.registerResources()
	return s, nil
}

// instructions tells the client how the offered tools fit together.
func instructions(p *Ports) string {
	lines := []string{
		"Files are indexed as uploads, each named by an upload_id.",
		"Use retrieve with an upload_id to fetch the chunks of a file that match a query.",
	}
	if p.Ingest != nil {
		lines = append(lines, "Use ingest_file to index a local csv, xls, xlsx, pdf or docx file and keep the returned upload_id.")
	}
	if p.Chat != nil {
		lines = append(lines, "Use ask to get an answer from the configured LLM. Reuse a session_id for follow-up questions.")
	}
	if p.Summarize != nil {
		lines = append(lines, "Use summarize_file for an overview of a whole file. It does not index the file.")
	}
	return strings.Join(lines, "\n")
}

// Run serves one client over stdin and stdout until ctx is done or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("MCP server serving on stdio")
	return s.sdk.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler. Every session shares the
// one server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.sdk }, nil)
}

// RunHTTP serves Handler on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Debug("MCP shutdown: %v", err)
		}
	}()

	logger.Info("MCP server listening on %s", addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
