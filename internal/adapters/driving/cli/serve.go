package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sheetrag/internal/adapters/driving/api"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves uploads, search and chat over HTTP.

Routes:
  POST   /uploads                  multipart upload (field "file", optional "upload_id" and "replace")
  DELETE /uploads/:id              remove an upload
  GET    /uploads/:id/search?q=&k= ranked chunks of an upload
  POST   /sessions/:id/ask         {"upload_id": "...", "question": "..."}
  GET    /sessions/:id/history     session turns
  DELETE /sessions/:id/history     reset a session
  POST   /summaries                multipart file (field "file"), summarized by the LLM

The listen address defaults to the [server] section of the config.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr setting)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil || retrievalService == nil || historyService == nil {
		return errors.New("services not configured")
	}

	cfg := domain.DefaultAppSettings().Server
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			cfg = settings.Server
		}
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	server, err := api.NewServer(&api.Ports{
		Ingest:    ingestService,
		Retrieval: retrievalService,
		History:   historyService,
		Chat:      chatService,
		Summarize: summarizeService,
	}, api.Config{MaxUploadMB: cfg.MaxUploadMB})
	if err != nil {
		return err
	}

	if chatService == nil {
		cmd.Println("Warning: no LLM configured, /ask will answer 503.")
	}
	cmd.Printf("HTTP API listening on %s\n", cfg.Addr)
	if err := server.Run(cmd.Context(), cfg.Addr); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
