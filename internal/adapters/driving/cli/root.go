// Package cli implements the sheetrag command line interface.
// Commands are thin wrappers over the driving ports; main wires the
// services in with SetServices before calling Execute.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services bundles the driving ports used by the commands.
type Services struct {
	Ingest    driving.IngestService
	Retrieval driving.RetrievalService
	History   driving.HistoryService
	Settings  driving.SettingsService

	// Chat and Summarize are nil when no LLM is configured.
	Chat      driving.ChatService
	Summarize driving.SummarizeService
}

var (
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
	historyService   driving.HistoryService
	settingsService  driving.SettingsService
	chatService      driving.ChatService
	summarizeService driving.SummarizeService
)

var verbose bool

var errLLMNotConfigured = errors.New("no LLM configured: run 'sheetrag settings llm' first")

var rootCmd = &cobra.Command{
	Use:   "sheetrag",
	Short: "Ask questions about spreadsheets and documents",
	Long: `sheetrag indexes CSV, Excel, PDF and Word files and answers questions
about them with retrieval-augmented generation.

Each indexed file is an upload identified by an upload id. Questions are
asked within a session, whose history is kept between calls.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by the commands.
func SetServices(s Services) {
	ingestService = s.Ingest
	retrievalService = s.Retrieval
	historyService = s.History
	settingsService = s.Settings
	chatService = s.Chat
	summarizeService = s.Summarize
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
