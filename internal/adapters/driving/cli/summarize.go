package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
)

var summarizeJSON bool

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarize a file with the configured LLM",
	Long: `Loads and splits a CSV, XLS, XLSX, PDF or DOCX file like ingest does, asks
the LLM for a summary of every chunk, then merges those summaries until one
is left. Nothing is indexed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if summarizeService == nil {
		return errLLMNotConfigured
	}
	if _, err := domain.ParseFormat(args[0]); err != nil {
		return err
	}

	summary, err := summarizeService.Summarize(cmd.Context(), driving.SummarizeRequest{Path: args[0]})
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	if summarizeJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Summary of %s (%d chunks, %d LLM calls)\n\n", summary.Filename, summary.Chunks, summary.Calls)
	cmd.Println(summary.Text)
	return nil
}
