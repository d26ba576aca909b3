package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
)

var (
	ingestUploadID string
	ingestAsync    bool
	ingestJSON     bool
	ingestReplace  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Index a file as an upload",
	Long: `Loads a CSV, XLS, XLSX, PDF or DOCX file, splits it into chunks and
stores their embeddings under an upload id.

The upload id is generated unless --upload-id is given. An id that already
holds chunks is refused unless --replace is set, in which case the file's
chunks replace the old ones.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [upload-id]",
	Short: "Remove an upload",
	Long:  `Deletes every chunk stored under the upload id. Deleting an unknown upload succeeds.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestUploadID, "upload-id", "", "upload id to store the chunks under (default: generated)")
	ingestCmd.Flags().BoolVar(&ingestAsync, "async", false, "run in the background and report progress")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "replace the chunks of an existing upload id")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	if _, err := domain.ParseFormat(path); err != nil {
		return err
	}

	uploadID := ingestUploadID
	if uploadID == "" {
		uploadID = uuid.NewString()
	}
	req := driving.IngestRequest{
		UploadID: uploadID,
		Filename: filepath.Base(path),
		Path:     path,
		Replace:  ingestReplace,
	}

	var (
		report *domain.IngestReport
		err    error
	)
	if ingestAsync {
		report, err = ingestWithProgress(cmd.Context(), cmd, req)
	} else {
		report, err = ingestService.Ingest(cmd.Context(), req)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Indexed %s as upload %s\n", report.Filename, report.UploadID)
	cmd.Printf("  Format:    %s\n", report.Format)
	cmd.Printf("  Documents: %d\n", report.Documents)
	cmd.Printf("  Chunks:    %d\n", report.Chunks)
	cmd.Printf("  Duration:  %s\n", report.Duration.Round(time.Millisecond))
	return nil
}

// ingestWithProgress runs the ingest as a task and prints progress until it completes.
func ingestWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	req driving.IngestRequest,
) (*domain.IngestReport, error) {
	task := ingestService.IngestAsync(ctx, req)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	started := time.Now()
	for {
		select {
		case <-task.Done():
			cmd.Println()
			report, _, err := task.Result()
			return report, err
		case <-ticker.C:
			if ingestService.Status(req.UploadID).Running {
				cmd.Printf("\rIndexing %s... %s", req.Filename, time.Since(started).Round(time.Second))
			}
		}
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.DeleteUpload(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	cmd.Printf("Upload %s deleted.\n", args[0])
	return nil
}
