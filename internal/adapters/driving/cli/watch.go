package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sheetrag/internal/adapters/driving/watch"
)

var (
	watchDebounce time.Duration
	watchNoScan   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep a directory's files indexed",
	Long: `Indexes every supported file under the directory and keeps the index in
step with it: new and modified files are re-ingested, removed files are
deleted. Hidden files and directories are skipped.

Each file's upload id is derived from its absolute path, so it stays the
same across runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is ingested")
	watchCmd.Flags().BoolVar(&watchNoScan, "no-scan", false, "skip indexing existing files on start")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	w := watch.New(args[0], ingestService, watch.WithDebounce(watchDebounce))
	if err := w.Validate(); err != nil {
		return err
	}

	report := func(r watch.Result) {
		name := filepath.Base(r.Change.Path)
		switch {
		case r.Err != nil:
			cmd.PrintErrf("%s: %v\n", name, r.Err)
		case r.Change.Type == watch.ChangeDelete:
			cmd.Printf("removed %s (upload %s)\n", name, r.Change.UploadID)
		default:
			cmd.Printf("indexed %s (upload %s, %d chunks)\n", name, r.Change.UploadID, r.Report.Chunks)
		}
	}

	if !watchNoScan {
		if err := w.Scan(cmd.Context(), report); err != nil {
			return fmt.Errorf("initial scan: %w", err)
		}
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(cmd.Context(), report)
}
