package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and reset session histories",
}

var historyShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Print a session's conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyResetCmd = &cobra.Command{
	Use:   "reset [session-id]",
	Short: "Clear a session's conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryReset,
}

func init() {
	historyShowCmd.Flags().BoolVar(&historyJSON, "json", false, "output turns as JSON")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyResetCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	turns, err := historyService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(turns, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(turns) == 0 {
		cmd.Println("No history for this session.")
		return nil
	}
	for _, t := range turns {
		label := "assistant"
		if t.Role == domain.RoleUser {
			label = "you"
		}
		cmd.Printf("%s: %s\n", label, t.Content)
	}
	return nil
}

func runHistoryReset(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	if err := historyService.Reset(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to reset history: %w", err)
	}
	cmd.Printf("Session %s reset.\n", args[0])
	return nil
}
