package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sheetrag/internal/adapters/driving/tui"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat [upload-id]",
	Short: "Chat about an upload in the terminal UI",
	Long: `Opens an interactive conversation about one upload.

Controls:
  Enter       - Ask
  Ctrl+R      - Reset the session
  PgUp/PgDn   - Scroll
  Esc, Ctrl+C - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "session id to resume (default: new session)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := requireChat(); err != nil {
		return err
	}
	if historyService == nil {
		return errors.New("history service not configured")
	}

	sessionID := chatSessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ports := &tui.Ports{Chat: chatService, History: historyService}
	if err := tui.Run(cmd.Context(), ports, tui.Config{UploadID: args[0], SessionID: sessionID}); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	cmd.Printf("Session: %s\n", sessionID)
	return nil
}
