package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	askSessionID   string
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask [upload-id] [question]",
	Short: "Ask a question about an upload",
	Long: `Retrieves the most relevant chunks of the upload and asks the configured
LLM to answer from them. The exchange is appended to the session history,
so follow-up questions can refer to earlier answers.

Without --session a new session is started and its id printed.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSessionID, "session", "s", "", "session id (default: new session)")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the retrieved context")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireChat(); err != nil {
		return err
	}

	sessionID := askSessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
		cmd.Printf("Session: %s\n\n", sessionID)
	}

	answer, err := chatService.Ask(cmd.Context(), sessionID, args[0], args[1])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askShowContext {
		if len(answer.Context) == 0 {
			cmd.Println("Context: (none)")
		} else {
			cmd.Println("Context:")
			for i, c := range answer.Context {
				cmd.Printf("  [%d] %s\n", i+1, snippet(c, 200))
			}
		}
		cmd.Println()
	}

	cmd.Println(answer.Text)
	return nil
}

// requireChat returns errLLMNotConfigured when no chat service is wired.
func requireChat() error {
	if chatService == nil {
		return errLLMNotConfigured
	}
	return nil
}
