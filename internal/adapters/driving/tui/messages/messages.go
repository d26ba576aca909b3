// Package messages defines Bubbletea message types for the TUI.
// Messages carry the results of service calls back to the model.
package messages

import (
	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// HistoryLoaded carries the session's stored turns.
type HistoryLoaded struct {
	Turns []domain.Turn
	Err   error
}

// AnswerReceived carries the reply to a question.
type AnswerReceived struct {
	Answer *domain.Answer
	Err    error
}

// SessionReset is sent after the session history was cleared.
type SessionReset struct {
	Err error
}
