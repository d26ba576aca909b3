package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingChatService.Error(), ErrMissingHistoryService.Error())
	assert.Contains(t, ErrMissingChatService.Error(), "chat service")
	assert.Contains(t, ErrMissingHistoryService.Error(), "history service")
}
