package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

type chatFixture struct {
	svc     *ChatService
	llm     *MockLLMService
	history *memory.HistoryStore
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	llm := &MockLLMService{}
	history := memory.NewHistoryStore()
	svc := NewChatService(newTestRetrieval(t), history, llm, ChatConfig{K: 1, MaxTokens: 256, Temperature: 0.2})
	return &chatFixture{svc: svc, llm: llm, history: history}
}

func TestChatService_Ask(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	var sent driven.Completion
	f.llm.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sent = args.Get(1).(driven.Completion)
		}).
		Return("| b | 2 |", nil).Once()

	answer, err := f.svc.Ask(ctx, "s1", "u1", "  b  ")
	require.NoError(t, err)

	assert.Equal(t, "| b | 2 |", answer.Text)
	assert.Equal(t, []string{"b,2"}, answer.Context)

	assert.Equal(t, defaultSystemPrompt, sent.System)
	assert.Empty(t, sent.History)
	assert.Equal(t, "Context:\nb,2\n\nQuestion: b", sent.Prompt)
	assert.Equal(t, 256, sent.MaxTokens)
	assert.InDelta(t, 0.2, sent.Temperature, 1e-9)

	want := []domain.Turn{
		{Role: domain.RoleUser, Content: "b"},
		{Role: domain.RoleAssistant, Content: "| b | 2 |"},
	}
	assert.Equal(t, want, answer.History)

	stored, err := f.history.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, stored)
	f.llm.AssertExpectations(t)
}

func TestChatService_Ask_IncludesPriorTurns(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	prior := []domain.Turn{
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleAssistant, Content: "reply"},
	}
	require.NoError(t, f.history.Save(ctx, "s1", prior))

	var sent driven.Completion
	f.llm.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sent = args.Get(1).(driven.Completion)
		}).
		Return("second reply", nil)

	answer, err := f.svc.Ask(ctx, "s1", "u1", "a")
	require.NoError(t, err)

	assert.Equal(t, prior, sent.History)
	assert.Len(t, sent.Turns(), 4)
	assert.Len(t, answer.History, 4)
}

func TestChatService_Ask_LLMFailureKeepsHistory(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	f.llm.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

	_, err := f.svc.Ask(ctx, "s1", "u1", "b")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.ErrorContains(t, err, "rate limited")

	stored, err := f.history.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestChatService_Ask_Validation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ask(ctx, "", "u1", "b")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Ask(ctx, "s1", "", "b")
	assert.ErrorIs(t, err, domain.ErrNoUpload)

	_, err = f.svc.Ask(ctx, "s1", "u1", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestChatService_Ask_NoLLM(t *testing.T) {
	svc := NewChatService(newTestRetrieval(t), memory.NewHistoryStore(), nil, ChatConfig{})

	_, err := svc.Ask(context.Background(), "s1", "u1", "b")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestChatService_Ask_HistorySaveFailure(t *testing.T) {
	llm := &MockLLMService{}
	llm.On("Complete", mock.Anything, mock.Anything).Return("ok", nil)
	history := &failingHistory{HistoryStore: memory.NewHistoryStore(), saveErr: errors.New("redis gone")}
	svc := NewChatService(newTestRetrieval(t), history, llm, ChatConfig{})

	_, err := svc.Ask(context.Background(), "s1", "u1", "b")
	assert.ErrorContains(t, err, "redis gone")
}

func TestChatService_PromptStore(t *testing.T) {
	f := newChatFixture(t)
	f.svc.SetPromptStore(staticPrompts{
		driven.PromptChatSystem: "Be terse.",
		driven.PromptChatUser:   "Q=%[2]s C=%[1]s",
	})

	var sent driven.Completion
	f.llm.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sent = args.Get(1).(driven.Completion)
		}).
		Return("done", nil)

	_, err := f.svc.Ask(context.Background(), "s1", "u1", "b")
	require.NoError(t, err)

	assert.Equal(t, "Be terse.", sent.System)
	assert.Equal(t, "Q=b C=b,2", sent.Prompt)
}

func TestChatService_PromptStoreFallback(t *testing.T) {
	f := newChatFixture(t)
	f.svc.SetPromptStore(staticPrompts{})

	var sent driven.Completion
	f.llm.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sent = args.Get(1).(driven.Completion)
		}).
		Return("done", nil)

	_, err := f.svc.Ask(context.Background(), "s1", "u1", "b")
	require.NoError(t, err)
	assert.Equal(t, defaultSystemPrompt, sent.System)
}

func TestChatService_ResetAndGreeting(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	require.NoError(t, f.history.Save(ctx, "s1", []domain.Turn{{Role: domain.RoleUser, Content: "x"}}))
	require.NoError(t, f.svc.Reset(ctx, "s1"))

	stored, err := f.history.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored)

	assert.ErrorIs(t, f.svc.Reset(ctx, ""), domain.ErrInvalidInput)
	assert.Equal(t, "How can I help you?", f.svc.Greeting())
}
