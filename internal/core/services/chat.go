package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// Ensure ChatService implements the interface.
var (
	_ driving.ChatService     = (*ChatService)(nil)
	_ driven.PromptStoreAware = (*ChatService)(nil)
)

// Prompts used when no PromptStore is set or it cannot load a template.
const (
	defaultSystemPrompt = "You are a helpful data assistant. " +
		"Format your answers in Markdown. Use tables when presenting rows or columns of data."
	defaultUserPrompt = "Context:\n%s\n\nQuestion: %s"
)

// contextSeparator joins retrieved chunk texts in the user prompt.
const contextSeparator = "\n\n"

// ChatConfig tunes chat orchestration.
type ChatConfig struct {
	// K is the number of chunks retrieved per question.
	K int

	// MaxTokens and Temperature are passed to the LLM.
	MaxTokens   int
	Temperature float64
}

// ChatService answers questions about an upload and keeps the conversation.
type ChatService struct {
	retrieval driving.RetrievalService
	history   driven.HistoryStore
	llm       driven.LLMService
	prompts   driven.PromptStore
	cfg       ChatConfig
}

// NewChatService creates a chat service. llm may be nil, in which case
// Ask fails with domain.ErrLLMUnavailable.
func NewChatService(
	retrieval driving.RetrievalService,
	history driven.HistoryStore,
	llm driven.LLMService,
	cfg ChatConfig,
) *ChatService {
	cfg.K = domain.NormaliseK(cfg.K)
	return &ChatService{
		retrieval: retrieval,
		history:   history,
		llm:       llm,
		cfg:       cfg,
	}
}

// SetPromptStore sets the store the prompt templates are loaded from.
func (s *ChatService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Ask answers question using the upload's most relevant chunks as context.
// The session history is saved only after the LLM has answered.
func (s *ChatService) Ask(ctx context.Context, sessionID, uploadID, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	switch {
	case sessionID == "":
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	case uploadID == "":
		return nil, domain.ErrNoUpload
	case question == "":
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	case s.llm == nil:
		return nil, fmt.Errorf("%w: configure an LLM provider to ask questions", domain.ErrLLMUnavailable)
	}

	turns, err := s.history.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	retrieved, err := s.retrieval.Retrieve(ctx, uploadID, question, s.cfg.K)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	logger.Debug("chat %s: %d context chunks from upload %s", sessionID, len(retrieved), uploadID)

	reply, err := s.llm.Complete(ctx, s.buildCompletion(turns, retrieved, question))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	updated := append(domain.CloneTurns(turns),
		domain.Turn{Role: domain.RoleUser, Content: question},
		domain.Turn{Role: domain.RoleAssistant, Content: reply},
	)
	if err := s.history.Save(ctx, sessionID, updated); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}

	return &domain.Answer{
		Text:    reply,
		Context: retrieved,
		History: updated,
	}, nil
}

// buildCompletion wraps the question with its context and carries the
// prior turns unchanged.
func (s *ChatService) buildCompletion(turns []domain.Turn, retrieved []string, question string) driven.Completion {
	template := s.loadPrompt(driven.PromptChatUser, defaultUserPrompt)
	return driven.Completion{
		System:      s.loadPrompt(driven.PromptChatSystem, defaultSystemPrompt),
		History:     turns,
		Prompt:      fmt.Sprintf(template, strings.Join(retrieved, contextSeparator), question),
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}
}

func (s *ChatService) loadPrompt(name, fallback string) string {
	return promptOr(s.prompts, name, fallback)
}

// promptOr loads name from store, or returns fallback when store is nil
// or cannot serve the prompt.
func promptOr(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil || prompt == "" {
		logger.Warn("prompt %s unavailable, using default: %v", name, err)
		return fallback
	}
	return prompt
}

// Reset clears the session history.
func (s *ChatService) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	return s.history.Delete(ctx, sessionID)
}

// Greeting returns the message shown for an empty session.
func (s *ChatService) Greeting() string {
	return domain.Greeting
}
