// Package gemini answers chat questions with the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the model to use (default: gemini-2.5-flash).
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Timeout bounds each request (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using the Gemini API.
type LLMService struct {
	client *genai.Client
	model  string
}

// NewLLMService creates a Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	cc.HTTPOptions.Timeout = &cfg.Timeout
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &LLMService{client: client, model: cfg.Model}, nil
}

// Complete sends the history and prompt as contents. The system prompt
// becomes the system instruction and assistant turns use the model role.
func (s *LLMService) Complete(ctx context.Context, req driven.Completion) (string, error) {
	config := buildConfig(req.MaxTokens, req.Temperature)

	system := []string{}
	if req.System != "" {
		system = append(system, req.System)
	}
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		switch t.Role {
		case domain.RoleSystem:
			system = append(system, t.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleUser))
		}
	}
	if strings.TrimSpace(req.Prompt) != "" {
		contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	return s.generate(ctx, contents, config)
}

func (s *LLMService) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	if len(contents) == 0 {
		return "", fmt.Errorf("gemini: no messages to send")
	}
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return text, nil
}

func buildConfig(maxTokens int, temperature float64) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}
	if temperature > 0 {
		t := float32(temperature)
		config.Temperature = &t
	}
	return config
}

// ModelName returns the model identifier.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping fetches model metadata to validate the key without generating.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model, nil); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
