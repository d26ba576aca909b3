// Package ollama answers chat questions with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// ErrModelNotPulled is returned by Ping when the server is reachable but
// does not have the configured model.
var ErrModelNotPulled = errors.New("ollama: model not pulled")

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService completes chats with Ollama's /api/chat endpoint.
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// options maps onto Ollama's model parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewLLMService creates an Ollama LLM service. No credentials are needed.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Complete sends the conversation without streaming.
func (s *LLMService) Complete(ctx context.Context, req driven.Completion) (string, error) {
	turns := req.Turns()
	body := chatRequest{
		Model:    s.model,
		Messages: make([]chatMessage, len(turns)),
	}
	for i, t := range turns {
		body.Messages[i] = chatMessage{Role: string(t.Role), Content: t.Content}
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		body.Options = &options{NumPredict: req.MaxTokens, Temperature: req.Temperature}
	}

	var resp chatResponse
	if err := s.do(ctx, http.MethodPost, "/api/chat", body, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %s", resp.Error)
	}
	return resp.Message.Content, nil
}

// ModelName returns the model identifier.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the server is up and has the model pulled. A model named
// without a tag matches any tag of that model.
func (s *LLMService) Ping(ctx context.Context) error {
	var tags tagsResponse
	if err := s.do(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == s.model || strings.HasPrefix(m.Name, s.model+":") {
			return nil
		}
	}
	return fmt.Errorf("%w: run `ollama pull %s`", ErrModelNotPulled, s.model)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

func (s *LLMService) do(ctx context.Context, method, path string, in, out any) error {
	var payload io.Reader = http.NoBody
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("ollama: marshal request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("ollama: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: decode response: %w", err)
	}
	return nil
}
