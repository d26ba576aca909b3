// Package gemini provides an embedding service adapter for the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "text-embedding-004"
	DefaultDimensions = 768
	DefaultTimeout    = 60 * time.Second

	// maxBatch is the largest number of contents the API accepts per call.
	maxBatch = 100
)

// Task types tell the model how the vector will be used.
const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model (default: text-embedding-004).
	Model string

	// Dimensions requests a reduced output size. Zero uses the model default.
	Dimensions int

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Timeout bounds each request (default: 60s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings using the Gemini API.
type EmbeddingService struct {
	client     *genai.Client
	model      string
	dimensions int
	requested  int
}

// NewEmbeddingService creates a Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client, err := newClient(ctx, cfg.APIKey, cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	dims := cfg.Dimensions
	if dims == 0 {
		dims = DefaultDimensions
	}

	return &EmbeddingService{
		client:     client,
		model:      cfg.Model,
		dimensions: dims,
		requested:  cfg.Dimensions,
	}, nil
}

func newClient(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	cc.HTTPOptions.Timeout = &timeout
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client, nil
}

// Embed generates a query embedding for text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embed(ctx, []string{text}, taskQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates document embeddings, splitting into API-sized requests.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		vectors, err := s.embed(ctx, texts[start:end], taskDocument)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	config := &genai.EmbedContentConfig{TaskType: task}
	if s.requested > 0 {
		dims := int32(s.requested)
		config.OutputDimensionality = &dims
	}

	resp, err := s.client.Models.EmbedContent(ctx, s.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini: embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("gemini: no embedding values returned for input %d", i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the embedding model name.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping fetches the model's metadata, which checks the key without embedding anything.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model, nil); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
