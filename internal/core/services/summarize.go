package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// Ensure SummarizeService implements the interface.
var (
	_ driving.SummarizeService = (*SummarizeService)(nil)
	_ driven.PromptStoreAware  = (*SummarizeService)(nil)
)

const (
	defaultSummarizeMapPrompt    = "Write a concise summary of the following:\n\n%s\n\nCONCISE SUMMARY:"
	defaultSummarizeReducePrompt = "Combine these partial summaries of one file into a single concise summary. " +
		"Keep key figures and column names.\n\n%s\n\nCONCISE SUMMARY:"
)

// Summarize defaults.
const (
	DefaultSummarizeConcurrency = 4
	DefaultReduceChars          = 8000
)

// summarySeparator joins partial summaries in a reduce prompt.
const summarySeparator = "\n\n"

// SummarizeConfig tunes map-reduce summarisation.
type SummarizeConfig struct {
	// Concurrency bounds the completions in flight.
	Concurrency int

	// ReduceChars bounds the joined summaries sent in one reduce call.
	// A reduce call always merges at least two summaries.
	ReduceChars int

	// MaxTokens and Temperature are passed to the LLM.
	MaxTokens   int
	Temperature float64
}

// SummarizeService summarises files with a map-reduce over their chunks:
// every chunk is summarised, then the summaries are merged in rounds
// until one remains.
type SummarizeService struct {
	loaders  driven.LoaderRegistry
	splitter driven.Splitter
	llm      driven.LLMService
	prompts  driven.PromptStore
	cfg      SummarizeConfig
}

// NewSummarizeService creates a summarize service. llm may be nil, in which
// case Summarize fails with domain.ErrLLMUnavailable.
func NewSummarizeService(
	loaders driven.LoaderRegistry,
	splitter driven.Splitter,
	llm driven.LLMService,
	cfg SummarizeConfig,
) *SummarizeService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultSummarizeConcurrency
	}
	if cfg.ReduceChars <= 0 {
		cfg.ReduceChars = DefaultReduceChars
	}
	return &SummarizeService{
		loaders:  loaders,
		splitter: splitter,
		llm:      llm,
		cfg:      cfg,
	}
}

// SetPromptStore sets the store the prompt templates are loaded from.
func (s *SummarizeService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Summarize returns the summary of the file in req.
func (s *SummarizeService) Summarize(ctx context.Context, req driving.SummarizeRequest) (*domain.Summary, error) {
	if req.Filename == "" {
		req.Filename = filepath.Base(req.Path)
	}
	if req.Filename == "" || req.Filename == "." {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, fmt.Errorf("%w: configure an LLM provider to summarize files", domain.ErrLLMUnavailable)
	}

	if _, err := domain.ParseFormat(req.Filename); err != nil {
		return nil, domain.NewStageError(domain.StageLoad, "", err)
	}
	docs, err := s.load(ctx, req)
	if err != nil {
		return nil, domain.NewStageError(domain.StageLoad, "", err)
	}

	chunks, err := s.splitter.Process(ctx, docs)
	if err != nil {
		return nil, domain.NewStageError(domain.StageSplit, "", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s has no text to summarize", domain.ErrInvalidInput, req.Filename)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	mapPrompt := s.loadPrompt(driven.PromptSummarizeMap, defaultSummarizeMapPrompt)
	parts, err := s.completeAll(ctx, mapPrompt, texts)
	if err != nil {
		return nil, domain.NewStageError(domain.StageSummarize, "", err)
	}
	calls := len(parts)

	reducePrompt := s.loadPrompt(driven.PromptSummarizeReduce, defaultSummarizeReducePrompt)
	for len(parts) > 1 {
		groups := groupByLength(parts, s.cfg.ReduceChars)
		joined := make([]string, len(groups))
		for i, g := range groups {
			joined[i] = strings.Join(g, summarySeparator)
		}
		if parts, err = s.completeAll(ctx, reducePrompt, joined); err != nil {
			return nil, domain.NewStageError(domain.StageSummarize, "", err)
		}
		calls += len(parts)
	}

	logger.With("file", req.Filename).Infow("summarized", "chunks", len(chunks), "llm_calls", calls)
	return &domain.Summary{
		Filename: req.Filename,
		Text:     parts[0],
		Chunks:   len(chunks),
		Calls:    calls,
	}, nil
}

func (s *SummarizeService) load(ctx context.Context, req driving.SummarizeRequest) ([]domain.RawDocument, error) {
	if req.Data == nil && req.Path != "" {
		return s.loaders.LoadFile(ctx, req.Path)
	}
	return s.loaders.Load(ctx, req.Data, req.Filename)
}

// completeAll renders template with each input and completes them
// concurrently. Outputs keep the order of inputs.
func (s *SummarizeService) completeAll(ctx context.Context, template string, inputs []string) ([]string, error) {
	outputs := make([]string, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			reply, err := s.llm.Complete(gctx, driven.Completion{
				Prompt:      fmt.Sprintf(template, in),
				MaxTokens:   s.cfg.MaxTokens,
				Temperature: s.cfg.Temperature,
			})
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
			}
			outputs[i] = strings.TrimSpace(reply)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// groupByLength packs parts into groups whose joined length stays within
// limit. Every group but a trailing one holds at least two parts, so each
// reduce round shrinks the list.
func groupByLength(parts []string, limit int) [][]string {
	var (
		groups  [][]string
		current []string
		size    int
	)
	for _, p := range parts {
		if len(current) >= 2 && size+len(summarySeparator)+len(p) > limit {
			groups = append(groups, current)
			current, size = nil, 0
		}
		if len(current) > 0 {
			size += len(summarySeparator)
		}
		current = append(current, p)
		size += len(p)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func (s *SummarizeService) loadPrompt(name, fallback string) string {
	return promptOr(s.prompts, name, fallback)
}
