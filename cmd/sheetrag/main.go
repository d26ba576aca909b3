// Command sheetrag indexes spreadsheets and documents and answers
// questions about them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sheetrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sheetrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sheetrag/internal/adapters/driven/events"
	natsevents "github.com/custodia-labs/sheetrag/internal/adapters/driven/events/nats"
	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage"
	"github.com/custodia-labs/sheetrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/core/services"
	"github.com/custodia-labs/sheetrag/internal/loaders"
	"github.com/custodia-labs/sheetrag/internal/logger"
	"github.com/custodia-labs/sheetrag/internal/postprocessors/chunker"
)

// version is set by the linker.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	defer logger.Sync()

	for _, arg := range os.Args[1:] {
		if arg == "-v" || arg == "--verbose" {
			logger.SetVerbose(true)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewProviderChecker(0))

	cli.SetVersion(version)
	svcs := cli.Services{Settings: settingsService}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	closeAll, err := wire(ctx, settings, &svcs)
	if err != nil {
		// Settings and version still work without a pipeline.
		logger.Warn("%v", err)
	}
	defer closeAll()

	cli.SetServices(svcs)
	return cli.Execute(ctx)
}

// wire builds the pipeline from settings and fills svcs. The returned
// function releases every opened resource and is never nil.
func wire(ctx context.Context, settings *domain.AppSettings, svcs *cli.Services) (func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Debug("close: %v", err)
			}
		}
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return closeAll, err
	}
	closers = append(closers, embedder.Close)

	backends, err := storage.Open(ctx, settings.Store, settings.History, embedder.Dimensions())
	if err != nil {
		return closeAll, err
	}
	closers = append(closers, backends.Close)

	publisher, err := openPublisher(settings.Events)
	if err != nil {
		return closeAll, err
	}
	closers = append(closers, publisher.Close)

	docs := services.NewDocumentStore(embedder, backends.Vectors, services.DocumentStoreConfig{
		BatchSize:   settings.Embedding.BatchSize,
		Concurrency: settings.Embedding.Concurrency,
		Timeout:     settings.Store.Timeout,
	})
	retrieval := services.NewRetrievalService(docs)
	splitter := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)

	registry := loaders.NewDefaultRegistry(settings.Loader)

	svcs.Ingest = services.NewIngestService(registry, splitter, docs, publisher)
	svcs.Retrieval = retrieval
	svcs.History = services.NewHistoryService(backends.History)

	llm, err := ai.CreateAndValidateLLMService(ctx, &settings.LLM)
	if err != nil {
		logger.Warn("%v", err)
	}
	if llm != nil {
		closers = append(closers, llm.Close)

		chat := services.NewChatService(retrieval, backends.History, llm, services.ChatConfig{
			K:           settings.RetrievalK,
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
		})
		summarize := services.NewSummarizeService(registry, splitter, llm, services.SummarizeConfig{
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
		})
		if prompts, err := file.NewPromptStore(""); err == nil {
			chat.SetPromptStore(prompts)
			summarize.SetPromptStore(prompts)
		} else {
			logger.Debug("prompt store unavailable, using built-in prompts: %v", err)
		}
		svcs.Chat = chat
		svcs.Summarize = summarize
	}

	return closeAll, nil
}

func openPublisher(cfg domain.EventSettings) (driven.EventPublisher, error) {
	if cfg.NATSURL == "" {
		return events.NopPublisher{}, nil
	}
	p, err := natsevents.NewPublisher(cfg.NATSURL, cfg.SubjectPrefix)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return p, nil
}
