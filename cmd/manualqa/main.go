// Command manualqa answers questions about PDF manuals.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/pdf/ledongthuc"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/services"
	"github.com/custodia-labs/manualqa/internal/logger"
	"github.com/custodia-labs/manualqa/internal/postprocessors/chunker"
)

// version is overridden with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal; real environment variables still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	home, err := file.HomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}

	var warnings []string
	var configStore driven.ConfigStore
	if store, err := file.NewConfigStore(home); err != nil {
		warnings = append(warnings, fmt.Sprintf("config file unavailable, settings will not be saved: %v", err))
		configStore = memory.NewConfigStore()
	} else {
		configStore = store
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	backends, err := ai.Initialise(ctx, settings, home)
	if err != nil {
		return fmt.Errorf("initialising backends: %w", err)
	}
	defer backends.Close()
	warnings = append(warnings, backends.Warnings...)

	history, closeHistory, err := openHistory(home)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("history database unavailable, keeping history in memory: %v", err))
	}
	defer closeHistory()

	var prompts driven.PromptStore
	var reloadPrompts func()
	if store, err := file.NewPromptStore(filepath.Join(home, "prompts")); err != nil {
		warnings = append(warnings, fmt.Sprintf("prompt files unavailable, using built-in prompts: %v", err))
	} else {
		prompts = store
		reloadPrompts = store.Reload
	}

	embedder := services.NewSharedEmbedder(ai.EmbedderBuilder(settings))
	extractor := services.NewExtractor(ledongthuc.New(), backends.OCREngine, settings.Extraction.OCRLanguages)
	chunks := chunker.New(chunker.WithChunkSize(settings.Retrieval.ChunkSize))

	retrievalService := services.NewRetrievalService(
		embedder, backends.IndexStore,
		services.WithOverfetch(settings.Retrieval.Overfetch),
	)
	answerService := services.NewAnswerService(retrievalService, backends.LLMService, prompts, history)
	answerService.SetMaxTokens(settings.LLM.MaxTokens)
	ingestService := services.NewIngestService(
		extractor, chunks, embedder, backends.IndexStore, history, settings.Retrieval.ChunkSize,
	)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Ingest:     ingestService,
		Retrieval:  retrievalService,
		Answer:     answerService,
		Collection: services.NewCollectionService(backends.IndexStore),
		History:    services.NewHistoryService(history),
		Settings:   settingsService,
		TopK:       settings.Retrieval.TopK,
		Warnings:   warnings,
	})
	cli.SetTUIConfig(&cli.TUIConfig{ReloadPrompts: reloadPrompts})

	return cli.ExecuteContext(ctx)
}

// openHistory opens the SQLite history database. When it cannot be opened
// an in-memory store is returned together with the error, so a locked or
// unwritable database never blocks ingestion or answering.
func openHistory(home string) (driven.HistoryStore, func(), error) {
	store, err := sqlite.NewStore(filepath.Join(home, "data"))
	if err != nil {
		return memory.NewHistoryStore(), func() {}, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Error("closing history database: %v", err)
		}
	}, nil
}
