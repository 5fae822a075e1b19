package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/llmli/internal/adapters/driven/ai"
	"github.com/custodia-labs/llmli/internal/adapters/driven/pdf"
	"github.com/custodia-labs/llmli/internal/adapters/driven/prompts"
	"github.com/custodia-labs/llmli/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/llmli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/llmli/internal/adapters/driving/cli"
	"github.com/custodia-labs/llmli/internal/chunker"
	"github.com/custodia-labs/llmli/internal/composer"
	"github.com/custodia-labs/llmli/internal/config"
	"github.com/custodia-labs/llmli/internal/core/services"
	"github.com/custodia-labs/llmli/internal/guardrails"
	"github.com/custodia-labs/llmli/internal/logger"
	"github.com/custodia-labs/llmli/internal/retrieval"
	"github.com/custodia-labs/llmli/internal/trace"
)

// build wires the application for the database at dbFlag.
func build(ctx context.Context, dbFlag string) (*cli.Services, error) {
	return buildWithEnv(ctx, dbFlag, os.Getenv)
}

func buildWithEnv(ctx context.Context, dbFlag string, env config.Env) (*cli.Services, error) {
	settings, err := config.Load(config.ResolveDBPath(dbFlag, env), env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Debug("Database: %s", settings.DBPath)

	embedder, err := ai.CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}
	store, err := sqlite.NewStore(ctx, settings.CollectionDir(), embedder)
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("open collection: %w", err)
	}
	closeAll := func() error {
		return errors.Join(store.Close(), embedder.Close())
	}

	manifest, err := jsonfile.NewManifestStore(settings.ManifestPath())
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	silos, err := jsonfile.NewSiloStore(settings.RegistryPath())
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("open silo registry: %w", err)
	}

	llm, err := ai.CreateLLMService(settings)
	if err != nil {
		closeAll()
		return nil, err
	}
	if llm != nil {
		storeClose := closeAll
		closeAll = func() error { return errors.Join(llm.Close(), storeClose()) }
	}

	ch := chunker.New(
		chunker.WithChunkSize(settings.Chunk.Size),
		chunker.WithOverlap(settings.Chunk.Overlap),
		chunker.WithPDFExtractor(pdf.NewExtractor()),
		chunker.WithPDFTables(settings.Ingest.PDFTables),
	)

	rails := guardrails.NewChain(
		guardrails.NewCSVRank(store),
		guardrails.NewTaxField(store),
		guardrails.NewCodingCount(manifest),
		guardrails.NewCapabilities(ch.SupportedExtensions()),
		guardrails.NewCodeLanguage(manifest),
	)

	comp := composer.New(
		llm,
		prompts.NewStore(settings.PromptsDir(), composer.DefaultPrompts()),
		composer.OptionsFromSettings(settings),
	)

	siloSvc := services.NewSiloService(silos)
	ingest := services.NewIngestService(store, manifest, silos, ch, services.IngestOptionsFromSettings(settings))
	query := services.NewQueryService(
		store, siloSvc, rails, ai.CreateReranker(settings), comp,
		trace.New(settings.Output.TracePath),
		services.QueryOptions{
			DefaultK:  settings.Retrieval.DefaultK,
			Retrieval: retrieval.OptionsFromSettings(settings),
		},
	)

	return &cli.Services{
		Ingest:   ingest,
		Query:    query,
		Silos:    siloSvc,
		Settings: settings,
		Close:    closeAll,
	}, nil
}
