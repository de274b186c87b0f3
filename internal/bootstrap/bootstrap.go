// Package bootstrap wires configuration, infrastructure adapters and use
// cases into a runnable application.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/antonkudrin/docforge/internal/config"
	"github.com/antonkudrin/docforge/internal/core/domain"
	"github.com/antonkudrin/docforge/internal/core/ports"
	"github.com/antonkudrin/docforge/internal/core/usecase"
	"github.com/antonkudrin/docforge/internal/infrastructure/classifier/ruleset"
	"github.com/antonkudrin/docforge/internal/infrastructure/compliance/rules"
	"github.com/antonkudrin/docforge/internal/infrastructure/extractor/content"
	"github.com/antonkudrin/docforge/internal/infrastructure/parser"
	"github.com/antonkudrin/docforge/internal/infrastructure/queue/nats"
	"github.com/antonkudrin/docforge/internal/infrastructure/repository/postgres"
	"github.com/antonkudrin/docforge/internal/infrastructure/resilience"
	"github.com/antonkudrin/docforge/internal/infrastructure/storage/localfs"
	"github.com/antonkudrin/docforge/internal/infrastructure/translator/httpapi"
	"github.com/antonkudrin/docforge/internal/observability/logging"
	"github.com/antonkudrin/docforge/internal/observability/metrics"
	"github.com/antonkudrin/docforge/internal/recognition"
	"github.com/antonkudrin/docforge/internal/similarity"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue      ports.MessageQueue
	Docs       ports.DocumentRepository
	Jobs       ports.JobRepository
	IngestUC   *usecase.IngestDocumentUseCase
	PipelineUC ports.PipelineService
	Similarity *similarity.Engine
	Pool       *recognition.Pool

	PipelineMetrics *metrics.PipelineMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	docs := postgres.NewDocumentRepository(db)
	if err := docs.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	jobs := postgres.NewJobRepository(db)
	cache := postgres.NewSimilarityCacheRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, logging.WithComponent(logger, "queue"))
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)
	poolMetrics := metrics.NewPoolMetrics(registry)
	simMetrics := metrics.NewSimilarityMetrics(registry)

	pool, err := recognition.NewPool(recognition.PoolConfig{
		Size:      cfg.OCRPoolSize,
		Languages: cfg.OCRLanguages,
	}, recognition.NewTesseractEngine, poolMetrics, logging.WithComponent(logger, "recognition"))
	if err != nil {
		return nil, fmt.Errorf("init recognition pool: %w", err)
	}

	simEngine := similarity.NewEngine(docs, cache, simMetrics, logging.WithComponent(logger, "similarity"), domain.SimilarityOptions{
		RelatedThreshold:   cfg.SimilarityRelatedThreshold,
		DuplicateThreshold: cfg.SimilarityDuplicateThreshold,
	})

	docParser := parser.New()
	classifier := ruleset.New()
	extractor := content.New()
	compliance := rules.New()
	translator := httpapi.New(
		cfg.TranslatorURL,
		resilience.NewExecutor(resilience.DefaultConfig()),
		cfg.TranslatorRateLimit,
		cfg.TranslatorBurst,
		logging.WithComponent(logger, "translator"),
	)

	ingestUC := usecase.NewIngestDocumentUseCase(docs, storage, queue, docParser)
	pipelineUC := usecase.NewPipelineUseCase(
		docs, jobs, pool, simEngine,
		docParser, classifier, extractor, translator, compliance,
		pipelineMetrics, logging.WithComponent(logger, "pipeline"),
	)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:      queue,
		Docs:       docs,
		Jobs:       jobs,
		IngestUC:   ingestUC,
		PipelineUC: pipelineUC,
		Similarity: simEngine,
		Pool:       pool,

		PipelineMetrics: pipelineMetrics,

		closeFn: func() {
			pool.Shutdown()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
