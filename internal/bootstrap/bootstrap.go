package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/profile-export/internal/config"
	"github.com/kirillkom/profile-export/internal/core/ports"
	"github.com/kirillkom/profile-export/internal/core/stitching"
	"github.com/kirillkom/profile-export/internal/core/usecase"
	"github.com/kirillkom/profile-export/internal/infrastructure/extractor/pdftable"
	"github.com/kirillkom/profile-export/internal/infrastructure/output/csvexport"
	"github.com/kirillkom/profile-export/internal/infrastructure/output/xlsx"
	"github.com/kirillkom/profile-export/internal/infrastructure/queue/nats"
	"github.com/kirillkom/profile-export/internal/infrastructure/repository/memory"
	"github.com/kirillkom/profile-export/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/profile-export/internal/infrastructure/resilience"
	"github.com/kirillkom/profile-export/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/profile-export/internal/infrastructure/vocabulary/yamlfile"
)

type Options struct {
	Logger   *slog.Logger
	Observer ports.ProcessingObserver
	// Queue connects NATS and the upload storage; the CLI runs without them.
	Queue bool
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Ledger    ports.ResultLedger
	Queue     ports.JobQueue
	Extractor ports.PageExtractor
	Engine    *stitching.Engine
	ProcessUC *usecase.ProcessProfileUseCase
	BatchUC   *usecase.BatchProcessUseCase
	SubmitUC  *usecase.SubmitProfileUseCase
	JobUC     *usecase.ProcessJobUseCase

	closers []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (_ *App, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	executor := resilience.NewExecutor(resilienceConfig(cfg), logger)

	vocab, err := yamlfile.Load(cfg.VocabularyFile)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	ledger, err := app.openLedger(ctx, cfg, executor)
	if err != nil {
		return nil, err
	}
	app.Ledger = ledger

	var renderers []csvexport.Renderer
	if cfg.OutputXLSX {
		renderers = append(renderers, xlsx.New())
	}
	writer := csvexport.New(csvexport.Options{Renderers: renderers, Logger: logger})
	app.Extractor = pdftable.New(pdftable.Options{Validate: cfg.PDFValidate, Logger: logger})
	app.Engine = stitching.NewEngine(vocab, logger)

	app.ProcessUC = usecase.NewProcessProfileUseCase(app.Extractor, app.Engine, writer, ledger, usecase.ProcessOptions{
		OutputRoot:        cfg.OutputDir,
		RunSubdirectories: opts.Queue,
		DocumentTimeout:   cfg.DocumentTimeout,
		Observer:          opts.Observer,
		Logger:            logger,
	})
	app.BatchUC = usecase.NewBatchProcessUseCase(app.ProcessUC, usecase.BatchOptions{
		Workers: cfg.BatchWorkers,
		Logger:  logger,
	})

	if !opts.Queue {
		return app, nil
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	app.closers = append(app.closers, queue.Close)
	app.Queue = queue

	app.SubmitUC = usecase.NewSubmitProfileUseCase(storage, queue, ledger)
	app.JobUC = usecase.NewProcessJobUseCase(storage, app.ProcessUC, ledger, logger)
	return app, nil
}

// openLedger uses Postgres when a DSN is configured and an in-process ledger
// otherwise.
func (a *App) openLedger(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.ResultLedger, error) {
	if cfg.PostgresDSN == "" {
		a.Logger.Info("ledger_in_memory")
		return memory.NewResultLedger(), nil
	}
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	ledger := postgres.NewResultLedger(db, executor)
	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := ledger.EnsureSchema(schemaCtx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return ledger, nil
}

// resilienceConfig keeps the ledger and publish policies and applies the
// operator overrides on top.
func resilienceConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig().WithAttempts(cfg.RetryMaxAttempts)
	rc.BreakerEnabled = cfg.BreakerEnabled
	if cfg.BreakerOpenTimeout > 0 {
		rc.Default.OpenTimeout = cfg.BreakerOpenTimeout
		for prefix, p := range rc.Operations {
			p.OpenTimeout = cfg.BreakerOpenTimeout
			rc.Operations[prefix] = p
		}
	}
	return rc
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
