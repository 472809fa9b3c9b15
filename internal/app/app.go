package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/handlers"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/services/illustrator"
	"github.com/ternarybob/scribo/internal/services/llm"
	"github.com/ternarybob/scribo/internal/services/pipeline"
	"github.com/ternarybob/scribo/internal/services/publisher"
	"github.com/ternarybob/scribo/internal/services/scheduler"
	"github.com/ternarybob/scribo/internal/services/selector"
	"github.com/ternarybob/scribo/internal/services/synthesizer"
	"github.com/ternarybob/scribo/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager
	ImagesDir      string

	// Generation services
	TextService        interfaces.TextService
	SelectorService    *selector.Service
	SynthesizerService *synthesizer.Service
	IllustratorService *illustrator.Service
	PublisherService   *publisher.Service
	Orchestrator       *pipeline.Orchestrator
	SchedulerService   *scheduler.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	GenerateHandler *handlers.GenerateHandler
	ArticleHandler  *handlers.ArticleHandler
	StatusHandler   *handlers.StatusHandler
}

// New initializes the application with all dependencies
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		ImagesDir: cfg.Storage.Filesystem.Images,
	}

	// Storage
	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	// Fragment pool seeding
	loaded, err := storageManager.LoadFragmentSeeds(ctx, cfg.Fragments.SeedDir)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to load fragment seeds: %w", err)
	}
	if loaded > 0 {
		logger.Info().
			Int("count", loaded).
			Str("dir", cfg.Fragments.SeedDir).
			Msg("Fragment seeds loaded")
	}

	// Text generation
	textService, err := llm.NewTextService(cfg, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize text service: %w", err)
	}
	app.TextService = textService

	// Illustration stage is optional; the pipeline runs without it
	var imageGenerator interfaces.ImageGenerator
	var imageStore interfaces.ImageStore
	if cfg.Images.Enabled {
		generator, err := illustrator.NewDalleClient(&cfg.Images, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Image generation unavailable, articles will publish without images")
		} else {
			imageGenerator = generator
			store, err := illustrator.NewLocalImageStore(&cfg.Images, app.ImagesDir, logger)
			if err != nil {
				logger.Warn().Err(err).Msg("Image persistence unavailable, transient URLs will be used")
			} else {
				imageStore = store
			}
		}
	}

	// Pipeline stages
	app.SelectorService = selector.NewService(
		storageManager.Fragments(),
		storageManager.Consumed(),
		storageManager.Stats(),
		cfg.Pipeline.MinFragmentChars,
		cfg.Pipeline.MaxSelectAttempts,
		logger,
	)
	app.SynthesizerService = synthesizer.NewService(textService, logger)
	app.IllustratorService = illustrator.NewService(imageGenerator, imageStore, logger)
	app.PublisherService = publisher.NewService(
		storageManager.Articles(),
		storageManager.Consumed(),
		storageManager.Stats(),
		logger,
	)

	app.Orchestrator = pipeline.NewOrchestrator(
		app.SelectorService,
		app.SynthesizerService,
		app.IllustratorService,
		app.PublisherService,
		storageManager,
		textService,
		&cfg.Pipeline,
		logger,
	)

	app.SchedulerService = scheduler.NewService(app.Orchestrator, &cfg.Scheduler, logger)
	if err := app.SchedulerService.Start(ctx); err != nil {
		textService.Close()
		storageManager.Close()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Handlers
	app.APIHandler = handlers.NewAPIHandler()
	app.GenerateHandler = handlers.NewGenerateHandler(app.Orchestrator, logger)
	app.ArticleHandler = handlers.NewArticleHandler(storageManager.Articles(), storageManager.Stats(), logger)
	app.StatusHandler = handlers.NewStatusHandler(app.Orchestrator, logger)

	logger.Info().
		Str("provider", textService.Provider()).
		Bool("images", imageGenerator != nil).
		Bool("scheduler", cfg.Scheduler.Enabled).
		Msg("Application initialized")

	return app, nil
}

// Close shuts down all application components
func (a *App) Close() error {
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	if a.TextService != nil {
		if err := a.TextService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close text service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
