package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/handlers"
	"github.com/ternarybob/lector/internal/interfaces"
	"github.com/ternarybob/lector/internal/services/concepts"
	"github.com/ternarybob/lector/internal/services/fetch"
	"github.com/ternarybob/lector/internal/services/ocr"
	"github.com/ternarybob/lector/internal/services/pipeline"
	"github.com/ternarybob/lector/internal/services/raster"
	"github.com/ternarybob/lector/internal/services/refine"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Pipeline stages
	Fetcher         interfaces.Fetcher
	Rasterizer      interfaces.Rasterizer
	Engine          interfaces.OCREngine
	Orchestrator    *ocr.Orchestrator
	Cleaner         *refine.Cleaner
	Provider        interfaces.RefinementProvider
	Gate            *refine.Gate
	Extractor       *concepts.Extractor
	PipelineService interfaces.PipelineService

	// HTTP handlers
	OCRHandler    *handlers.OCRHandler
	StatusHandler *handlers.StatusHandler
}

// New wires every pipeline stage together from configuration.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	a.Fetcher = fetch.NewHTTPFetcher(cfg.Fetch, logger)
	a.Rasterizer = raster.NewPopplerRasterizer(logger)
	a.Engine = ocr.NewTesseractEngine(cfg.OCR, logger)
	a.Orchestrator = ocr.NewOrchestrator(cfg.OCR, ocr.NewNormalizer(cfg.OCR), a.Engine, a.Rasterizer, logger)

	cleaner, err := refine.NewCleaner(cfg.Cleaner, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize text cleaner: %w", err)
	}
	a.Cleaner = cleaner

	provider, err := refine.NewProvider(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize refinement provider: %w", err)
	}
	a.Provider = provider

	genCfg := interfaces.GenerationConfig{
		Temperature:     cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	}
	if cfg.Refine.Provider == "claude" {
		genCfg.Temperature = cfg.Claude.Temperature
		genCfg.MaxOutputTokens = cfg.Claude.MaxOutputTokens
	}
	a.Gate = refine.NewGate(provider, genCfg, cfg.Refine, logger)

	analyzer := concepts.NewProseAnalyzer(logger)
	a.Extractor = concepts.NewExtractor(&cfg.Concepts, analyzer, logger)

	a.PipelineService = pipeline.NewService(
		a.Fetcher,
		a.Orchestrator,
		a.Cleaner,
		a.Gate,
		a.Extractor,
		logger,
	)

	a.OCRHandler = handlers.NewOCRHandler(a.PipelineService)
	a.StatusHandler = handlers.NewStatusHandler()

	logger.Info().
		Bool("refinement_enabled", provider != nil).
		Int("ocr_dpi", cfg.OCR.DPI).
		Msg("Application initialized")

	return a, nil
}
