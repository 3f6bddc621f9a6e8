package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/services/extraction"
	"github.com/ternarybob/folio/internal/services/llm"
	"github.com/ternarybob/folio/internal/services/pdf"
	"github.com/ternarybob/folio/internal/services/pipeline"
	"github.com/ternarybob/folio/internal/services/sheets"
	"github.com/ternarybob/folio/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	ctx       context.Context
	cancelCtx context.CancelFunc

	StorageManager interfaces.StorageManager
	PDFService     interfaces.PDFService
	LLMService     interfaces.LLMService
	SheetWriter    interfaces.SheetWriter
	Chain          interfaces.ExtractionChain
	Processor      interfaces.Processor
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := app.initStorage(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// KV-stored values override config placeholders now that storage is up
	if err := app.applyKVReplacements(); err != nil {
		app.Close()
		return nil, err
	}

	app.PDFService = pdf.NewService(logger)

	if err := app.initLLM(); err != nil {
		app.Close()
		return nil, err
	}

	if err := app.initSheets(); err != nil {
		app.Close()
		return nil, err
	}

	if err := app.initPipeline(); err != nil {
		app.Close()
		return nil, err
	}

	logger.Info().
		Str("sheets_mode", cfg.Sheets.Mode).
		Bool("llm_enabled", app.LLMService != nil).
		Msg("Application initialized")

	return app, nil
}

// Context returns the application root context
func (a *App) Context() context.Context {
	return a.ctx
}

// Close releases all resources in reverse initialization order
func (a *App) Close() {
	a.cancelCtx()

	if a.SheetWriter != nil {
		if err := a.SheetWriter.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close sheet writer")
		}
	}
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}

	a.Logger.Info().Msg("Application closed")
}

func (a *App) initStorage() error {
	manager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.StorageManager = manager

	// Seed default KV entries without clobbering existing values
	kv := manager.KeyValueStorage()
	for _, def := range common.GetDefaultKVValues() {
		if _, err := kv.Get(a.ctx, def.Key); err == nil {
			continue
		}
		if err := kv.Set(a.ctx, def.Key, def.Value); err != nil {
			a.Logger.Warn().Err(err).Str("key", def.Key).Msg("Failed to seed default KV value")
		}
	}

	return nil
}

// applyKVReplacements substitutes {key} references in the loaded config with
// values from the KV store.
func (a *App) applyKVReplacements() error {
	kvMap, err := a.StorageManager.KeyValueStorage().GetAll(a.ctx)
	if err != nil {
		return fmt.Errorf("failed to read KV store for config replacement: %w", err)
	}
	if len(kvMap) == 0 {
		return nil
	}
	if err := common.ReplaceInStruct(a.Config, kvMap, a.Logger); err != nil {
		return fmt.Errorf("config replacement failed: %w", err)
	}
	return nil
}

func (a *App) initLLM() error {
	if !a.Config.LLM.Enabled {
		a.Logger.Info().Msg("LLM structuring disabled, heuristic field extraction only")
		return nil
	}

	service, err := llm.NewLLMService(&a.Config.LLM, a.StorageManager.KeyValueStorage(), a.Logger)
	if err != nil {
		// Missing API keys degrade to heuristics rather than blocking startup
		a.Logger.Warn().Err(err).Msg("LLM service unavailable, falling back to heuristic fields")
		return nil
	}
	a.LLMService = service

	return nil
}

func (a *App) initSheets() error {
	writer, err := sheets.NewSheetWriter(a.ctx, &a.Config.Sheets, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize sheet writer: %w", err)
	}
	a.SheetWriter = writer

	// Keep one input subfolder per worksheet tab
	if err := sheets.EnsureFolders(a.ctx, a.Config.Input.Dir, writer, a.Logger); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to synchronize input folders with tabs")
	}

	return nil
}

func (a *App) initPipeline() error {
	var structurer *extraction.Structurer
	if a.LLMService != nil {
		structurer = extraction.NewStructurer(a.LLMService, a.Logger)
	}

	var extractors []interfaces.MetadataExtractor

	docai, err := extraction.NewDocAIExtractor(&a.Config.DocAI, a.Config.Extraction, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Document AI extractor: %w", err)
	}
	extractors = append(extractors, docai)

	textract, err := extraction.NewTextractExtractor(&a.Config.Textract, a.Config.Extraction, structurer, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Textract extractor: %w", err)
	}
	extractors = append(extractors, textract)

	extractors = append(extractors, extraction.NewLocalExtractor(&a.Config.OCR, a.Config.Extraction, a.PDFService, structurer, a.Logger))

	a.Chain = extraction.NewChain(a.Config.Extraction, a.Logger, extractors...)
	a.Processor = pipeline.NewProcessor(a.Config, a.StorageManager, a.PDFService, a.Chain, a.SheetWriter, a.Logger)

	return nil
}
