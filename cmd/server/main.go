package main

import (
	"fmt"
	"log"

	"shipdocs/internal/config"
	"shipdocs/internal/content"
	"shipdocs/internal/handler"
	"shipdocs/internal/ocr"
	"shipdocs/internal/oracle"
	"shipdocs/internal/port"
	"shipdocs/internal/router"
	"shipdocs/internal/service"
	localstorage "shipdocs/internal/storage/local"
	s3storage "shipdocs/internal/storage/s3"
	"shipdocs/internal/store"

	// Register the oracle providers.
	_ "shipdocs/internal/oracle/claude"
	_ "shipdocs/internal/oracle/openai"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize storage
	var objectStorage port.ObjectStorage
	switch cfg.Storage.Backend {
	case "s3":
		objectStorage, err = s3storage.NewS3Client(&cfg.Storage.S3)
	default:
		objectStorage, err = localstorage.NewLocalClient(cfg.Storage.LocalDir)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	recordStore, err := store.NewJSONFileStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}

	// Initialize the extraction pipeline
	runner := ocr.NewExecRunner()
	fallback := ocr.NewFallback(cfg.OCR, runner)
	extractor := content.NewExtractor(cfg.Extract, fallback, runner)

	fieldOracle, err := oracle.NewOracle(&cfg.Oracle)
	if err != nil {
		return fmt.Errorf("failed to initialize oracle: %w", err)
	}

	// Initialize services
	shipmentSvc := service.NewShipmentService(cfg, extractor, fieldOracle, objectStorage, recordStore)

	// Initialize handlers
	shipmentH := handler.NewShipmentHandler(shipmentSvc)
	documentH := handler.NewDocumentHandler(shipmentSvc)
	healthH := handler.NewHealthHandler()

	// Setup router
	r := router.Setup(cfg, shipmentH, documentH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
