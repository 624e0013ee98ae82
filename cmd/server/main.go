// Command server runs the brand detection HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"

	"github.com/Lllllllleong/brandscan/internal/api"
	"github.com/Lllllllleong/brandscan/internal/config"
	"github.com/Lllllllleong/brandscan/internal/detect"
	"github.com/Lllllllleong/brandscan/internal/gcp"
	"github.com/Lllllllleong/brandscan/internal/governor"
	"github.com/Lllllllleong/brandscan/internal/ocr"
	"github.com/Lllllllleong/brandscan/internal/pipeline"
	"github.com/Lllllllleong/brandscan/internal/store"
)

// geminiPoolAdapter exposes the round-robin pool through the detector's
// narrower interface.
type geminiPoolAdapter struct {
	pool *gcp.GeminiPool
}

func (a geminiPoolAdapter) Pick(index int) detect.Generator {
	return a.pool.Model(index)
}

func main() {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	ctx := context.Background()
	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(config.GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return err
	}
	defer firestoreClient.Close()

	geminiPool, err := gcp.NewGeminiPool(ctx, cfg.ProjectID, cfg.VertexAIRegion, cfg.GeminiModel, cfg.ModelPoolSize)
	if err != nil {
		return err
	}
	defer geminiPool.Close()

	var archiver pipeline.Archiver
	if cfg.UploadBucket != "" {
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("creating storage client: %w", err)
		}
		defer storageClient.Close()
		archiver = gcp.NewUploadArchiver(storageClient, cfg.UploadBucket)
		log.Info().Str("bucket", cfg.UploadBucket).Msg("Source archiving enabled")
	}

	detectGov, err := governor.New(cfg.MaxConcurrentPages)
	if err != nil {
		return err
	}
	detector := detect.NewDetector(geminiPoolAdapter{pool: geminiPool}, detectGov, detect.DefaultDenylist(), log)

	var extractor pipeline.TextExtractor
	if cfg.ExtractionStrategy == config.StrategyOCR {
		ocrGov, err := governor.New(cfg.MaxConcurrentPages)
		if err != nil {
			return err
		}
		extractor = ocr.NewAdapter(ocr.NewTesseractEngine(), ocrGov, ocr.AdapterConfig{
			Languages:     cfg.OCRLanguages,
			MinConfidence: cfg.OCRConfidence,
			MaxRetries:    cfg.OCRMaxRetries,
			RetryDelay:    time.Duration(cfg.OCRRetryDelaySeconds * float64(time.Second)),
		}, log)
	}

	pageProcessor, err := pipeline.NewPageProcessor(cfg, detector, extractor, log)
	if err != nil {
		return err
	}

	docStore := store.New(firestoreClient, cfg.CollectionName, log)
	tracker := pipeline.NewTracker()
	processor := pipeline.NewDocumentProcessor(
		docStore, pageProcessor, tracker, archiver,
		cfg.PDFDPI, cfg.BatchSize, cfg.MaxConcurrentPages, log,
	)

	handler := api.NewHandler(docStore, processor, cfg.MaxFileSize, log)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: api.NewRouter(handler),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("strategy", cfg.ExtractionStrategy).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
