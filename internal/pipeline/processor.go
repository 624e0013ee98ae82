package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/brandscan/internal/config"
	"github.com/Lllllllleong/brandscan/internal/models"
	"github.com/Lllllllleong/brandscan/internal/ocr"
	"github.com/Lllllllleong/brandscan/internal/raster"
	"github.com/Lllllllleong/brandscan/internal/tiling"
)

// BrandDetector turns page content into a cleaned brand list. Both
// methods degrade to an empty list on failure.
type BrandDetector interface {
	DetectImage(ctx context.Context, pngData []byte, page int) []string
	DetectText(ctx context.Context, text string, page int) []string
}

// TextExtractor pulls positioned text out of page tiles.
type TextExtractor interface {
	ExtractTile(ctx context.Context, tile tiling.Tile, page int) []ocr.TextDetection
	Combine(detections []ocr.TextDetection) string
}

// PageRenderer rasterizes pages of one open document. *raster.Converter
// satisfies it.
type PageRenderer interface {
	RenderPage(pageNumber int) (image.Image, error)
	Close() error
}

// PageProcessor analyzes a single rendered page with the configured
// extraction strategy.
type PageProcessor struct {
	strategy      string
	tilingEnabled bool
	tileOpts      tiling.Options
	detector      BrandDetector
	extractor     TextExtractor
	log           zerolog.Logger
}

// NewPageProcessor builds a page processor from the loaded configuration.
// The OCR extractor may be nil when the strategy is vision-only.
func NewPageProcessor(cfg *config.Config, detector BrandDetector, extractor TextExtractor, log zerolog.Logger) (*PageProcessor, error) {
	if cfg.ExtractionStrategy == config.StrategyOCR && extractor == nil {
		return nil, fmt.Errorf("ocr strategy selected but no text extractor configured")
	}
	return &PageProcessor{
		strategy:      cfg.ExtractionStrategy,
		tilingEnabled: cfg.TilingEnabled,
		tileOpts: tiling.Options{
			TileSize: cfg.TileSize,
			Overlap:  cfg.TileOverlap,
			MinSize:  cfg.MinTileSize,
		},
		detector:  detector,
		extractor: extractor,
		log:       log,
	}, nil
}

// ProcessPage renders and analyzes one page and always returns a terminal
// PageResult. Only an unrenderable page fails; every downstream problem
// degrades to an empty brand list on a completed page.
func (p *PageProcessor) ProcessPage(ctx context.Context, renderer PageRenderer, pageNumber int) *models.PageResult {
	start := time.Now()
	result := &models.PageResult{
		PageNumber:     pageNumber,
		BrandsDetected: []string{},
	}

	img, err := renderer.RenderPage(pageNumber)
	if err != nil {
		p.log.Error().Int("page", pageNumber).Err(err).Msg("Page render failed")
		result.Status = models.PageStatusFailed
		result.ErrorMessage = err.Error()
		result.ProcessingTime = time.Since(start).Seconds()
		return result
	}

	var brands []string
	switch p.strategy {
	case config.StrategyOCR:
		brands = p.detectViaOCR(ctx, img, pageNumber)
	default:
		brands = p.detectViaVision(ctx, img, pageNumber)
	}

	result.BrandsDetected = brands
	result.Status = models.PageStatusCompleted
	result.ProcessingTime = time.Since(start).Seconds()
	p.log.Info().Int("page", pageNumber).Int("brands", len(brands)).
		Float64("seconds", result.ProcessingTime).Msg("Page analyzed")
	return result
}

func (p *PageProcessor) detectViaVision(ctx context.Context, img image.Image, pageNumber int) []string {
	pngData, err := raster.EncodePNG(img)
	if err != nil {
		p.log.Error().Int("page", pageNumber).Err(err).Msg("Page encode failed, returning no brands")
		return []string{}
	}
	return p.detector.DetectImage(ctx, pngData, pageNumber)
}

func (p *PageProcessor) detectViaOCR(ctx context.Context, img image.Image, pageNumber int) []string {
	tiles := p.pageTiles(img)

	results := make([][]ocr.TextDetection, len(tiles))
	g, gctx := errgroup.WithContext(ctx)
	for i, tile := range tiles {
		g.Go(func() error {
			results[i] = p.extractor.ExtractTile(gctx, tile, pageNumber)
			return nil
		})
	}
	// Workers never return errors; ExtractTile degrades internally.
	_ = g.Wait()

	var detections []ocr.TextDetection
	for _, r := range results {
		detections = append(detections, r...)
	}
	text := p.extractor.Combine(detections)
	return p.detector.DetectText(ctx, text, pageNumber)
}

func (p *PageProcessor) pageTiles(img image.Image) []tiling.Tile {
	if p.tilingEnabled {
		return tiling.Split(img, p.tileOpts)
	}
	b := img.Bounds()
	return []tiling.Tile{{Image: img, OffsetX: b.Min.X, OffsetY: b.Min.Y}}
}
