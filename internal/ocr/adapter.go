package ocr

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Lllllllleong/brandscan/internal/governor"
	"github.com/Lllllllleong/brandscan/internal/tiling"
)

// lineThreshold is the vertical window, in pixels, within which detections
// are treated as the same text line when combining.
const lineThreshold = 50

// Adapter runs the OCR engine over tiles with bounded concurrency, retry,
// confidence filtering and coordinate correction. Extraction is
// best-effort per tile: one bad tile must not void a whole page, so
// failures degrade to an empty detection list.
type Adapter struct {
	engine        Engine
	gov           *governor.Governor
	languages     []string
	minConfidence float64
	maxRetries    int
	retryDelay    time.Duration
	log           zerolog.Logger
}

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	Languages     []string
	MinConfidence float64
	MaxRetries    int
	RetryDelay    time.Duration
}

// NewAdapter wires an engine behind the shared OCR governor.
func NewAdapter(engine Engine, gov *governor.Governor, cfg AdapterConfig, log zerolog.Logger) *Adapter {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Adapter{
		engine:        engine,
		gov:           gov,
		languages:     cfg.Languages,
		minConfidence: cfg.MinConfidence,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
		log:           log,
	}
}

// ExtractTile recognizes text in one tile and maps detections into
// full-page coordinates. The backend call is gated by the governor and
// retried with exponential backoff; once attempts are exhausted the tile
// contributes nothing.
func (a *Adapter) ExtractTile(ctx context.Context, tile tiling.Tile, page int) []TextDetection {
	var raw []TextDetection

	// Backoff state is local to this call so concurrent extractions
	// never interfere with each other's delays. Each attempt acquires
	// its own governor slot; a tile waiting out a backoff must not hold
	// capacity away from sibling tiles.
	delay := a.retryDelay
	var err error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		err = a.gov.Do(ctx, func() error {
			detections, recErr := a.engine.Recognize(ctx, tile.Image, a.languages)
			if recErr != nil {
				return recErr
			}
			raw = detections
			return nil
		})
		if err == nil {
			break
		}
		if ctx.Err() != nil || attempt == a.maxRetries {
			break
		}
		a.log.Warn().
			Int("page", page).
			Int("tile", tile.Index).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Err(err).
			Msg("ocr attempt failed, retrying")
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(delay):
			delay *= 2
			continue
		}
		break
	}
	if err != nil {
		a.log.Error().
			Int("page", page).
			Int("tile", tile.Index).
			Err(err).
			Msg("ocr failed for tile, contributing no text")
		return nil
	}

	out := make([]TextDetection, 0, len(raw))
	for _, d := range raw {
		if d.Confidence < a.minConfidence {
			continue
		}
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		d.Text = text
		d.TileX = tile.OffsetX
		d.TileY = tile.OffsetY
		for i := range d.Box {
			d.Box[i].X += tile.OffsetX
			d.Box[i].Y += tile.OffsetY
		}
		out = append(out, d)
	}
	return out
}

// Combine delegates to the package-level Combine.
func (a *Adapter) Combine(detections []TextDetection) string {
	return Combine(detections)
}

// Combine linearizes detections into a single text document: sorted by
// vertical position, fragments within the same-line window joined with
// spaces, larger gaps separated by line breaks. Positional structure is
// deliberately flattened so the downstream analysis sees plain text.
func Combine(detections []TextDetection) string {
	if len(detections) == 0 {
		return ""
	}

	sorted := make([]TextDetection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box[0].Y < sorted[j].Box[0].Y
	})

	var b strings.Builder
	currentY := -1
	for _, d := range sorted {
		y := d.Box[0].Y
		if currentY != -1 && abs(y-currentY) > lineThreshold {
			b.WriteString("\n")
		} else if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(d.Text)
		currentY = y
	}
	return strings.TrimSpace(b.String())
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
