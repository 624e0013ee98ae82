package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/brandscan/internal/models"
	"github.com/Lllllllleong/brandscan/internal/raster"
)

// DocStore is the slice of the document repository the pipeline writes
// through.
type DocStore interface {
	Create(ctx context.Context, filename string) (*models.Document, error)
	Get(ctx context.Context, documentID string) (*models.Document, error)
	UpdateStatus(ctx context.Context, documentID string, status string) error
	UpdateTotalPages(ctx context.Context, documentID string, totalPages int) error
	SavePageResult(ctx context.Context, documentID string, result *models.PageResult) error
	SaveSummary(ctx context.Context, documentID string, summary *models.Summary) error
}

// Archiver stores the original upload for audit. Optional; a nil Archiver
// disables archiving.
type Archiver interface {
	Archive(ctx context.Context, documentID, filename string, data []byte) error
}

// RendererFactory opens an uploaded PDF for page rendering.
type RendererFactory func(data []byte, dpi int) (PageRenderer, error)

// DocumentProcessor validates uploads, fans pages out in batches and
// drives each document to a terminal status.
type DocumentProcessor struct {
	store       DocStore
	pages       *PageProcessor
	tracker     *Tracker
	archiver    Archiver
	newRenderer RendererFactory
	dpi         int
	batchSize   int
	maxParallel int
	log         zerolog.Logger
}

// NewDocumentProcessor wires the document pipeline.
func NewDocumentProcessor(store DocStore, pages *PageProcessor, tracker *Tracker, archiver Archiver, dpi, batchSize, maxParallel int, log zerolog.Logger) *DocumentProcessor {
	return &DocumentProcessor{
		store:    store,
		pages:    pages,
		tracker:  tracker,
		archiver: archiver,
		newRenderer: func(data []byte, dpi int) (PageRenderer, error) {
			return raster.NewConverter(data, dpi)
		},
		dpi:         dpi,
		batchSize:   batchSize,
		maxParallel: maxParallel,
		log:         log,
	}
}

// Process registers an uploaded PDF and starts its background run. It
// returns as soon as the document record exists; analysis continues
// asynchronously.
func (d *DocumentProcessor) Process(ctx context.Context, filename string, data []byte) (*models.Document, error) {
	pageCount, err := raster.ValidatePDF(data)
	if err != nil {
		return nil, fmt.Errorf("rejecting upload %q: %w", filename, err)
	}

	doc, err := d.store.Create(ctx, filename)
	if err != nil {
		return nil, err
	}
	if err := d.store.UpdateTotalPages(ctx, doc.ID, pageCount); err != nil {
		return nil, err
	}
	doc.TotalPages = pageCount

	if d.archiver != nil {
		if err := d.archiver.Archive(ctx, doc.ID, filename, data); err != nil {
			d.log.Warn().Str("document_id", doc.ID).Err(err).Msg("Original upload could not be archived")
		}
	}

	d.tracker.Start(doc.ID, pageCount)
	go d.run(doc.ID, data, pageCount)

	d.log.Info().Str("document_id", doc.ID).Str("filename", filename).
		Int("pages", pageCount).Msg("Document accepted for processing")
	return doc, nil
}

// run executes the batched page flow. It uses a fresh context so an
// aborted upload request does not kill the background work; cancellation
// goes through the tracker instead.
func (d *DocumentProcessor) run(documentID string, data []byte, totalPages int) {
	ctx := context.Background()
	defer d.tracker.Remove(documentID)

	renderer, err := d.newRenderer(data, d.dpi)
	if err != nil {
		d.log.Error().Str("document_id", documentID).Err(err).Msg("Could not open PDF for rendering")
		d.failAllPages(ctx, documentID, totalPages, err)
		d.finish(ctx, documentID, false)
		return
	}
	defer renderer.Close()

	cancelled := false
	batch := 0
	for start := 1; start <= totalPages; start += d.batchSize {
		if d.tracker.IsCancelled(documentID) {
			cancelled = true
			break
		}
		batch++
		d.tracker.SetBatch(documentID, batch)

		end := start + d.batchSize - 1
		if end > totalPages {
			end = totalPages
		}
		d.runBatch(ctx, documentID, renderer, start, end)
	}

	d.finish(ctx, documentID, cancelled)
}

// runBatch processes pages [start, end] concurrently and waits for all of
// them before returning.
func (d *DocumentProcessor) runBatch(ctx context.Context, documentID string, renderer PageRenderer, start, end int) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.maxParallel)

	for page := start; page <= end; page++ {
		g.Go(func() error {
			inFlight := &models.PageResult{
				PageNumber:     page,
				BrandsDetected: []string{},
				Status:         models.PageStatusProcessing,
			}
			if err := d.store.SavePageResult(gctx, documentID, inFlight); err != nil {
				d.log.Warn().Str("document_id", documentID).Int("page", page).Err(err).
					Msg("Could not record in-flight page state")
			}

			result := d.processPageSafely(gctx, renderer, page)
			if err := d.store.SavePageResult(gctx, documentID, result); err != nil {
				d.log.Error().Str("document_id", documentID).Int("page", page).Err(err).
					Msg("Page result could not be persisted")
				result.Status = models.PageStatusFailed
			}
			d.tracker.PageDone(documentID, result.Status == models.PageStatusFailed)
			return nil
		})
	}
	_ = g.Wait()
}

// processPageSafely converts a page worker panic into a failed page
// result so one bad page never takes down the run.
func (d *DocumentProcessor) processPageSafely(ctx context.Context, renderer PageRenderer, page int) (result *models.PageResult) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Int("page", page).Interface("panic", r).Msg("Page worker panicked")
			result = &models.PageResult{
				PageNumber:     page,
				BrandsDetected: []string{},
				Status:         models.PageStatusFailed,
				ErrorMessage:   fmt.Sprintf("internal error: %v", r),
			}
		}
	}()
	return d.pages.ProcessPage(ctx, renderer, page)
}

// finish derives and stores the terminal document status. The summary is
// generated on every non-cancelled completion, including partial and
// total failures.
func (d *DocumentProcessor) finish(ctx context.Context, documentID string, cancelled bool) {
	if cancelled {
		if err := d.store.UpdateStatus(ctx, documentID, models.StatusCancelled); err != nil {
			d.log.Error().Str("document_id", documentID).Err(err).Msg("Could not mark document cancelled")
		}
		d.log.Info().Str("document_id", documentID).Msg("Document run cancelled")
		return
	}

	doc, err := d.store.Get(ctx, documentID)
	if err != nil {
		d.log.Error().Str("document_id", documentID).Err(err).Msg("Could not load document for completion")
		_ = d.store.UpdateStatus(ctx, documentID, models.StatusFailed)
		return
	}

	summary := BuildSummary(doc)
	if err := d.store.SaveSummary(ctx, documentID, summary); err != nil {
		d.log.Error().Str("document_id", documentID).Err(err).Msg("Could not save summary")
	}

	status := models.AggregateStatus(doc.TotalPages, summary.FailedPages)
	if err := d.store.UpdateStatus(ctx, documentID, status); err != nil {
		d.log.Error().Str("document_id", documentID).Err(err).Msg("Could not store terminal status")
		return
	}
	d.log.Info().Str("document_id", documentID).Str("status", status).
		Int("unique_brands", len(summary.UniqueBrands)).Msg("Document run finished")
}

// failAllPages records a failed result for every page when the document
// cannot be rendered at all.
func (d *DocumentProcessor) failAllPages(ctx context.Context, documentID string, totalPages int, cause error) {
	for page := 1; page <= totalPages; page++ {
		result := &models.PageResult{
			PageNumber:     page,
			BrandsDetected: []string{},
			Status:         models.PageStatusFailed,
			ErrorMessage:   cause.Error(),
		}
		if err := d.store.SavePageResult(ctx, documentID, result); err != nil {
			d.log.Error().Str("document_id", documentID).Int("page", page).Err(err).
				Msg("Failed page result could not be persisted")
		}
		d.tracker.PageDone(documentID, true)
	}
}

// Cancel requests cancellation of a running document. The in-flight batch
// finishes; later batches never start.
func (d *DocumentProcessor) Cancel(documentID string) bool {
	return d.tracker.Cancel(documentID)
}

// Status returns the derived progress view for a document.
func (d *DocumentProcessor) Status(ctx context.Context, documentID string) (*models.ProcessingStatus, error) {
	doc, err := d.store.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return DeriveStatus(doc), nil
}

// ActiveProcesses lists currently running document jobs.
func (d *DocumentProcessor) ActiveProcesses() models.ActiveProcessesResponse {
	procs := d.tracker.Snapshot()
	return models.ActiveProcessesResponse{ActiveProcesses: procs, Count: len(procs)}
}
