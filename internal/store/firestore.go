// Package store persists documents and their per-page results in Firestore.
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/brandscan/internal/models"
)

// ErrNotFound reports a document ID with no backing Firestore document.
var ErrNotFound = fmt.Errorf("document not found")

const (
	retryAttempts  = 3
	retryBaseDelay = 500 * time.Millisecond
)

// Store is the Firestore-backed document repository. One Store serves the
// whole process; the underlying client is goroutine-safe.
type Store struct {
	client     *firestore.Client
	collection string
	log        zerolog.Logger
}

// New builds a Store over an existing Firestore client.
func New(client *firestore.Client, collection string, log zerolog.Logger) *Store {
	return &Store{client: client, collection: collection, log: log}
}

func (s *Store) docRef(documentID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(documentID)
}

// Create registers a freshly uploaded document and returns its generated
// ID. The document starts in the processing state with an empty results
// map; TotalPages is filled in once the PDF has been inspected.
func (s *Store) Create(ctx context.Context, filename string) (*models.Document, error) {
	doc := &models.Document{
		ID:         uuid.New().String(),
		Filename:   filename,
		TotalPages: 0,
		UploadDate: time.Now().UTC(),
		Status:     models.StatusProcessing,
		Results:    map[string]*models.PageResult{},
	}

	err := s.withRetry(ctx, "create", func() error {
		_, err := s.docRef(doc.ID).Set(ctx, doc)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating document record for %q: %w", filename, err)
	}

	s.log.Info().Str("document_id", doc.ID).Str("filename", filename).Msg("Document record created")
	return doc, nil
}

// Get loads a document by ID. Returns ErrNotFound when no record exists.
func (s *Store) Get(ctx context.Context, documentID string) (*models.Document, error) {
	snap, err := s.docRef(documentID).Get(ctx)
	if snap != nil && !snap.Exists() {
		return nil, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching document %s: %w", documentID, err)
	}

	var doc models.Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", documentID, err)
	}
	doc.ID = snap.Ref.ID
	return &doc, nil
}

// GetAll returns every stored document, newest upload first.
func (s *Store) GetAll(ctx context.Context) ([]*models.Document, error) {
	iter := s.client.Collection(s.collection).
		OrderBy("uploadDate", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var docs []*models.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}

		var doc models.Document
		if err := snap.DataTo(&doc); err != nil {
			s.log.Warn().Str("document_id", snap.Ref.ID).Err(err).Msg("Skipping undecodable document")
			continue
		}
		doc.ID = snap.Ref.ID
		docs = append(docs, &doc)
	}
	return docs, nil
}

// Delete removes a document record. Deleting an unknown ID returns
// ErrNotFound so callers can report it accurately.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	snap, err := s.docRef(documentID).Get(ctx)
	if snap != nil && !snap.Exists() {
		return fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking document %s before delete: %w", documentID, err)
	}

	if _, err := s.docRef(documentID).Delete(ctx); err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	s.log.Info().Str("document_id", documentID).Msg("Document deleted")
	return nil
}

// UpdateStatus sets the document-level status.
func (s *Store) UpdateStatus(ctx context.Context, documentID string, status string) error {
	err := s.withRetry(ctx, "update status", func() error {
		_, err := s.docRef(documentID).Update(ctx, []firestore.Update{
			{Path: "status", Value: status},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("updating status of %s to %s: %w", documentID, status, err)
	}
	return nil
}

// UpdateTotalPages records the page count discovered during validation.
func (s *Store) UpdateTotalPages(ctx context.Context, documentID string, totalPages int) error {
	err := s.withRetry(ctx, "update total pages", func() error {
		_, err := s.docRef(documentID).Update(ctx, []firestore.Update{
			{Path: "totalPages", Value: totalPages},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("updating total pages of %s: %w", documentID, err)
	}
	return nil
}

// SavePageResult writes one page's result into the results map, enforcing
// the monotonic pending -> processing -> terminal progression. Each page
// writes a distinct field path, so concurrent pages never clobber each
// other.
func (s *Store) SavePageResult(ctx context.Context, documentID string, result *models.PageResult) error {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return err
	}

	from := models.PageStatusPending
	if existing, ok := doc.Results[strconv.Itoa(result.PageNumber)]; ok {
		from = existing.Status
	}
	if !models.CanTransitionPage(from, result.Status) {
		return fmt.Errorf("page %d of %s: illegal status transition %s -> %s",
			result.PageNumber, documentID, from, result.Status)
	}

	field := "results." + strconv.Itoa(result.PageNumber)
	err = s.withRetry(ctx, "save page result", func() error {
		_, err := s.docRef(documentID).Update(ctx, []firestore.Update{
			{Path: field, Value: result},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("saving result for page %d of %s: %w", result.PageNumber, documentID, err)
	}
	return nil
}

// UpdateBrandReview marks one detected brand on one page as reviewed or
// not. Returns ErrNotFound when the document is missing, and a plain
// error when the page or brand is not part of the stored results.
func (s *Store) UpdateBrandReview(ctx context.Context, documentID string, pageNumber int, brand string, reviewed bool) error {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return err
	}

	page, ok := doc.Results[strconv.Itoa(pageNumber)]
	if !ok {
		return fmt.Errorf("document %s has no results for page %d", documentID, pageNumber)
	}
	found := false
	for _, b := range page.BrandsDetected {
		if b == brand {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("brand %q was not detected on page %d of %s", brand, pageNumber, documentID)
	}

	err = s.withRetry(ctx, "update brand review", func() error {
		_, err := s.docRef(documentID).Update(ctx, []firestore.Update{
			{FieldPath: brandReviewPath(pageNumber, brand), Value: reviewed},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("updating review of %q on page %d of %s: %w", brand, pageNumber, documentID, err)
	}
	return nil
}

// SaveSummary stores the aggregated run summary on the document.
func (s *Store) SaveSummary(ctx context.Context, documentID string, summary *models.Summary) error {
	err := s.withRetry(ctx, "save summary", func() error {
		_, err := s.docRef(documentID).Update(ctx, []firestore.Update{
			{Path: "summary", Value: summary},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("saving summary of %s: %w", documentID, err)
	}
	return nil
}

// brandReviewPath addresses one brand's review flag as explicit field
// path components. Brand names are user data and routinely contain dots
// or other characters ("A.O. Smith", "Bosch [DE]") that a dot-separated
// path string would either split into nested maps or reject outright.
func brandReviewPath(pageNumber int, brand string) firestore.FieldPath {
	return firestore.FieldPath{"results", strconv.Itoa(pageNumber), "reviewedBrands", brand}
}

// withRetry runs fn up to retryAttempts times with exponential backoff.
// The delay is local to each call.
func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
	delay := retryBaseDelay
	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == retryAttempts {
			break
		}
		s.log.Warn().Str("op", op).Int("attempt", attempt).Err(err).
			Dur("retry_in", delay).Msg("Firestore write failed, retrying")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}
