// Package api exposes the document pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Lllllllleong/brandscan/internal/models"
	"github.com/Lllllllleong/brandscan/internal/pipeline"
	"github.com/Lllllllleong/brandscan/internal/report"
	"github.com/Lllllllleong/brandscan/internal/store"
)

// DocumentStore is the repository surface the handlers read and mutate.
type DocumentStore interface {
	Get(ctx context.Context, documentID string) (*models.Document, error)
	GetAll(ctx context.Context) ([]*models.Document, error)
	Delete(ctx context.Context, documentID string) error
	UpdateBrandReview(ctx context.Context, documentID string, pageNumber int, brand string, reviewed bool) error
}

// Processor is the pipeline surface the handlers drive.
type Processor interface {
	Process(ctx context.Context, filename string, data []byte) (*models.Document, error)
	Cancel(documentID string) bool
	Status(ctx context.Context, documentID string) (*models.ProcessingStatus, error)
	ActiveProcesses() models.ActiveProcessesResponse
}

// Handler carries the dependencies for all API endpoints.
type Handler struct {
	store       DocumentStore
	processor   Processor
	maxFileSize int64
	log         zerolog.Logger
}

// NewHandler builds the API handler set. maxFileSize of 0 disables the
// upload size limit.
func NewHandler(docStore DocumentStore, processor Processor, maxFileSize int64, log zerolog.Logger) *Handler {
	return &Handler{
		store:       docStore,
		processor:   processor,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// Upload handles POST /api/documents/upload. The PDF is validated
// synchronously; analysis continues in the background and the accepted
// document record is returned immediately.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing file field in multipart form")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		h.writeError(w, http.StatusBadRequest, "only PDF uploads are accepted")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file exceeds the %d byte upload limit", h.maxFileSize))
			return
		}
		h.writeError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	doc, err := h.processor.Process(r.Context(), header.Filename, data)
	if err != nil {
		h.log.Warn().Str("filename", header.Filename).Err(err).Msg("Upload rejected")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusAccepted, doc)
}

// ListDocuments handles GET /api/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.GetAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Listing documents failed")
		h.writeError(w, http.StatusInternalServerError, "could not list documents")
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	h.writeJSON(w, http.StatusOK, docs)
}

// GetDocument handles GET /api/documents/{documentID}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/{documentID}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if err := h.store.Delete(r.Context(), documentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		h.log.Error().Str("document_id", documentID).Err(err).Msg("Delete failed")
		h.writeError(w, http.StatusInternalServerError, "could not delete document")
		return
	}
	h.writeJSON(w, http.StatusOK, models.MessageResponse{Message: "document deleted"})
}

// GetResults handles GET /api/documents/{documentID}/results.
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	results := doc.Results
	if results == nil {
		results = map[string]*models.PageResult{}
	}
	h.writeJSON(w, http.StatusOK, results)
}

// GetSummary handles GET /api/documents/{documentID}/summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	if doc.Summary == nil {
		h.writeError(w, http.StatusNotFound, "summary not available yet")
		return
	}
	h.writeJSON(w, http.StatusOK, doc.Summary)
}

// GetStatus handles GET /api/documents/{documentID}/status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	status, err := h.processor.Status(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		h.log.Error().Str("document_id", documentID).Err(err).Msg("Status lookup failed")
		h.writeError(w, http.StatusInternalServerError, "could not compute status")
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

// CancelProcessing handles POST /api/documents/{documentID}/cancel.
func (h *Handler) CancelProcessing(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if !h.processor.Cancel(documentID) {
		h.writeError(w, http.StatusNotFound, "no active processing for this document")
		return
	}
	h.writeJSON(w, http.StatusOK, models.MessageResponse{Message: "cancellation requested"})
}

// ReviewBrand handles POST /api/documents/{documentID}/brands/review.
func (h *Handler) ReviewBrand(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	var update models.BrandReviewUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid review payload")
		return
	}
	if update.BrandName == "" || update.PageNumber < 1 {
		h.writeError(w, http.StatusBadRequest, "brand_name and a positive page_number are required")
		return
	}

	err := h.store.UpdateBrandReview(r.Context(), documentID, update.PageNumber, update.BrandName, update.IsReviewed)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, models.MessageResponse{Message: "review updated"})
}

// ActiveProcesses handles GET /api/active/processes.
func (h *Handler) ActiveProcesses(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.processor.ActiveProcesses())
}

// ExportDocument handles GET /api/documents/{documentID}/export.
func (h *Handler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.ID+".xlsx"))
	if err := report.WriteExcel(w, doc); err != nil {
		h.log.Error().Str("document_id", doc.ID).Err(err).Msg("Excel export failed")
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var _ Processor = (*pipeline.DocumentProcessor)(nil)

func (h *Handler) loadDocument(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	documentID := chi.URLParam(r, "documentID")
	doc, err := h.store.Get(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "document not found")
			return nil, false
		}
		h.log.Error().Str("document_id", documentID).Err(err).Msg("Document lookup failed")
		h.writeError(w, http.StatusInternalServerError, "could not load document")
		return nil, false
	}
	return doc, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Response encoding failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, models.ErrorResponse{Error: msg})
}
