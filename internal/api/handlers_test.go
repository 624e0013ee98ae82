package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/brandscan/internal/models"
	"github.com/Lllllllleong/brandscan/internal/store"
)

type fakeStore struct {
	docs       map[string]*models.Document
	reviewErr  error
	lastReview models.BrandReviewUpdate
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, store.ErrNotFound)
	}
	return doc, nil
}

func (f *fakeStore) GetAll(_ context.Context) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range f.docs {
		out = append(out, doc)
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, store.ErrNotFound)
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeStore) UpdateBrandReview(_ context.Context, id string, page int, brand string, reviewed bool) error {
	if _, ok := f.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, store.ErrNotFound)
	}
	if f.reviewErr != nil {
		return f.reviewErr
	}
	f.lastReview = models.BrandReviewUpdate{PageNumber: page, BrandName: brand, IsReviewed: reviewed}
	return nil
}

type fakeProcessor struct {
	accepted   *models.Document
	processErr error
	cancelled  map[string]bool
	status     *models.ProcessingStatus
}

func (f *fakeProcessor) Process(_ context.Context, filename string, data []byte) (*models.Document, error) {
	if f.processErr != nil {
		return nil, f.processErr
	}
	f.accepted = &models.Document{ID: "doc-new", Filename: filename, TotalPages: len(data) % 10, Status: models.StatusProcessing}
	return f.accepted, nil
}

func (f *fakeProcessor) Cancel(id string) bool { return f.cancelled[id] }

func (f *fakeProcessor) Status(_ context.Context, id string) (*models.ProcessingStatus, error) {
	if f.status == nil {
		return nil, fmt.Errorf("document %s: %w", id, store.ErrNotFound)
	}
	return f.status, nil
}

func (f *fakeProcessor) ActiveProcesses() models.ActiveProcessesResponse {
	return models.ActiveProcessesResponse{Count: 1, ActiveProcesses: []models.ActiveProcess{{DocumentID: "doc-1"}}}
}

func newTestServer(fs *fakeStore, fp *fakeProcessor, maxFileSize int64) *httptest.Server {
	h := NewHandler(fs, fp, maxFileSize, zerolog.Nop())
	return httptest.NewServer(NewRouter(h))
}

func multipartPDF(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadAcceptsPDF(t *testing.T) {
	fp := &fakeProcessor{}
	srv := newTestServer(&fakeStore{docs: map[string]*models.Document{}}, fp, 0)
	defer srv.Close()

	body, contentType := multipartPDF(t, "planos.pdf", []byte("%PDF-1.4 fake"))
	resp, err := http.Post(srv.URL+"/api/documents/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var doc models.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "doc-new", doc.ID)
	assert.Equal(t, "planos.pdf", fp.accepted.Filename)
}

func TestUploadRejectsNonPDFExtension(t *testing.T) {
	srv := newTestServer(&fakeStore{docs: map[string]*models.Document{}}, &fakeProcessor{}, 0)
	defer srv.Close()

	body, contentType := multipartPDF(t, "notes.txt", []byte("hello"))
	resp, err := http.Post(srv.URL+"/api/documents/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadSurfacesValidationFailure(t *testing.T) {
	fp := &fakeProcessor{processErr: fmt.Errorf("rejecting upload: not a readable PDF")}
	srv := newTestServer(&fakeStore{docs: map[string]*models.Document{}}, fp, 0)
	defer srv.Close()

	body, contentType := multipartPDF(t, "broken.pdf", []byte("not a pdf"))
	resp, err := http.Post(srv.URL+"/api/documents/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetDocument(t *testing.T) {
	fs := &fakeStore{docs: map[string]*models.Document{
		"doc-1": {ID: "doc-1", Filename: "a.pdf", Status: models.StatusCompleted},
	}}
	srv := newTestServer(fs, &fakeProcessor{}, 0)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/documents/doc-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/api/documents/doc-missing")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestDeleteDocument(t *testing.T) {
	fs := &fakeStore{docs: map[string]*models.Document{"doc-1": {ID: "doc-1"}}}
	srv := newTestServer(fs, &fakeProcessor{}, 0)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/documents/doc-1", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, fs.docs)
}

func TestGetSummaryNotReady(t *testing.T) {
	fs := &fakeStore{docs: map[string]*models.Document{
		"doc-1": {ID: "doc-1", Status: models.StatusProcessing},
	}}
	srv := newTestServer(fs, &fakeProcessor{}, 0)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/documents/doc-1/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelProcessing(t *testing.T) {
	fp := &fakeProcessor{cancelled: map[string]bool{"doc-1": true}}
	srv := newTestServer(&fakeStore{docs: map[string]*models.Document{}}, fp, 0)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/documents/doc-1/cancel", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Post(srv.URL+"/api/documents/doc-2/cancel", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestReviewBrand(t *testing.T) {
	fs := &fakeStore{docs: map[string]*models.Document{"doc-1": {ID: "doc-1"}}}
	srv := newTestServer(fs, &fakeProcessor{}, 0)
	defer srv.Close()

	payload := `{"page_number": 2, "brand_name": "Bosch", "is_reviewed": true}`
	resp, err := http.Post(srv.URL+"/api/documents/doc-1/brands/review", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.BrandReviewUpdate{PageNumber: 2, BrandName: "Bosch", IsReviewed: true}, fs.lastReview)
}

func TestReviewBrandRejectsBadPayload(t *testing.T) {
	fs := &fakeStore{docs: map[string]*models.Document{"doc-1": {ID: "doc-1"}}}
	srv := newTestServer(fs, &fakeProcessor{}, 0)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/documents/doc-1/brands/review", "application/json", strings.NewReader(`{"page_number": 0}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActiveProcesses(t *testing.T) {
	srv := newTestServer(&fakeStore{docs: map[string]*models.Document{}}, &fakeProcessor{}, 0)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/active/processes")
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload models.ActiveProcessesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 1, payload.Count)
}

func TestExportDocument(t *testing.T) {
	fs := &fakeStore{docs: map[string]*models.Document{
		"doc-1": {
			ID:       "doc-1",
			Filename: "a.pdf",
			Status:   models.StatusCompleted,
			Results: map[string]*models.PageResult{
				"1": {PageNumber: 1, Status: models.PageStatusCompleted, BrandsDetected: []string{"Acme"}},
			},
		},
	}}
	srv := newTestServer(fs, &fakeProcessor{}, 0)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/documents/doc-1/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "doc-1.xlsx")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeStore{docs: map[string]*models.Document{}}, &fakeProcessor{}, 0)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
