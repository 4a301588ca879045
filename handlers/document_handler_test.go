package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfiresponder-backend/models"
	"rfiresponder-backend/vectorstore"
)

// fakeIngestRunner records pipeline invocations
type fakeIngestRunner struct {
	mu         sync.Mutex
	registered int
	runs       int
	runErr     error
}

func (f *fakeIngestRunner) RegisterDirectory(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered++
	return 1, nil
}

func (f *fakeIngestRunner) Run(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return f.runErr
}

func (f *fakeIngestRunner) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

type fakeDocumentLister struct {
	docs []*models.Document
	err  error
}

func (f *fakeDocumentLister) List(context.Context) ([]*models.Document, error) {
	return f.docs, f.err
}

func (f *fakeDocumentLister) GetByID(_ context.Context, id int) (*models.Document, error) {
	for _, doc := range f.docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return nil, errors.New("not found")
}

type fakeKnowledgeStore struct {
	results []vectorstore.SearchResult
	err     error
}

func (f *fakeKnowledgeStore) Add(context.Context, []vectorstore.Entry) error { return nil }

func (f *fakeKnowledgeStore) ExistingIDs(context.Context) (map[string]struct{}, error) {
	return nil, nil
}

func (f *fakeKnowledgeStore) Search(context.Context, string, int) ([]vectorstore.SearchResult, error) {
	return f.results, f.err
}

// fakeArchive is an in-memory storage.Storage
type fakeArchive struct {
	uploads []string
}

func (f *fakeArchive) Upload(_ context.Context, _ uuid.UUID, filename string, data io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, data); err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, filename)
	return "archive/" + filename, nil
}

func (f *fakeArchive) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeArchive) Delete(context.Context, string) error { return nil }

func documentRouter(h *DocumentHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/documents/upload", h.UploadDocument)
	r.POST("/api/documents/ingest", h.RunIngestion)
	r.GET("/api/documents", h.ListDocuments)
	r.GET("/api/documents/:id", h.GetDocument)
	r.GET("/api/knowledge-base/search", h.SearchKnowledgeBase)
	return r
}

func TestUploadDocumentArchivesAndRegisters(t *testing.T) {
	ingest := &fakeIngestRunner{}
	archive := &fakeArchive{}
	h := NewDocumentHandler(ingest, &fakeDocumentLister{}, &fakeKnowledgeStore{}, archive, t.TempDir())

	body, contentType := multipartUpload(t, "file", "whitepaper.pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"whitepaper.pdf"}, archive.uploads)
	assert.Equal(t, 1, ingest.registered)

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "whitepaper.pdf", data["filename"])
	assert.Equal(t, "application/pdf", data["mime_type"])
}

func TestDetectMimeTypeFallsBackToExtension(t *testing.T) {
	// multipart clients commonly send octet-stream; the filename extension
	// must still identify the document
	assert.Equal(t, "application/pdf", detectMimeType("report.pdf", "application/octet-stream"))
	assert.Equal(t, "application/pdf", detectMimeType("Report.PDF", ""))
	assert.Equal(t, "text/markdown", detectMimeType("notes.md", "application/octet-stream"))
	assert.Equal(t, "application/pdf", detectMimeType("report.pdf", "application/pdf"))
	assert.Equal(t, "application/octet-stream", detectMimeType("binary.exe", "application/octet-stream"))
}

func TestUploadDocumentRejectsUnknownType(t *testing.T) {
	h := NewDocumentHandler(&fakeIngestRunner{}, &fakeDocumentLister{}, &fakeKnowledgeStore{}, &fakeArchive{}, t.TempDir())

	body, contentType := multipartUpload(t, "file", "binary.exe", "MZ")
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	errObj := envelope["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_FILE_TYPE", errObj["code"])
}

func TestRunIngestionIsAsynchronous(t *testing.T) {
	ingest := &fakeIngestRunner{}
	h := NewDocumentHandler(ingest, &fakeDocumentLister{}, &fakeKnowledgeStore{}, &fakeArchive{}, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/ingest", nil)
	rec := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool { return ingest.runCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestGetDocumentByID(t *testing.T) {
	docType := models.DocumentTypeRFI
	lister := &fakeDocumentLister{docs: []*models.Document{{
		ID:              3,
		SourceFilename:  "acme_rfp.docx",
		DocumentType:    &docType,
		IngestionStatus: models.StatusVectorized,
	}}}
	h := NewDocumentHandler(&fakeIngestRunner{}, lister, &fakeKnowledgeStore{}, &fakeArchive{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/documents/3", nil)
	rec := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "acme_rfp.docx", data["source_filename"])
	assert.Equal(t, string(models.StatusVectorized), data["ingestion_status"])
}

func TestGetDocumentBadID(t *testing.T) {
	h := NewDocumentHandler(&fakeIngestRunner{}, &fakeDocumentLister{}, &fakeKnowledgeStore{}, &fakeArchive{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/documents/abc", nil)
	rec := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchKnowledgeBase(t *testing.T) {
	store := &fakeKnowledgeStore{results: []vectorstore.SearchResult{
		{ID: "11", Content: "Question: Q?\n\nAnswer: A.", Distance: 0.1},
	}}
	h := NewDocumentHandler(&fakeIngestRunner{}, &fakeDocumentLister{}, store, &fakeArchive{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge-base/search?q=encryption&limit=5", nil)
	rec := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].([]interface{})
	require.Len(t, data, 1)
}

func TestSearchKnowledgeBaseRequiresQuery(t *testing.T) {
	h := NewDocumentHandler(&fakeIngestRunner{}, &fakeDocumentLister{}, &fakeKnowledgeStore{}, &fakeArchive{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge-base/search", nil)
	rec := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_QUERY")
}
