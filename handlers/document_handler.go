package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"rfiresponder-backend/models"
	"rfiresponder-backend/storage"
	"rfiresponder-backend/vectorstore"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IngestRunner drives documents through the ingestion pipeline
type IngestRunner interface {
	RegisterDirectory(ctx context.Context, dir string) (int, error)
	Run(ctx context.Context) error
}

// DocumentLister reads ingestion state for API consumers
type DocumentLister interface {
	List(ctx context.Context) ([]*models.Document, error)
	GetByID(ctx context.Context, id int) (*models.Document, error)
}

// DocumentHandler handles HTTP requests for the ingestion knowledge base
type DocumentHandler struct {
	ingest           IngestRunner
	docs             DocumentLister
	store            vectorstore.Store
	storage          storage.Storage
	inputDir         string
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewDocumentHandler creates a new document handler. inputDir is where
// uploaded files land for the pipeline to pick up.
func NewDocumentHandler(ingest IngestRunner, docs DocumentLister, store vectorstore.Store, fileStorage storage.Storage, inputDir string) *DocumentHandler {
	return &DocumentHandler{
		ingest:      ingest,
		docs:        docs,
		store:       store,
		storage:     fileStorage,
		inputDir:    inputDir,
		maxFileSize: 25 * 1024 * 1024, // 25MB
		allowedMimeTypes: map[string]bool{
			"application/pdf":    true,
			"text/plain":         true,
			"text/markdown":      true,
			"application/msword": true, // .doc
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true, // .docx
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true, // .xlsx
		},
	}
}

// UploadDocument handles POST /api/documents/upload
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	mimeType := detectMimeType(fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if !h.allowedMimeTypes[mimeType] && !strings.HasPrefix(mimeType, "text/") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "File type not allowed. Allowed types: PDF, TXT, MD, DOC, DOCX, XLSX",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	// archive the original before it enters the pipeline
	fileID := uuid.New()
	if _, err := h.storage.Upload(c.Request.Context(), fileID, fileHeader.Filename, file); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": fmt.Sprintf("Failed to archive file: %v", err),
			},
		})
		return
	}

	if err := c.SaveUploadedFile(fileHeader, filepath.Join(h.inputDir, fileHeader.Filename)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": fmt.Sprintf("Failed to stage file for ingestion: %v", err),
			},
		})
		return
	}

	registered, err := h.ingest.RegisterDirectory(c.Request.Context(), h.inputDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REGISTRATION_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"filename":   fileHeader.Filename,
			"size":       fileHeader.Size,
			"mime_type":  mimeType,
			"registered": registered,
		},
	})
}

// RunIngestion handles POST /api/documents/ingest. The pipeline runs in the
// background; clients poll document statuses for progress.
func (h *DocumentHandler) RunIngestion(c *gin.Context) {
	go func() {
		// request context dies with the response; the pipeline must not
		bgCtx := context.Background()
		if err := h.ingest.Run(bgCtx); err != nil {
			log.Printf("Warning: ingestion run failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"message": "Ingestion started. Poll /api/documents for status updates.",
		},
	})
}

// ListDocuments handles GET /api/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	docs, err := h.docs.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    docs,
	})
}

// GetDocument handles GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	doc, err := h.docs.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Document not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    doc,
	})
}

// SearchKnowledgeBase handles GET /api/knowledge-base/search
func (h *DocumentHandler) SearchKnowledgeBase(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_QUERY",
				"message": "Query parameter q is required",
			},
		})
		return
	}

	limit := 10
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 50 {
		limit = l
	}

	results, err := h.store.Search(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SEARCH_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    results,
	})
}

func detectMimeType(filename, headerType string) string {
	// most multipart clients send application/octet-stream; the extension
	// is the more reliable signal then
	if headerType != "" && headerType != "application/octet-stream" {
		return headerType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
