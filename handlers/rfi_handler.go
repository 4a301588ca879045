package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"rfiresponder-backend/models"
	"rfiresponder-backend/service"
	"rfiresponder-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RfiManager is the review-workflow surface the handler needs
type RfiManager interface {
	CreateFromParsed(ctx context.Context, filename string, parsed *models.ParsedDocument) (*models.RfiDocument, error)
	Get(ctx context.Context, id uuid.UUID) (*models.RfiDocument, error)
	ListActive(ctx context.Context) ([]*models.RfiDocument, error)
	SaveSection(ctx context.Context, id uuid.UUID, sectionID, response, user string) (*models.RfiDocument, error)
	MarkSectionComplete(ctx context.Context, id uuid.UUID, sectionID, user string) (*models.RfiDocument, error)
	SubmitReview(ctx context.Context, id uuid.UUID, user string) (*models.RfiDocument, error)
}

// Drafter runs the background drafting pipeline over an RFI document
type Drafter interface {
	ProcessRfi(ctx context.Context, id uuid.UUID)
}

// TemplateConverter converts an uploaded template file to markdown
type TemplateConverter interface {
	Convert(path string) (text string, savedPath string, err error)
}

// TemplateParser extracts questions from blank template markdown
type TemplateParser interface {
	Parse(ctx context.Context, text string) (*models.ParsedDocument, error)
}

// RfiHandler handles HTTP requests for RFI drafting and review
type RfiHandler struct {
	rfiService RfiManager
	drafter    Drafter
	converter  TemplateConverter
	parser     TemplateParser
	storage    storage.Storage
	uploadDir  string
}

// NewRfiHandler creates a new RFI handler. uploadDir holds uploaded templates
// while they are converted and parsed.
func NewRfiHandler(rfiService RfiManager, drafter Drafter, converter TemplateConverter, parser TemplateParser, fileStorage storage.Storage, uploadDir string) *RfiHandler {
	return &RfiHandler{
		rfiService: rfiService,
		drafter:    drafter,
		converter:  converter,
		parser:     parser,
		storage:    fileStorage,
		uploadDir:  uploadDir,
	}
}

// UploadRfi handles POST /api/rfis/upload. The blank template is converted
// and parsed synchronously so the client gets the question list back, then
// drafting runs in the background.
func (h *RfiHandler) UploadRfi(c *gin.Context) {
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

	dest := filepath.Join(h.uploadDir, fileHeader.Filename)
	if err := c.SaveUploadedFile(fileHeader, dest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": fmt.Sprintf("Failed to save template: %v", err),
			},
		})
		return
	}

	if h.storage != nil {
		if file, err := os.Open(dest); err == nil {
			// archival only; drafting proceeds from the local copy
			_, _ = h.storage.Upload(c.Request.Context(), uuid.New(), fileHeader.Filename, file)
			file.Close()
		}
	}

	text, _, err := h.converter.Convert(dest)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CONVERSION_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	parsed, err := h.parser.Parse(c.Request.Context(), text)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PARSE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	doc, err := h.rfiService.CreateFromParsed(c.Request.Context(), fileHeader.Filename, parsed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	// background context: drafting must outlive the request
	go h.drafter.ProcessRfi(context.Background(), doc.ID)

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"id":                  doc.ID,
			"title":               doc.Title,
			"number_of_questions": doc.NumberOfQuestions,
			"status":              doc.Status,
			"message":             "Drafting started. Poll /api/rfis/:id for progress.",
		},
	})
}

// ListRfis handles GET /api/rfis
func (h *RfiHandler) ListRfis(c *gin.Context) {
	docs, err := h.rfiService.ListActive(c.Request.Context())
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

// GetRfi handles GET /api/rfis/:id
func (h *RfiHandler) GetRfi(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	doc, err := h.rfiService.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "RFI document not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    doc,
	})
}

// SaveSectionRequest is the request body for saving a section edit
type SaveSectionRequest struct {
	Response string `json:"response"`
	User     string `json:"user"`
}

// SaveSection handles PUT /api/rfis/:id/sections/:sectionId
func (h *RfiHandler) SaveSection(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	sectionID, ok := h.parseSectionID(c)
	if !ok {
		return
	}

	var req SaveSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	doc, err := h.rfiService.SaveSection(c.Request.Context(), id, sectionID, req.Response, req.User)
	if err != nil {
		h.sectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    doc,
	})
}

// CompleteSectionRequest is the request body for completing a section
type CompleteSectionRequest struct {
	User string `json:"user"`
}

// CompleteSection handles POST /api/rfis/:id/sections/:sectionId/complete
func (h *RfiHandler) CompleteSection(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	sectionID, ok := h.parseSectionID(c)
	if !ok {
		return
	}

	var req CompleteSectionRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	doc, err := h.rfiService.MarkSectionComplete(c.Request.Context(), id, sectionID, req.User)
	if err != nil {
		h.sectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    doc,
	})
}

// SubmitReview handles POST /api/rfis/:id/submit
func (h *RfiHandler) SubmitReview(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req CompleteSectionRequest
	_ = c.ShouldBindJSON(&req)

	doc, err := h.rfiService.SubmitReview(c.Request.Context(), id, req.User)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SUBMIT_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    doc,
	})
}

// RegenerateDraft handles POST /api/rfis/:id/regenerate
func (h *RfiHandler) RegenerateDraft(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if _, err := h.rfiService.Get(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "RFI document not found",
			},
		})
		return
	}

	go h.drafter.ProcessRfi(context.Background(), id)

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"id":      id,
			"message": "Drafting restarted. Poll /api/rfis/:id for progress.",
		},
	})
}

func (h *RfiHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid RFI document ID format",
			},
		})
		return uuid.Nil, false
	}
	return id, true
}

// parseSectionID accepts any non-empty id: question sections use numeric
// ids, saved sections carry opaque strings.
func (h *RfiHandler) parseSectionID(c *gin.Context) (string, bool) {
	sectionID := c.Param("sectionId")
	if sectionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SECTION_ID",
				"message": "Section ID is required",
			},
		})
		return "", false
	}
	return sectionID, true
}

func (h *RfiHandler) sectionError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSectionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SECTION_NOT_FOUND",
				"message": "Section not found in RFI document",
			},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UPDATE_FAILED",
			"message": err.Error(),
		},
	})
}
