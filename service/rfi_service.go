package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"rfiresponder-backend/models"
)

// ErrSectionNotFound is returned when a section ID does not exist in an RFI payload
var ErrSectionNotFound = errors.New("section not found in rfi document")

// RfiRepository is the full persistence surface for RFI documents
type RfiRepository interface {
	RfiDocumentStore
	Create(ctx context.Context, doc *models.RfiDocument) error
	ListActive(ctx context.Context) ([]*models.RfiDocument, error)
}

// RfiService owns the lifecycle of RFI documents being answered: creation
// from a parsed template, section edits during review, and finalization.
// Every payload mutation recomputes progress and status from section counts.
type RfiService struct {
	rfiRepo RfiRepository
}

// RfiServiceOption is a functional option for RfiService
type RfiServiceOption func(*RfiService)

// WithRfiRepository sets the RFI document repository
func WithRfiRepository(repo RfiRepository) RfiServiceOption {
	return func(s *RfiService) { s.rfiRepo = repo }
}

// NewRfiService creates a new RFI service
func NewRfiService(opts ...RfiServiceOption) *RfiService {
	s := &RfiService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFromParsed builds a new RFI document from a parsed blank template.
// Each extracted question becomes a pending section awaiting drafting.
func (s *RfiService) CreateFromParsed(ctx context.Context, filename string, parsed *models.ParsedDocument) (*models.RfiDocument, error) {
	if s.rfiRepo == nil {
		return nil, errors.New("rfi repository not set")
	}
	if len(parsed.Questions) == 0 {
		return nil, errors.New("parsed template contains no questions")
	}

	sections := make([]models.RfiSection, len(parsed.Questions))
	for i, q := range parsed.Questions {
		sections[i] = models.RfiSection{
			ID:            i + 1,
			Question:      q.Question,
			Status:        models.SectionStatusPending,
			AssignedTo:    "",
			KnowledgeBase: []models.KnowledgeBaseItem{},
		}
	}

	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if parsed.Metadata != nil && parsed.Metadata.CompanyName != "" && parsed.Metadata.CompanyName != "Unknown" {
		title = fmt.Sprintf("%s %s", parsed.Metadata.CompanyName, parsed.Metadata.Category)
	}

	doc := &models.RfiDocument{
		ID:                uuid.New(),
		Title:             title,
		SourceFilename:    filename,
		NumberOfQuestions: len(sections),
		Status:            models.RfiStatusNotStarted,
		Progress:          0,
		Payload: &models.RfiPayload{
			Title:     title,
			FileName:  filename,
			Questions: sections,
			Metadata:  parsed.Metadata,
		},
	}

	if err := s.rfiRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get retrieves one RFI document
func (s *RfiService) Get(ctx context.Context, id uuid.UUID) (*models.RfiDocument, error) {
	if s.rfiRepo == nil {
		return nil, errors.New("rfi repository not set")
	}
	return s.rfiRepo.GetByID(ctx, id)
}

// ListActive retrieves every RFI document not yet finalized
func (s *RfiService) ListActive(ctx context.Context) ([]*models.RfiDocument, error) {
	if s.rfiRepo == nil {
		return nil, errors.New("rfi repository not set")
	}
	return s.rfiRepo.ListActive(ctx)
}

// sectionPatch is one edit applied to a section in either payload variant
type sectionPatch struct {
	response *string
	complete bool
}

// SaveSection records a user's edit to a section's response and refreshes the
// document's derived progress and status.
func (s *RfiService) SaveSection(ctx context.Context, id uuid.UUID, sectionID, response, user string) (*models.RfiDocument, error) {
	return s.mutateSection(ctx, id, sectionID, user, sectionPatch{response: &response}, "Saved response", "EDIT")
}

// MarkSectionComplete marks a section reviewed and complete
func (s *RfiService) MarkSectionComplete(ctx context.Context, id uuid.UUID, sectionID, user string) (*models.RfiDocument, error) {
	return s.mutateSection(ctx, id, sectionID, user, sectionPatch{complete: true}, "Marked complete", "COMPLETE")
}

func (s *RfiService) mutateSection(ctx context.Context, id uuid.UUID, sectionID, user string, patch sectionPatch, action, auditType string) (*models.RfiDocument, error) {
	if s.rfiRepo == nil {
		return nil, errors.New("rfi repository not set")
	}

	doc, err := s.rfiRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Payload == nil {
		return nil, ErrSectionNotFound
	}

	// both workflow shapes are editable; question sections use numeric ids,
	// saved sections carry opaque string ids
	question := ""
	found := false
	switch doc.Payload.Variant() {
	case models.VariantQuestions:
		for i := range doc.Payload.Questions {
			section := &doc.Payload.Questions[i]
			if strconv.Itoa(section.ID) != sectionID {
				continue
			}
			if patch.response != nil {
				section.Response = *patch.response
			}
			if patch.complete {
				section.Status = models.SectionStatusCompleted
			}
			if user != "" {
				section.AssignedTo = user
			}
			question = section.Question
			found = true
			break
		}
	case models.VariantSavedSections:
		for i := range doc.Payload.SavedSections {
			section := &doc.Payload.SavedSections[i]
			if section.ID != sectionID {
				continue
			}
			if patch.response != nil {
				section.Response = *patch.response
			}
			if patch.complete {
				section.Status = models.SectionStatusCompleted
			}
			if user != "" {
				section.User = user
			}
			question = section.Question
			found = true
			break
		}
	}
	if !found {
		return nil, ErrSectionNotFound
	}

	if user != "" {
		doc.UpdatedByUser = &user
	}
	doc.Payload.AppendAudit(actorOrDefault(user), action, question, auditType)

	s.refreshProgress(doc)
	if err := s.rfiRepo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// SubmitReview finalizes an RFI document regardless of per-section state
func (s *RfiService) SubmitReview(ctx context.Context, id uuid.UUID, user string) (*models.RfiDocument, error) {
	if s.rfiRepo == nil {
		return nil, errors.New("rfi repository not set")
	}

	doc, err := s.rfiRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doc.Status = models.RfiStatusCompleted
	doc.Progress = 100
	if user != "" {
		doc.UpdatedByUser = &user
	}
	if doc.Payload != nil {
		doc.Payload.AppendAudit(actorOrDefault(user), "Submitted for final review", "", "REVIEW")
	}

	if err := s.rfiRepo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// refreshProgress rederives progress and status from section counts
func (s *RfiService) refreshProgress(doc *models.RfiDocument) {
	total, completed := doc.Payload.SectionCounts()
	doc.Progress, doc.Status = models.RecomputeProgress(total, completed)
}

func actorOrDefault(user string) string {
	if user == "" {
		return "Unknown User"
	}
	return user
}
