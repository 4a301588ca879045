package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"rfiresponder-backend/llm"
	"rfiresponder-backend/models"
	"rfiresponder-backend/vectorstore"
)

// NoAnswerSentinel is the exact answer recorded when retrieval finds nothing
// usable; downstream consumers key off it, so it must not change.
const NoAnswerSentinel = "No relevant information was found in the knowledge base to answer this question."

const (
	retrievalLimit = 5
	snippetLength  = 250
	draftingActor  = "AI Assistant"
)

const answerSystemPrompt = `You are a proposal writer answering RFI/RFP questions on behalf of a vendor. Answer strictly from the provided context. If the context does not contain the information needed, say so plainly instead of inventing an answer. Write in a professional, direct tone.`

const answerPromptTemplate = `Answer the following question using only the context below.

Context:
%s

Question: %s`

// RfiDocumentStore is the persistence surface the drafting pipeline needs
type RfiDocumentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.RfiDocument, error)
	Update(ctx context.Context, doc *models.RfiDocument) error
	UpdateProgress(ctx context.Context, id uuid.UUID, status models.RfiStatus, progress int) error
}

// InferenceService drafts answers to RFI questions by retrieving from the
// knowledge base and generating over the retrieved context.
type InferenceService struct {
	store   vectorstore.Store
	gen     llm.Generator
	rfiRepo RfiDocumentStore
	limit   int
}

// InferenceServiceOption is a functional option for InferenceService
type InferenceServiceOption func(*InferenceService)

// WithInferenceVectorStore sets the retrieval index
func WithInferenceVectorStore(store vectorstore.Store) InferenceServiceOption {
	return func(s *InferenceService) { s.store = store }
}

// WithGenerator sets the answer generator
func WithGenerator(gen llm.Generator) InferenceServiceOption {
	return func(s *InferenceService) { s.gen = gen }
}

// WithRfiDocumentStore sets the RFI document repository
func WithRfiDocumentStore(repo RfiDocumentStore) InferenceServiceOption {
	return func(s *InferenceService) { s.rfiRepo = repo }
}

// WithRetrievalLimit overrides how many chunks are retrieved per question
func WithRetrievalLimit(limit int) InferenceServiceOption {
	return func(s *InferenceService) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// NewInferenceService creates a new inference service
func NewInferenceService(opts ...InferenceServiceOption) *InferenceService {
	s := &InferenceService{limit: retrievalLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnswerQuestion retrieves the closest knowledge-base entries for the
// question and drafts an answer grounded on them. When retrieval comes back
// empty the sentinel answer is returned with no citations and no LLM call.
func (s *InferenceService) AnswerQuestion(ctx context.Context, question string) (string, []models.KnowledgeBaseItem, error) {
	if s.store == nil {
		return "", nil, errors.New("vector store not set")
	}
	if s.gen == nil {
		return "", nil, errors.New("generator not set")
	}

	results, err := s.store.Search(ctx, question, s.limit)
	if err != nil {
		return "", nil, fmt.Errorf("knowledge base search failed: %w", err)
	}
	if len(results) == 0 {
		return NoAnswerSentinel, nil, nil
	}

	answer, err := s.gen.Generate(ctx, answerSystemPrompt,
		fmt.Sprintf(answerPromptTemplate, buildContext(results), question))
	if err != nil {
		return "", nil, fmt.Errorf("answer generation failed: %w", err)
	}

	return strings.TrimSpace(answer), knowledgeBaseItems(results), nil
}

// buildContext renders retrieval results into the prompt context block
func buildContext(results []vectorstore.SearchResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("Source: %s\n%s", sourceFilename(r), r.Content)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// knowledgeBaseItems converts retrieval results into the citations stored on
// a drafted section.
func knowledgeBaseItems(results []vectorstore.SearchResult) []models.KnowledgeBaseItem {
	items := make([]models.KnowledgeBaseItem, len(results))
	for i, r := range results {
		snippet := r.Content
		if len(snippet) > snippetLength {
			snippet = snippet[:snippetLength]
		}
		category := "General"
		if c, ok := r.Metadata["document_grade"].(string); ok && c != "" {
			category = c
		}
		items[i] = models.KnowledgeBaseItem{
			ID:       fmt.Sprintf("kb_%s_%d", r.ID, i),
			Title:    sourceFilename(r),
			Category: category,
			Snippet:  snippet,
			FullText: r.Content,
		}
	}
	return items
}

func sourceFilename(r vectorstore.SearchResult) string {
	if name, ok := r.Metadata["source_filename"].(string); ok && name != "" {
		return name
	}
	return "Knowledge Base"
}

// ProcessRfi drafts every question of an RFI document, persisting progress as
// it goes so clients can poll. Meant to run in a background goroutine; any
// failure parks the document FAILED.
func (s *InferenceService) ProcessRfi(ctx context.Context, id uuid.UUID) {
	if err := s.processRfi(ctx, id); err != nil {
		log.Printf("Warning: drafting failed for rfi %s: %v", id, err)
		if s.rfiRepo != nil {
			if ferr := s.rfiRepo.UpdateProgress(ctx, id, models.RfiStatusFailed, 0); ferr != nil {
				log.Printf("Warning: could not mark rfi %s failed: %v", id, ferr)
			}
		}
	}
}

func (s *InferenceService) processRfi(ctx context.Context, id uuid.UUID) error {
	if s.rfiRepo == nil {
		return errors.New("rfi document store not set")
	}

	doc, err := s.rfiRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.Payload == nil || len(doc.Payload.Questions) == 0 {
		return fmt.Errorf("rfi %s has no questions to draft", id)
	}

	doc.Status = models.RfiStatusInProgress
	doc.Progress = 5
	if err := s.rfiRepo.Update(ctx, doc); err != nil {
		return err
	}

	total := len(doc.Payload.Questions)
	for i := range doc.Payload.Questions {
		section := &doc.Payload.Questions[i]

		answer, kb, err := s.AnswerQuestion(ctx, section.Question)
		if err != nil {
			return fmt.Errorf("question %d: %w", section.ID, err)
		}

		// drafted sections stay pending: completion is a review action
		section.Response = answer
		section.Status = models.SectionStatusPending
		section.KnowledgeBase = kb
		doc.Payload.AppendAudit(draftingActor, "Drafted response", section.Question, "AI")

		// 5% for setup, the rest split evenly across questions; the whole
		// document is persisted each step so pollers see drafts as they land
		// and a mid-run failure keeps the answers written so far
		doc.Progress = 5 + (95*(i+1))/total
		if err := s.rfiRepo.Update(ctx, doc); err != nil {
			return err
		}
	}

	doc.Status = models.RfiStatusReviewReady
	doc.Progress = 100
	return s.rfiRepo.Update(ctx, doc)
}
