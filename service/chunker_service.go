package service

import (
	"fmt"
	"log"

	"rfiresponder-backend/models"
)

// qaChunkTemplate is the canonical rendering of a question/answer pair for
// embedding; retrieval quality depends on it staying stable.
const qaChunkTemplate = "Question: %s\n\nAnswer: %s"

// ChunkerService cuts parsed documents into vector-store-ready chunks. RFI/RFP
// documents chunk one question/answer pair per chunk; everything else is split
// by size over its raw markdown.
type ChunkerService struct {
	chunkSize int
	overlap   int
}

// ChunkerServiceOption is a functional option for ChunkerService
type ChunkerServiceOption func(*ChunkerService)

// WithSupportChunking overrides the size and overlap used for supporting documents
func WithSupportChunking(size, overlap int) ChunkerServiceOption {
	return func(s *ChunkerService) {
		s.chunkSize = size
		s.overlap = overlap
	}
}

// NewChunkerService creates a new chunker service
func NewChunkerService(opts ...ChunkerServiceOption) *ChunkerService {
	s := &ChunkerService{
		chunkSize: supportChunkSize,
		overlap:   supportChunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChunkDocument produces the chunks for a parsed document. markdown is the
// document's converted text, used for the supporting-document branch.
func (s *ChunkerService) ChunkDocument(doc *models.Document, markdown string) []*models.Chunk {
	if doc.IsRFI() {
		if doc.ParsedPayload == nil || len(doc.ParsedPayload.QAPairs) == 0 {
			log.Printf("Warning: questionnaire %d (%s) has no extracted pairs to chunk", doc.ID, doc.SourceFilename)
			return nil
		}
		return s.chunkQAPairs(doc)
	}
	return s.chunkSupporting(doc, markdown)
}

// chunkQAPairs emits one chunk per extracted question/answer pair
func (s *ChunkerService) chunkQAPairs(doc *models.Document) []*models.Chunk {
	pairs := doc.ParsedPayload.QAPairs
	chunks := make([]*models.Chunk, 0, len(pairs))
	for _, pair := range pairs {
		meta := models.ChunkMetadata{
			"source_document_id": doc.ID,
			"source_filename":    doc.SourceFilename,
			"document_type":      models.DocumentTypeRFI,
			"chunk_kind":         "qa_pair",
			"question":           pair.Question,
			"domain":             "General",
			"question_type":      "open-ended",
		}
		if pair.Domain != "" {
			meta["domain"] = pair.Domain
		}
		if pair.Type != "" {
			meta["question_type"] = pair.Type
		}
		if doc.ParsedPayload.Metadata != nil {
			meta["company_name"] = doc.ParsedPayload.Metadata.CompanyName
		}
		chunks = append(chunks, &models.Chunk{
			DocumentID: doc.ID,
			ChunkText:  fmt.Sprintf(qaChunkTemplate, pair.Question, pair.Answer),
			Metadata:   meta,
		})
	}
	return chunks
}

// chunkSupporting splits a non-questionnaire document by size
func (s *ChunkerService) chunkSupporting(doc *models.Document, markdown string) []*models.Chunk {
	pieces := RecursiveSplit(markdown, s.chunkSize, s.overlap)
	chunks := make([]*models.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		meta := models.ChunkMetadata{
			"source_document_id": doc.ID,
			"source_filename":    doc.SourceFilename,
			"chunk_kind":         "text",
			"position":           i,
		}
		if doc.DocumentType != nil {
			meta["document_type"] = *doc.DocumentType
		}
		if doc.DocumentGrade != nil {
			meta["document_grade"] = *doc.DocumentGrade
		}
		chunks = append(chunks, &models.Chunk{
			DocumentID: doc.ID,
			ChunkText:  piece,
			Metadata:   meta,
		})
	}
	return chunks
}
