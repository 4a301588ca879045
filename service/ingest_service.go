package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"rfiresponder-backend/models"
	"rfiresponder-backend/parser"
	"rfiresponder-backend/vectorstore"
)

// DocumentStore is the persistence surface the ingestion pipeline needs
type DocumentStore interface {
	AddOrGet(ctx context.Context, filename, filepath string) (*models.Document, error)
	GetByStatus(ctx context.Context, status models.IngestionStatus) ([]*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	AdvanceStatus(ctx context.Context, id int, status models.IngestionStatus) error
	SetFailed(ctx context.Context, id int, cause error) error
}

// ChunkStore is the chunk persistence surface the ingestion pipeline needs
type ChunkStore interface {
	InsertChunks(ctx context.Context, documentID int, chunks []*models.Chunk) error
	GetByDocumentID(ctx context.Context, documentID int) ([]*models.Chunk, error)
	SetVectorIDs(ctx context.Context, vectorIDs map[int]string) error
}

// Converter turns a source file into a saved markdown artifact
type Converter interface {
	Convert(path string) (text string, savedPath string, err error)
}

// DocClassifier labels a document from its text
type DocClassifier interface {
	Classify(ctx context.Context, text string) (parser.Classification, error)
}

// DocParser extracts the structured payload from questionnaire text
type DocParser interface {
	Parse(ctx context.Context, text string) (*models.ParsedDocument, error)
}

// IngestService drives documents through the ingestion pipeline:
// PENDING -> MARKDOWN_CONVERTED -> CLASSIFIED -> PARSED -> CHUNKED -> VECTORIZED.
// Each stage processes every document currently waiting at it; a document that
// fails a stage is parked FAILED with its error recorded and never blocks the
// rest of the batch.
type IngestService struct {
	docRepo      DocumentStore
	chunkRepo    ChunkStore
	converter    Converter
	classifier   DocClassifier
	parser       DocParser
	chunker      *ChunkerService
	store        vectorstore.Store
	processedDir string
}

// IngestServiceOption is a functional option for IngestService
type IngestServiceOption func(*IngestService)

// WithDocumentStore sets the document repository
func WithDocumentStore(repo DocumentStore) IngestServiceOption {
	return func(s *IngestService) { s.docRepo = repo }
}

// WithChunkStore sets the chunk repository
func WithChunkStore(repo ChunkStore) IngestServiceOption {
	return func(s *IngestService) { s.chunkRepo = repo }
}

// WithConverter sets the markdown converter
func WithConverter(c Converter) IngestServiceOption {
	return func(s *IngestService) { s.converter = c }
}

// WithClassifier sets the document classifier
func WithClassifier(c DocClassifier) IngestServiceOption {
	return func(s *IngestService) { s.classifier = c }
}

// WithParser sets the questionnaire parser
func WithParser(p DocParser) IngestServiceOption {
	return func(s *IngestService) { s.parser = p }
}

// WithChunker sets the chunker service
func WithChunker(c *ChunkerService) IngestServiceOption {
	return func(s *IngestService) { s.chunker = c }
}

// WithVectorStore sets the vector store
func WithVectorStore(store vectorstore.Store) IngestServiceOption {
	return func(s *IngestService) { s.store = store }
}

// WithProcessedDir sets where consumed source files are moved after conversion
func WithProcessedDir(dir string) IngestServiceOption {
	return func(s *IngestService) { s.processedDir = dir }
}

// NewIngestService creates a new ingestion service
func NewIngestService(opts ...IngestServiceOption) *IngestService {
	s := &IngestService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunker == nil {
		s.chunker = NewChunkerService()
	}
	return s
}

// RegisterDirectory registers every regular file under dir for ingestion
func (s *IngestService) RegisterDirectory(ctx context.Context, dir string) (int, error) {
	if s.docRepo == nil {
		return 0, errors.New("document store not set")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read input directory: %w", err)
	}

	registered := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, err := s.docRepo.AddOrGet(ctx, entry.Name(), path); err != nil {
			return registered, err
		}
		registered++
	}
	return registered, nil
}

// Run executes every pipeline stage once, in order, so a fresh document can
// travel the whole pipeline in a single call.
func (s *IngestService) Run(ctx context.Context) error {
	if s.docRepo == nil {
		return errors.New("document store not set")
	}

	stages := []struct {
		status  models.IngestionStatus
		process func(ctx context.Context, doc *models.Document) error
	}{
		{models.StatusPending, s.convertDocument},
		{models.StatusMarkdownConverted, s.classifyDocument},
		{models.StatusClassified, s.parseDocument},
		{models.StatusParsed, s.chunkDocument},
		{models.StatusChunked, s.vectorizeDocument},
	}

	for _, stage := range stages {
		docs, err := s.docRepo.GetByStatus(ctx, stage.status)
		if err != nil {
			return fmt.Errorf("failed to load documents at %s: %w", stage.status, err)
		}
		for _, doc := range docs {
			if err := stage.process(ctx, doc); err != nil {
				log.Printf("Warning: document %d (%s) failed at %s: %v", doc.ID, doc.SourceFilename, stage.status, err)
				if ferr := s.docRepo.SetFailed(ctx, doc.ID, err); ferr != nil {
					log.Printf("Warning: could not mark document %d failed: %v", doc.ID, ferr)
				}
			}
		}
	}
	return nil
}

// convertDocument converts the source file to markdown and retires the source
// into the processed directory.
func (s *IngestService) convertDocument(ctx context.Context, doc *models.Document) error {
	if s.converter == nil {
		return errors.New("converter not set")
	}

	_, savedPath, err := s.converter.Convert(doc.SourceFilepath)
	if err != nil {
		return err
	}
	doc.MarkdownFilepath = &savedPath

	if s.processedDir != "" {
		if moved, err := s.moveToProcessed(doc.SourceFilepath); err != nil {
			log.Printf("Warning: could not move %s to processed directory: %v", doc.SourceFilename, err)
		} else {
			doc.ProcessedFilepath = &moved
		}
	}

	doc.IngestionStatus = models.StatusMarkdownConverted
	doc.ErrorMessage = nil
	return s.docRepo.Update(ctx, doc)
}

func (s *IngestService) moveToProcessed(sourcePath string) (string, error) {
	if err := os.MkdirAll(s.processedDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(s.processedDir, filepath.Base(sourcePath))
	if err := os.Rename(sourcePath, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// classifyDocument assigns a type and grade from the markdown text
func (s *IngestService) classifyDocument(ctx context.Context, doc *models.Document) error {
	if s.classifier == nil {
		return errors.New("classifier not set")
	}

	text, err := s.readMarkdown(doc)
	if err != nil {
		return err
	}

	result, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return err
	}

	doc.DocumentType = &result.DocumentType
	doc.DocumentGrade = &result.DocumentGrade
	doc.IngestionStatus = models.StatusClassified
	doc.ErrorMessage = nil
	return s.docRepo.Update(ctx, doc)
}

// parseDocument extracts the structured payload for questionnaires; other
// documents pass straight through to the next stage.
func (s *IngestService) parseDocument(ctx context.Context, doc *models.Document) error {
	if !doc.IsRFI() {
		return s.docRepo.AdvanceStatus(ctx, doc.ID, models.StatusParsed)
	}
	if s.parser == nil {
		return errors.New("parser not set")
	}

	text, err := s.readMarkdown(doc)
	if err != nil {
		return err
	}

	payload, err := s.parser.Parse(ctx, text)
	if err != nil {
		return err
	}

	doc.ParsedPayload = payload
	doc.IngestionStatus = models.StatusParsed
	doc.ErrorMessage = nil
	return s.docRepo.Update(ctx, doc)
}

// chunkDocument cuts the document into chunks and persists them
func (s *IngestService) chunkDocument(ctx context.Context, doc *models.Document) error {
	if s.chunkRepo == nil {
		return errors.New("chunk store not set")
	}

	text, err := s.readMarkdown(doc)
	if err != nil {
		return err
	}

	chunks := s.chunker.ChunkDocument(doc, text)
	if len(chunks) == 0 {
		// nothing embeddable; the document still completes the pipeline
		log.Printf("Warning: document %d (%s) produced no chunks", doc.ID, doc.SourceFilename)
		return s.docRepo.AdvanceStatus(ctx, doc.ID, models.StatusChunked)
	}

	if err := s.chunkRepo.InsertChunks(ctx, doc.ID, chunks); err != nil {
		return err
	}
	return s.docRepo.AdvanceStatus(ctx, doc.ID, models.StatusChunked)
}

// vectorizeDocument embeds the document's chunks into the vector store,
// skipping entries the index already holds.
func (s *IngestService) vectorizeDocument(ctx context.Context, doc *models.Document) error {
	if s.store == nil {
		return errors.New("vector store not set")
	}
	if s.chunkRepo == nil {
		return errors.New("chunk store not set")
	}

	chunks, err := s.chunkRepo.GetByDocumentID(ctx, doc.ID)
	if err != nil {
		return err
	}

	entries := make([]vectorstore.Entry, 0, len(chunks))
	vectorIDs := make(map[int]string, len(chunks))
	for _, chunk := range chunks {
		id := strconv.Itoa(chunk.ID)
		vectorIDs[chunk.ID] = id
		entries = append(entries, vectorstore.Entry{
			ID:       id,
			Content:  chunk.ChunkText,
			Metadata: chunk.Metadata,
		})
	}

	added, err := vectorstore.AddNew(ctx, s.store, entries)
	if err != nil {
		return err
	}
	if added < len(entries) {
		log.Printf("document %d: %d of %d chunks already indexed", doc.ID, len(entries)-added, len(entries))
	}

	if err := s.chunkRepo.SetVectorIDs(ctx, vectorIDs); err != nil {
		return err
	}

	// the markdown artifact is retired alongside the source once nothing
	// downstream reads it anymore
	if s.processedDir != "" && doc.MarkdownFilepath != nil {
		if moved, err := s.moveToProcessed(*doc.MarkdownFilepath); err != nil {
			log.Printf("Warning: could not move markdown for %s to processed directory: %v", doc.SourceFilename, err)
		} else {
			doc.MarkdownFilepath = &moved
		}
	}

	doc.IngestionStatus = models.StatusVectorized
	doc.ErrorMessage = nil
	return s.docRepo.Update(ctx, doc)
}

func (s *IngestService) readMarkdown(doc *models.Document) (string, error) {
	if doc.MarkdownFilepath == nil {
		return "", fmt.Errorf("document %d has no markdown artifact", doc.ID)
	}
	data, err := os.ReadFile(*doc.MarkdownFilepath)
	if err != nil {
		return "", fmt.Errorf("failed to read markdown for document %d: %w", doc.ID, err)
	}
	return string(data), nil
}
