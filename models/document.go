package models

import (
	"time"
)

// IngestionStatus represents where a source document sits in the ingestion pipeline
type IngestionStatus string

const (
	StatusPending           IngestionStatus = "PENDING"
	StatusMarkdownConverted IngestionStatus = "MARKDOWN_CONVERTED"
	StatusClassified        IngestionStatus = "CLASSIFIED"
	StatusParsed            IngestionStatus = "PARSED"
	StatusChunked           IngestionStatus = "CHUNKED"
	StatusVectorized        IngestionStatus = "VECTORIZED"
	StatusFailed            IngestionStatus = "FAILED"
)

// DocumentTypeRFI is the classifier label that routes a document through the
// structured Q&A parsing branch. Anything else is treated as a supporting document.
const DocumentTypeRFI = "RFI/RFP"

// Document represents a source document tracked through the ingestion pipeline
type Document struct {
	ID                int             `json:"id"`
	SourceFilename    string          `json:"source_filename"`
	SourceFilepath    string          `json:"source_filepath"`
	ProcessedFilepath *string         `json:"processed_filepath,omitempty"`
	MarkdownFilepath  *string         `json:"markdown_filepath,omitempty"`
	DocumentType      *string         `json:"document_type,omitempty"`
	DocumentGrade     *string         `json:"document_grade,omitempty"`
	ParsedPayload     *ParsedDocument `json:"rfi_json_payload,omitempty"`
	IngestionStatus   IngestionStatus `json:"ingestion_status"`
	ErrorMessage      *string         `json:"error_message,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsRFI reports whether the document was classified as a questionnaire
// rather than a supporting document.
func (d *Document) IsRFI() bool {
	return d.DocumentType != nil && *d.DocumentType == DocumentTypeRFI
}
