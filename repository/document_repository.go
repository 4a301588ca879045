package repository

import (
	"context"
	"errors"
	"fmt"

	"rfiresponder-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDocumentNotFound is returned when a document lookup matches no row
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository handles database operations for ingested documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `
	id, source_filename, source_filepath, processed_filepath, markdown_filepath,
	document_type, document_grade, rfi_json_payload, ingestion_status,
	error_message, created_at, updated_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	doc := &models.Document{}
	err := row.Scan(
		&doc.ID,
		&doc.SourceFilename,
		&doc.SourceFilepath,
		&doc.ProcessedFilepath,
		&doc.MarkdownFilepath,
		&doc.DocumentType,
		&doc.DocumentGrade,
		&doc.ParsedPayload,
		&doc.IngestionStatus,
		&doc.ErrorMessage,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// AddOrGet registers a source file for ingestion, returning the existing row
// when the file path was already registered so re-running ingestion over the
// same directory is idempotent.
func (r *DocumentRepository) AddOrGet(ctx context.Context, filename, filepath string) (*models.Document, error) {
	query := `
		INSERT INTO documents (source_filename, source_filepath, ingestion_status)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_filepath) DO UPDATE
		SET source_filename = EXCLUDED.source_filename
		RETURNING ` + documentColumns

	doc, err := scanDocument(r.db.QueryRow(ctx, query, filename, filepath, models.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to register document %s: %w", filename, err)
	}
	return doc, nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id int) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get document %d: %w", id, err)
	}
	return doc, nil
}

// GetByStatus retrieves all documents at the given pipeline stage, oldest first
func (r *DocumentRepository) GetByStatus(ctx context.Context, status models.IngestionStatus) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE ingestion_status = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents by status %s: %w", status, err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// List retrieves every tracked document, newest first
func (r *DocumentRepository) List(ctx context.Context) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Update persists the mutable fields of a document
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := `
		UPDATE documents SET
			processed_filepath = $2,
			markdown_filepath = $3,
			document_type = $4,
			document_grade = $5,
			rfi_json_payload = $6,
			ingestion_status = $7,
			error_message = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(
		ctx, query,
		doc.ID,
		doc.ProcessedFilepath,
		doc.MarkdownFilepath,
		doc.DocumentType,
		doc.DocumentGrade,
		doc.ParsedPayload,
		doc.IngestionStatus,
		doc.ErrorMessage,
	).Scan(&doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to update document %d: %w", doc.ID, err)
	}
	return nil
}

// AdvanceStatus moves a document to the next pipeline stage and clears any
// stale error message from an earlier failed run.
func (r *DocumentRepository) AdvanceStatus(ctx context.Context, id int, status models.IngestionStatus) error {
	query := `
		UPDATE documents SET
			ingestion_status = $2,
			error_message = NULL,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to advance document %d to %s: %w", id, status, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// SetFailed marks a document FAILED and records why. The previous stage is
// left intact in the error message so a failed document can be diagnosed and
// retried from where it stopped.
func (r *DocumentRepository) SetFailed(ctx context.Context, id int, cause error) error {
	msg := cause.Error()
	query := `
		UPDATE documents SET
			ingestion_status = $2,
			error_message = $3,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, models.StatusFailed, msg)
	if err != nil {
		return fmt.Errorf("failed to mark document %d failed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
