package repository

import (
	"context"
	"errors"
	"fmt"

	"rfiresponder-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRfiDocumentNotFound is returned when an RFI document lookup matches no row
var ErrRfiDocumentNotFound = errors.New("rfi document not found")

// RfiDocumentRepository handles database operations for RFI drafting documents
type RfiDocumentRepository struct {
	db *pgxpool.Pool
}

// NewRfiDocumentRepository creates a new RFI document repository
func NewRfiDocumentRepository(db *pgxpool.Pool) *RfiDocumentRepository {
	return &RfiDocumentRepository{db: db}
}

const rfiDocumentColumns = `
	id, title, source_filename, number_of_questions, status, progress,
	payload, updated_by_user, created_at, updated_at`

func scanRfiDocument(row pgx.Row) (*models.RfiDocument, error) {
	doc := &models.RfiDocument{}
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.SourceFilename,
		&doc.NumberOfQuestions,
		&doc.Status,
		&doc.Progress,
		&doc.Payload,
		&doc.UpdatedByUser,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRfiDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Create inserts a new RFI document
func (r *RfiDocumentRepository) Create(ctx context.Context, doc *models.RfiDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	query := `
		INSERT INTO rfi_documents (
			id, title, source_filename, number_of_questions, status, progress, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		doc.ID,
		doc.Title,
		doc.SourceFilename,
		doc.NumberOfQuestions,
		doc.Status,
		doc.Progress,
		doc.Payload,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create rfi document: %w", err)
	}
	return nil
}

// GetByID retrieves an RFI document by ID
func (r *RfiDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RfiDocument, error) {
	query := `SELECT ` + rfiDocumentColumns + ` FROM rfi_documents WHERE id = $1`
	doc, err := scanRfiDocument(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrRfiDocumentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get rfi document %s: %w", id, err)
	}
	return doc, nil
}

// ListActive retrieves every RFI document that has not been finalized,
// newest first.
func (r *RfiDocumentRepository) ListActive(ctx context.Context) ([]*models.RfiDocument, error) {
	query := `
		SELECT ` + rfiDocumentColumns + `
		FROM rfi_documents
		WHERE status != $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, models.RfiStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rfi documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.RfiDocument
	for rows.Next() {
		doc, err := scanRfiDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rfi document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Update persists the mutable fields of an RFI document
func (r *RfiDocumentRepository) Update(ctx context.Context, doc *models.RfiDocument) error {
	query := `
		UPDATE rfi_documents SET
			title = $2,
			number_of_questions = $3,
			status = $4,
			progress = $5,
			payload = $6,
			updated_by_user = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(
		ctx, query,
		doc.ID,
		doc.Title,
		doc.NumberOfQuestions,
		doc.Status,
		doc.Progress,
		doc.Payload,
		doc.UpdatedByUser,
	).Scan(&doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRfiDocumentNotFound
		}
		return fmt.Errorf("failed to update rfi document %s: %w", doc.ID, err)
	}
	return nil
}

// UpdateProgress persists only the status and progress fields, used by the
// background drafting pipeline between question inferences.
func (r *RfiDocumentRepository) UpdateProgress(ctx context.Context, id uuid.UUID, status models.RfiStatus, progress int) error {
	query := `
		UPDATE rfi_documents SET
			status = $2,
			progress = $3,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status, progress)
	if err != nil {
		return fmt.Errorf("failed to update rfi document progress %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRfiDocumentNotFound
	}
	return nil
}
