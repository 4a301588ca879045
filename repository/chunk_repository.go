package repository

import (
	"context"
	"fmt"

	"rfiresponder-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChunkRepository handles database operations for document chunks
type ChunkRepository struct {
	db *pgxpool.Pool
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// InsertChunks stores the chunks for a document in a single transaction and
// fills in their generated IDs. A document's chunks are replaced atomically:
// stale chunks from an earlier run are removed first.
func (r *ChunkRepository) InsertChunks(ctx context.Context, documentID int, chunks []*models.Chunk) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin chunk transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("failed to clear stale chunks for document %d: %w", documentID, err)
	}

	query := `
		INSERT INTO chunks (document_id, chunk_text, chunk_metadata)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	for _, chunk := range chunks {
		chunk.DocumentID = documentID
		err := tx.QueryRow(ctx, query, documentID, chunk.ChunkText, chunk.Metadata).
			Scan(&chunk.ID, &chunk.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert chunk for document %d: %w", documentID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunks for document %d: %w", documentID, err)
	}
	return nil
}

// GetByDocumentID retrieves all chunks for a document in insertion order
func (r *ChunkRepository) GetByDocumentID(ctx context.Context, documentID int) ([]*models.Chunk, error) {
	query := `
		SELECT id, document_id, chunk_text, chunk_metadata, vector_id, created_at
		FROM chunks
		WHERE document_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks for document %d: %w", documentID, err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// GetUnvectorized retrieves the chunks of documents waiting at the CHUNKED
// stage that have not yet been assigned a vector ID.
func (r *ChunkRepository) GetUnvectorized(ctx context.Context) ([]*models.Chunk, error) {
	query := `
		SELECT c.id, c.document_id, c.chunk_text, c.chunk_metadata, c.vector_id, c.created_at
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.ingestion_status = $1 AND c.vector_id IS NULL
		ORDER BY c.document_id, c.id`

	rows, err := r.db.Query(ctx, query, models.StatusChunked)
	if err != nil {
		return nil, fmt.Errorf("failed to query unvectorized chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// SetVectorIDs records the vector-store ID assigned to each chunk
func (r *ChunkRepository) SetVectorIDs(ctx context.Context, vectorIDs map[int]string) error {
	if len(vectorIDs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for chunkID, vectorID := range vectorIDs {
		batch.Queue(`UPDATE chunks SET vector_id = $2 WHERE id = $1`, chunkID, vectorID)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()
	for range vectorIDs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to set chunk vector id: %w", err)
		}
	}
	return nil
}

func scanChunks(rows pgx.Rows) ([]*models.Chunk, error) {
	var chunks []*models.Chunk
	for rows.Next() {
		chunk := &models.Chunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkText,
			&chunk.Metadata,
			&chunk.VectorID,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}
