package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"rfiresponder-backend/llm"
)

// embedBatchSize bounds how many texts go to the embedding API per call
const embedBatchSize = 100

// PgVectorStore persists embeddings in a Postgres vector_entries table and
// searches them by cosine distance.
type PgVectorStore struct {
	db       *pgxpool.Pool
	embedder llm.Embedder
}

func NewPgVectorStore(db *pgxpool.Pool, embedder llm.Embedder) *PgVectorStore {
	return &PgVectorStore{db: db, embedder: embedder}
}

var _ Store = (*PgVectorStore)(nil)

// Add embeds the entries in batches and upserts them by ID
func (s *PgVectorStore) Add(ctx context.Context, entries []Entry) error {
	for start := 0; start < len(entries); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := s.addBatch(ctx, entries[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *PgVectorStore) addBatch(ctx context.Context, entries []Entry) error {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Content
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed batch of %d entries: %w", len(entries), err)
	}
	if len(vectors) != len(entries) {
		return fmt.Errorf("embedder returned %d vectors for %d entries", len(vectors), len(entries))
	}

	batch := &pgx.Batch{}
	for i, e := range entries {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for entry %s: %w", e.ID, err)
		}
		batch.Queue(`
			INSERT INTO vector_entries (id, content, embedding, metadata)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET content = EXCLUDED.content,
			    embedding = EXCLUDED.embedding,
			    metadata = EXCLUDED.metadata`,
			e.ID, e.Content, pgvector.NewVector(vectors[i]), meta)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert vector entry: %w", err)
		}
	}
	return nil
}

// ExistingIDs returns every entry ID currently in the index
func (s *PgVectorStore) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM vector_entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vector entry ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan vector entry id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vector entry ids: %w", err)
	}
	return ids, nil
}

// Search embeds the query and returns the top entries by cosine distance
func (s *PgVectorStore) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	vectors, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed search query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for search query", len(vectors))
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, content, metadata, embedding <=> $1 AS distance
		FROM vector_entries
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(vectors[0]), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector entries: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r    SearchResult
			meta []byte
		)
		if err := rows.Scan(&r.ID, &r.Content, &meta, &r.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &r.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for entry %s: %w", r.ID, err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}
	return results, nil
}
