package vectorstore

import (
	"context"
	"fmt"
	"log"
)

// Entry is one embeddable record bound for the vector index
type Entry struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
}

// SearchResult is a scored match from a similarity search
type SearchResult struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
	Distance float64
}

// Store is the vector index used for retrieval. Implementations own both the
// embedding of content and its persistence.
type Store interface {
	// Add embeds and upserts the given entries
	Add(ctx context.Context, entries []Entry) error
	// ExistingIDs returns the set of entry IDs already in the index
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
	// Search embeds the query and returns the nearest entries by cosine distance
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// AddNew inserts only the candidates not already present in the index and
// reports how many were added. Listing existing IDs is best-effort: when it
// fails the store degrades to inserting every candidate rather than blocking
// ingestion, at the cost of possible duplicate embedding work.
func AddNew(ctx context.Context, store Store, candidates []Entry) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	existing, err := store.ExistingIDs(ctx)
	if err != nil {
		log.Printf("Warning: could not list existing vector ids, inserting all candidates: %v", err)
		existing = nil
	}

	var fresh []Entry
	for _, c := range candidates {
		if _, ok := existing[c.ID]; ok {
			continue
		}
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := store.Add(ctx, fresh); err != nil {
		return 0, fmt.Errorf("failed to add vector entries: %w", err)
	}
	return len(fresh), nil
}
