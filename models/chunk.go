package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ChunkMetadata is the metadata mapping attached to every vector-store entry
type ChunkMetadata map[string]interface{}

// Value implements driver.Valuer for JSONB
func (m ChunkMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *ChunkMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(ChunkMetadata)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = make(ChunkMetadata)
		return nil
	}

	if len(bytes) == 0 {
		*m = make(ChunkMetadata)
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Chunk is a vector-store-ready span of text cut from a document.
// VectorID stays nil until the chunk has been embedded.
type Chunk struct {
	ID         int           `json:"id"`
	DocumentID int           `json:"document_id"`
	ChunkText  string        `json:"chunk_text"`
	Metadata   ChunkMetadata `json:"chunk_metadata"`
	VectorID   *string       `json:"vector_id,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}
