package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// QAPair is a single question/answer pair extracted from a filled RFI/RFP
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Domain   string `json:"domain,omitempty"`
	Type     string `json:"type,omitempty"` // "narrative", "open-ended", "close-ended", "check-box"
}

// Question is an unanswered question extracted from a blank RFI/RFP template
type Question struct {
	Question string `json:"question"`
	Domain   string `json:"domain,omitempty"`
	Type     string `json:"type,omitempty"`
}

// RfiMetadata is the document-level metadata record reconciled during parsing
type RfiMetadata struct {
	CompanyName string `json:"company_name"`
	Date        string `json:"date,omitempty"`
	Category    string `json:"category"` // "RFI" or "RFP"
	Type        string `json:"type"`     // "PastResponse"
}

// ParsedDocument is the structured output of a full document parse. A filled
// document carries QAPairs; a blank template carries Questions. It is produced
// fresh on every parse and persisted only as a Document's JSON payload.
type ParsedDocument struct {
	Summary     string       `json:"summary,omitempty"`
	Description string       `json:"description,omitempty"`
	QAPairs     []QAPair     `json:"qa_pairs,omitempty"`
	Questions   []Question   `json:"questions,omitempty"`
	Metadata    *RfiMetadata `json:"meta_data,omitempty"`
}

// Value implements driver.Valuer for JSONB
func (p ParsedDocument) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *ParsedDocument) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, p)
}

var (
	ErrNoExtractedItems = errors.New("parsed document contains no extracted items")
	ErrMissingMetadata  = errors.New("parsed document is missing metadata")
)

// Validate checks the structural invariants a parsed document must satisfy
// before it may be persisted. A validation failure is a stage failure: the
// payload is never partially stored.
func (p *ParsedDocument) Validate() error {
	if len(p.QAPairs) == 0 && len(p.Questions) == 0 {
		return ErrNoExtractedItems
	}
	if p.Metadata == nil {
		return ErrMissingMetadata
	}
	if p.Metadata.CompanyName == "" {
		return errors.New("metadata company_name cannot be empty")
	}
	if p.Metadata.Category != "RFI" && p.Metadata.Category != "RFP" {
		return errors.New("metadata category must be RFI or RFP")
	}
	return nil
}
