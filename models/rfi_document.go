package models

import (
	"database/sql/driver"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// RfiStatus represents the status of an RFI being answered by the system
type RfiStatus string

const (
	RfiStatusInProgress  RfiStatus = "IN_PROGRESS"  // AI is actively generating the draft
	RfiStatusReviewReady RfiStatus = "REVIEW_READY" // draft is ready for human review
	RfiStatusInReview    RfiStatus = "IN_REVIEW"    // a user is actively editing the draft
	RfiStatusCompleted   RfiStatus = "COMPLETED"    // user has finalized the document
	RfiStatusFailed      RfiStatus = "FAILED"
	RfiStatusNotStarted  RfiStatus = "NOT_STARTED"
)

// Section status values used inside RFI payloads
const (
	SectionStatusPending    = "pending"
	SectionStatusProcessing = "processing"
	SectionStatusCompleted  = "completed"
)

// PayloadVariant identifies which workflow shape an RFI payload carries
type PayloadVariant string

const (
	VariantQuestions     PayloadVariant = "questions"
	VariantSavedSections PayloadVariant = "saved_sections"
	VariantEmpty         PayloadVariant = "empty"
)

// KnowledgeBaseItem is one retrieved citation attached to a drafted answer
type KnowledgeBaseItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Snippet  string `json:"snippet"`
	FullText string `json:"fullText,omitempty"`
}

// RfiSection is one question entry in the questions-workflow payload
type RfiSection struct {
	ID            int                 `json:"id"`
	Question      string              `json:"question"`
	Response      string              `json:"response"`
	Status        string              `json:"status"`
	AssignedTo    string              `json:"assignedTo"`
	KnowledgeBase []KnowledgeBaseItem `json:"knowledgeBase"`
}

// SavedSection is one entry in the saved-sections-workflow payload
type SavedSection struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Response string `json:"response"`
	Status   string `json:"status"`
	User     string `json:"user,omitempty"`
}

// AuditEntry records one action taken against an RFI section
type AuditEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Question  string `json:"question"`
	Type      string `json:"type"` // "AI", "EDIT", "COMPLETE", "REVIEW"
}

// RfiPayload is the JSON document stored on an RfiDocument. Exactly one of
// Questions or SavedSections is populated; Variant reports which.
type RfiPayload struct {
	Title         string         `json:"title,omitempty"`
	FileName      string         `json:"fileName,omitempty"`
	Questions     []RfiSection   `json:"questions,omitempty"`
	SavedSections []SavedSection `json:"saved_sections,omitempty"`
	Metadata      *RfiMetadata   `json:"metaData,omitempty"`
	AuditTrail    []AuditEntry   `json:"audit_trail,omitempty"`
}

// Variant reports which workflow shape this payload carries. Questions wins
// when both are somehow present, matching how the legacy payloads resolved.
func (p *RfiPayload) Variant() PayloadVariant {
	switch {
	case len(p.Questions) > 0:
		return VariantQuestions
	case len(p.SavedSections) > 0:
		return VariantSavedSections
	default:
		return VariantEmpty
	}
}

// SectionCounts returns the total and completed section counts for whichever
// workflow variant is populated.
func (p *RfiPayload) SectionCounts() (total, completed int) {
	switch p.Variant() {
	case VariantQuestions:
		total = len(p.Questions)
		for _, q := range p.Questions {
			if q.Status == SectionStatusCompleted {
				completed++
			}
		}
	case VariantSavedSections:
		total = len(p.SavedSections)
		for _, s := range p.SavedSections {
			if s.Status == SectionStatusCompleted {
				completed++
			}
		}
	}
	return total, completed
}

// AppendAudit records an action against the payload's audit trail
func (p *RfiPayload) AppendAudit(actor, action, question, entryType string) {
	p.AuditTrail = append(p.AuditTrail, AuditEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Actor:     actor,
		Action:    action,
		Question:  question,
		Type:      entryType,
	})
}

// Value implements driver.Valuer for JSONB
func (p RfiPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *RfiPayload) Scan(value interface{}) error {
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

// RfiDocument tracks the state of a new RFI being answered by the system
type RfiDocument struct {
	ID                uuid.UUID   `json:"id"`
	Title             string      `json:"title"`
	SourceFilename    string      `json:"source_filename"`
	NumberOfQuestions int         `json:"number_of_questions"`
	Status            RfiStatus   `json:"status"`
	Progress          int         `json:"progress"`
	Payload           *RfiPayload `json:"payload,omitempty"`
	UpdatedByUser     *string     `json:"updated_by_user,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// RecomputeProgress derives progress and status from section counts. It is the
// single authority for the progress invariant: every payload mutation path
// calls it rather than recomputing locally.
func RecomputeProgress(total, completed int) (int, RfiStatus) {
	if total <= 0 {
		return 0, RfiStatusInProgress
	}
	progress := int(math.Round(100 * float64(completed) / float64(total)))

	switch {
	case progress == 100:
		return progress, RfiStatusCompleted
	case progress >= 50:
		return progress, RfiStatusInReview
	default:
		return progress, RfiStatusInProgress
	}
}
