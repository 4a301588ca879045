package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeProgress(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		completed    int
		wantProgress int
		wantStatus   RfiStatus
	}{
		{"nothing completed", 4, 0, 0, RfiStatusInProgress},
		{"under half", 10, 4, 40, RfiStatusInProgress},
		{"exactly half", 2, 1, 50, RfiStatusInReview},
		{"rounds up past half", 3, 2, 67, RfiStatusInReview},
		{"all completed", 5, 5, 100, RfiStatusCompleted},
		{"no sections", 0, 0, 0, RfiStatusInProgress},
		{"negative total", -1, 0, 0, RfiStatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress, status := RecomputeProgress(tt.total, tt.completed)
			assert.Equal(t, tt.wantProgress, progress)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestPayloadVariant(t *testing.T) {
	questions := &RfiPayload{Questions: []RfiSection{{ID: 1}}}
	saved := &RfiPayload{SavedSections: []SavedSection{{ID: "s1"}}}
	empty := &RfiPayload{}

	assert.Equal(t, VariantQuestions, questions.Variant())
	assert.Equal(t, VariantSavedSections, saved.Variant())
	assert.Equal(t, VariantEmpty, empty.Variant())
}

func TestSectionCountsAcrossVariants(t *testing.T) {
	questions := &RfiPayload{Questions: []RfiSection{
		{ID: 1, Status: SectionStatusCompleted},
		{ID: 2, Status: SectionStatusPending},
		{ID: 3, Status: SectionStatusCompleted},
	}}
	total, completed := questions.SectionCounts()
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, completed)

	saved := &RfiPayload{SavedSections: []SavedSection{
		{ID: "a", Status: SectionStatusCompleted},
		{ID: "b", Status: SectionStatusProcessing},
	}}
	total, completed = saved.SectionCounts()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, completed)
}

func TestAppendAudit(t *testing.T) {
	p := &RfiPayload{}
	p.AppendAudit("pat@vendor.com", "Saved response", "Q1?", "EDIT")

	require.Len(t, p.AuditTrail, 1)
	entry := p.AuditTrail[0]
	assert.NotEmpty(t, entry.ID)
	assert.NotEmpty(t, entry.Timestamp)
	assert.Equal(t, "pat@vendor.com", entry.Actor)
	assert.Equal(t, "EDIT", entry.Type)
}

func TestRfiPayloadScanLegacyShape(t *testing.T) {
	// payloads written by earlier revisions carry saved_sections instead of questions
	raw := `{"title":"Legacy RFI","saved_sections":[{"id":"sec-1","question":"Q?","response":"A.","status":"completed","user":"sam"}]}`

	var p RfiPayload
	require.NoError(t, p.Scan([]byte(raw)))

	assert.Equal(t, VariantSavedSections, p.Variant())
	total, completed := p.SectionCounts()
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, completed)
}
