package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfiresponder-backend/models"
)

func reviewDoc(t *testing.T, repo *fakeRfiRepo, questions ...string) *models.RfiDocument {
	t.Helper()
	doc := draftingDoc(questions...)
	require.NoError(t, repo.Create(context.Background(), doc))
	return doc
}

func TestCreateFromParsedBuildsSections(t *testing.T) {
	repo := newFakeRfiRepo()
	svc := NewRfiService(WithRfiRepository(repo))

	parsed := &models.ParsedDocument{
		Questions: []models.Question{
			{Question: "Describe your SLA.", Domain: "Operations"},
			{Question: "Do you support SSO?", Domain: "Security"},
		},
		Metadata: &models.RfiMetadata{CompanyName: "Acme Corp", Category: "RFP", Type: "PastResponse"},
	}

	doc, err := svc.CreateFromParsed(context.Background(), "acme_rfp.docx", parsed)

	require.NoError(t, err)
	assert.Equal(t, "Acme Corp RFP", doc.Title)
	assert.Equal(t, 2, doc.NumberOfQuestions)
	assert.Equal(t, models.RfiStatusNotStarted, doc.Status)
	assert.Zero(t, doc.Progress)

	require.Len(t, doc.Payload.Questions, 2)
	assert.Equal(t, 1, doc.Payload.Questions[0].ID)
	assert.Equal(t, "Describe your SLA.", doc.Payload.Questions[0].Question)
	assert.Equal(t, models.SectionStatusPending, doc.Payload.Questions[0].Status)

	// persisted through the repository
	_, ok := repo.docs[doc.ID]
	assert.True(t, ok)
}

func TestCreateFromParsedUnknownCompanyUsesFilename(t *testing.T) {
	svc := NewRfiService(WithRfiRepository(newFakeRfiRepo()))

	parsed := &models.ParsedDocument{
		Questions: []models.Question{{Question: "Q?"}},
		Metadata:  &models.RfiMetadata{CompanyName: "Unknown", Category: "RFI"},
	}

	doc, err := svc.CreateFromParsed(context.Background(), "security_questionnaire.xlsx", parsed)

	require.NoError(t, err)
	assert.Equal(t, "security_questionnaire", doc.Title)
}

func TestCreateFromParsedRejectsNoQuestions(t *testing.T) {
	svc := NewRfiService(WithRfiRepository(newFakeRfiRepo()))

	_, err := svc.CreateFromParsed(context.Background(), "empty.docx", &models.ParsedDocument{})

	require.Error(t, err)
}

func TestSaveSectionRecomputesProgress(t *testing.T) {
	repo := newFakeRfiRepo()
	doc := reviewDoc(t, repo, "Q1?", "Q2?", "Q3?", "Q4?")
	svc := NewRfiService(WithRfiRepository(repo))

	updated, err := svc.SaveSection(context.Background(), doc.ID, "2", "Edited response", "pat@vendor.com")

	require.NoError(t, err)
	section := updated.Payload.Questions[1]
	assert.Equal(t, "Edited response", section.Response)
	assert.Equal(t, "pat@vendor.com", section.AssignedTo)
	// editing alone does not complete a section
	assert.Equal(t, models.SectionStatusPending, section.Status)
	assert.Zero(t, updated.Progress)
	assert.Equal(t, models.RfiStatusInProgress, updated.Status)

	require.NotEmpty(t, updated.Payload.AuditTrail)
	last := updated.Payload.AuditTrail[len(updated.Payload.AuditTrail)-1]
	assert.Equal(t, "EDIT", last.Type)
	assert.Equal(t, "pat@vendor.com", last.Actor)
}

func TestMarkSectionCompleteDrivesStatusTransitions(t *testing.T) {
	repo := newFakeRfiRepo()
	doc := reviewDoc(t, repo, "Q1?", "Q2?")
	svc := NewRfiService(WithRfiRepository(repo))

	updated, err := svc.MarkSectionComplete(context.Background(), doc.ID, "1", "pat@vendor.com")
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Progress)
	assert.Equal(t, models.RfiStatusInReview, updated.Status)

	updated, err = svc.MarkSectionComplete(context.Background(), doc.ID, "2", "pat@vendor.com")
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Progress)
	assert.Equal(t, models.RfiStatusCompleted, updated.Status)
}

func TestSectionEditsReachSavedSectionsVariant(t *testing.T) {
	repo := newFakeRfiRepo()
	doc := &models.RfiDocument{
		ID:                uuid.New(),
		Title:             "Legacy workspace",
		NumberOfQuestions: 2,
		Status:            models.RfiStatusInProgress,
		Payload: &models.RfiPayload{
			SavedSections: []models.SavedSection{
				{ID: "sec-a", Question: "Q1?", Status: models.SectionStatusPending},
				{ID: "sec-b", Question: "Q2?", Status: models.SectionStatusPending},
			},
		},
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	svc := NewRfiService(WithRfiRepository(repo))

	updated, err := svc.SaveSection(context.Background(), doc.ID, "sec-a", "Edited legacy response", "pat@vendor.com")
	require.NoError(t, err)
	section := updated.Payload.SavedSections[0]
	assert.Equal(t, "Edited legacy response", section.Response)
	assert.Equal(t, "pat@vendor.com", section.User)

	updated, err = svc.MarkSectionComplete(context.Background(), doc.ID, "sec-b", "pat@vendor.com")
	require.NoError(t, err)
	assert.Equal(t, models.SectionStatusCompleted, updated.Payload.SavedSections[1].Status)
	assert.Equal(t, 50, updated.Progress)
	assert.Equal(t, models.RfiStatusInReview, updated.Status)
}

func TestMutateSectionUnknownID(t *testing.T) {
	repo := newFakeRfiRepo()
	doc := reviewDoc(t, repo, "Q1?")
	svc := NewRfiService(WithRfiRepository(repo))

	_, err := svc.SaveSection(context.Background(), doc.ID, "99", "text", "user")

	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestSubmitReviewFinalizes(t *testing.T) {
	repo := newFakeRfiRepo()
	doc := reviewDoc(t, repo, "Q1?", "Q2?")
	svc := NewRfiService(WithRfiRepository(repo))

	updated, err := svc.SubmitReview(context.Background(), doc.ID, "lead@vendor.com")

	require.NoError(t, err)
	assert.Equal(t, models.RfiStatusCompleted, updated.Status)
	assert.Equal(t, 100, updated.Progress)
	require.NotNil(t, updated.UpdatedByUser)
	assert.Equal(t, "lead@vendor.com", *updated.UpdatedByUser)

	last := updated.Payload.AuditTrail[len(updated.Payload.AuditTrail)-1]
	assert.Equal(t, "REVIEW", last.Type)

	// finalized documents drop off the active list
	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}
