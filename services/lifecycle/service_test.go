package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/enum"
	er "github.com/paperdesk/paperdesk/internal/errors"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/models"
)

type fakeDocumentRepository struct {
	documents map[string]*models.Document
	updates   int
}

func newFakeDocumentRepository() *fakeDocumentRepository {
	return &fakeDocumentRepository{documents: map[string]*models.Document{}}
}

func (r *fakeDocumentRepository) Create(ctx context.Context, document *models.Document) (string, error) {
	if document.ID == "" {
		document.ID = "doc_test"
	}
	r.documents[document.ID] = document
	return document.ID, nil
}

func (r *fakeDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	document, ok := r.documents[id]
	if !ok {
		return nil, er.ErrDocumentNotFound
	}
	clone := *document
	return &clone, nil
}

func (r *fakeDocumentRepository) List(ctx context.Context, filter interfaces.DocumentFilter) ([]*models.Document, error) {
	var out []*models.Document
	for _, document := range r.documents {
		out = append(out, document)
	}
	return out, nil
}

func (r *fakeDocumentRepository) UpdateBins(ctx context.Context, id string, bins map[string]models.ObligationList) error {
	document, ok := r.documents[id]
	if !ok {
		return er.ErrDocumentNotFound
	}
	for column, list := range bins {
		switch column {
		case "deadlines":
			document.Deadlines = list
		case "pending":
			document.Pending = list
		case "complete":
			document.Complete = list
		case "overdue":
			document.Overdue = list
		}
	}
	r.updates++
	return nil
}

func (r *fakeDocumentRepository) Delete(ctx context.Context, id string) error {
	if _, ok := r.documents[id]; !ok {
		return er.ErrDocumentNotFound
	}
	delete(r.documents, id)
	return nil
}

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	appLogger.InitLogger()
	return appLogger
}

func seedDocument(repo *fakeDocumentRepository, stateIDs ...string) *models.Document {
	deadlines := models.ObligationList{}
	for _, stateID := range stateIDs {
		date := "2030-01-15"
		deadlines = append(deadlines, models.Obligation{
			StateID:     stateID,
			Date:        &date,
			Description: "obligation " + stateID,
		})
	}
	document := &models.Document{
		ID:        "doc_1",
		Category:  enum.CategoryTaxFiling,
		Name:      "Tax assessment",
		Deadlines: deadlines,
		Pending:   models.ObligationList{},
		Complete:  models.ObligationList{},
		Overdue:   models.ObligationList{},
	}
	repo.documents[document.ID] = document
	return document
}

func binMembership(document *models.Document, stateID string) int {
	count := 0
	for _, bin := range []models.ObligationList{document.Deadlines, document.Pending, document.Complete, document.Overdue} {
		if bin.FindByStateID(stateID) >= 0 {
			count++
		}
	}
	return count
}

func TestMarkPending_MovesAndStamps(t *testing.T) {
	repo := newFakeDocumentRepository()
	seedDocument(repo, "abc", "def")
	service := NewLifecycleService(repo, 7, testLogger())

	result, err := service.MarkPending(context.Background(), "doc_1", "abc")
	require.NoError(t, err)

	assert.Equal(t, "abc", result.MovedID)
	assert.Equal(t, 1, result.BinCounts["deadlines"])
	assert.Equal(t, 1, result.BinCounts["pending"])
	assert.Equal(t, 0, result.BinCounts["complete"])

	stored := repo.documents["doc_1"]
	index := stored.Pending.FindByStateID("abc")
	require.GreaterOrEqual(t, index, 0)
	assert.NotNil(t, stored.Pending[index].PendingAt)
	assert.Equal(t, 1, binMembership(stored, "abc"))
	assert.Equal(t, 1, binMembership(stored, "def"))
}

func TestMarkPending_SecondCallNotFound(t *testing.T) {
	repo := newFakeDocumentRepository()
	seedDocument(repo, "abc", "def", "ghi")
	service := NewLifecycleService(repo, 7, testLogger())

	result, err := service.MarkPending(context.Background(), "doc_1", "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, result.BinCounts["pending"])
	assert.Equal(t, 2, result.BinCounts["deadlines"])

	_, err = service.MarkPending(context.Background(), "doc_1", "abc")
	assert.ErrorIs(t, err, er.ErrObligationNotFound)

	// Final state equals the state after the first call.
	stored := repo.documents["doc_1"]
	assert.Len(t, stored.Pending, 1)
	assert.Len(t, stored.Deadlines, 2)
	assert.Equal(t, 1, binMembership(stored, "abc"))
}

func TestMarkComplete_FromPendingOnly(t *testing.T) {
	repo := newFakeDocumentRepository()
	seedDocument(repo, "abc")
	service := NewLifecycleService(repo, 7, testLogger())

	// Still outstanding, cannot complete directly.
	_, err := service.MarkComplete(context.Background(), "doc_1", "abc")
	assert.ErrorIs(t, err, er.ErrObligationNotFound)

	_, err = service.MarkPending(context.Background(), "doc_1", "abc")
	require.NoError(t, err)

	result, err := service.MarkComplete(context.Background(), "doc_1", "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, result.BinCounts["complete"])
	assert.Equal(t, 0, result.BinCounts["pending"])

	stored := repo.documents["doc_1"]
	index := stored.Complete.FindByStateID("abc")
	require.GreaterOrEqual(t, index, 0)
	assert.NotNil(t, stored.Complete[index].CompletedAt)
	assert.Equal(t, 1, binMembership(stored, "abc"))
}

func TestMarkOverdue_OnlyFromOutstanding(t *testing.T) {
	repo := newFakeDocumentRepository()
	seedDocument(repo, "abc", "def")
	service := NewLifecycleService(repo, 7, testLogger())

	_, err := service.MarkPending(context.Background(), "doc_1", "abc")
	require.NoError(t, err)

	// A pending obligation cannot be marked overdue.
	_, err = service.MarkOverdue(context.Background(), "doc_1", "abc")
	assert.ErrorIs(t, err, er.ErrObligationNotFound)

	result, err := service.MarkOverdue(context.Background(), "doc_1", "def")
	require.NoError(t, err)
	assert.Equal(t, 1, result.BinCounts["overdue"])

	stored := repo.documents["doc_1"]
	index := stored.Overdue.FindByStateID("def")
	require.GreaterOrEqual(t, index, 0)
	assert.NotNil(t, stored.Overdue[index].MarkedOverdueAt)
}

func TestTransition_UnknownDocument(t *testing.T) {
	repo := newFakeDocumentRepository()
	service := NewLifecycleService(repo, 7, testLogger())

	_, err := service.MarkPending(context.Background(), "doc_missing", "abc")
	assert.ErrorIs(t, err, er.ErrDocumentNotFound)
}

func TestTransition_PersistsOnlyAffectedBins(t *testing.T) {
	repo := newFakeDocumentRepository()
	seedDocument(repo, "abc")
	service := NewLifecycleService(repo, 7, testLogger())

	_, err := service.MarkPending(context.Background(), "doc_1", "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.updates)
}

func TestAggregateStatus(t *testing.T) {
	service := NewLifecycleService(newFakeDocumentRepository(), 7, testLogger())
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)

	makeDocument := func(dates ...string) *models.Document {
		deadlines := models.ObligationList{}
		for _, d := range dates {
			date := d
			deadlines = append(deadlines, models.Obligation{StateID: d, Date: &date, Description: "x"})
		}
		return &models.Document{Deadlines: deadlines}
	}

	// Far future only.
	assert.Equal(t, enum.DocumentStatusOK, service.AggregateStatus(makeDocument("2026-06-01"), now))

	// Within the 7-day window.
	assert.Equal(t, enum.DocumentStatusNeedsAttention, service.AggregateStatus(makeDocument("2025-11-05"), now))

	// In the past.
	assert.Equal(t, enum.DocumentStatusNeedsAttention, service.AggregateStatus(makeDocument("2025-10-01"), now))

	// Dateless obligations never trigger attention.
	document := &models.Document{Deadlines: models.ObligationList{{StateID: "a", Description: "someday"}}}
	assert.Equal(t, enum.DocumentStatusOK, service.AggregateStatus(document, now))

	// Pending and complete bins are ignored.
	date := "2025-11-02"
	document = &models.Document{Pending: models.ObligationList{{StateID: "a", Date: &date, Description: "x"}}}
	assert.Equal(t, enum.DocumentStatusOK, service.AggregateStatus(document, now))

	assert.Equal(t, enum.DocumentStatusOK, service.AggregateStatus(nil, now))
}
