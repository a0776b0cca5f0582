package interfaces

import (
	"context"
	"time"

	"github.com/paperdesk/paperdesk/dto"
	"github.com/paperdesk/paperdesk/internal/enum"
	"github.com/paperdesk/paperdesk/internal/models"
)

// LifecycleService owns the obligation state machine. Transitions are
// one-way: outstanding to pending to complete, and outstanding to overdue.
// Each call is idempotent per {docID, stateID}: re-invoking after success
// yields a not-found error and leaves the bins unchanged.
type LifecycleService interface {
	MarkPending(ctx context.Context, docID, stateID string) (*dto.TransitionResult, error)
	MarkComplete(ctx context.Context, docID, stateID string) (*dto.TransitionResult, error)
	MarkOverdue(ctx context.Context, docID, stateID string) (*dto.TransitionResult, error)
	// AggregateStatus derives the presentation-only document status from the
	// outstanding bin. Read-only with respect to the bins.
	AggregateStatus(document *models.Document, now time.Time) enum.DocumentStatus
}
