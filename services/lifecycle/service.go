package lifecycle

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"

	"github.com/paperdesk/paperdesk/dto"
	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/enum"
	er "github.com/paperdesk/paperdesk/internal/errors"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/models"
	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/internal/utils"
)

// Bin column names as persisted on the documents table.
const (
	binDeadlines = "deadlines"
	binPending   = "pending"
	binComplete  = "complete"
	binOverdue   = "overdue"
)

type lifecycleService struct {
	documentRepository interfaces.DocumentRepository
	dueSoonDays        int
	log                logger.Logger
}

func NewLifecycleService(documentRepository interfaces.DocumentRepository, dueSoonDays int, log logger.Logger) interfaces.LifecycleService {
	if dueSoonDays <= 0 {
		dueSoonDays = 7
	}
	return &lifecycleService{
		documentRepository: documentRepository,
		dueSoonDays:        dueSoonDays,
		log:                log,
	}
}

func (s *lifecycleService) MarkPending(ctx context.Context, docID, stateID string) (*dto.TransitionResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LifecycleService.MarkPending")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, docID)

	return s.transition(ctx, docID, stateID, binDeadlines, binPending, func(o *models.Obligation, now time.Time) {
		o.PendingAt = &now
	})
}

func (s *lifecycleService) MarkComplete(ctx context.Context, docID, stateID string) (*dto.TransitionResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LifecycleService.MarkComplete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, docID)

	return s.transition(ctx, docID, stateID, binPending, binComplete, func(o *models.Obligation, now time.Time) {
		o.CompletedAt = &now
	})
}

// MarkOverdue sources from the outstanding bin only. An obligation already
// claimed into pending cannot be marked overdue directly.
func (s *lifecycleService) MarkOverdue(ctx context.Context, docID, stateID string) (*dto.TransitionResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LifecycleService.MarkOverdue")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, docID)

	return s.transition(ctx, docID, stateID, binDeadlines, binOverdue, func(o *models.Obligation, now time.Time) {
		o.MarkedOverdueAt = &now
	})
}

// transition moves one obligation between two bins and persists exactly
// those two bins. Re-invoking after success finds nothing in the source bin
// and returns not-found, leaving the bins untouched.
func (s *lifecycleService) transition(ctx context.Context, docID, stateID, sourceBin, targetBin string, stamp func(*models.Obligation, time.Time)) (*dto.TransitionResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LifecycleService.transition")
	defer span.Finish()
	span.LogFields(log.String("stateId", stateID), log.String("sourceBin", sourceBin), log.String("targetBin", targetBin))

	document, err := s.documentRepository.GetByID(ctx, docID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	source := binOf(document, sourceBin)
	index := source.FindByStateID(stateID)
	if index < 0 {
		return nil, er.ErrObligationNotFound
	}

	moved := source[index]
	stamp(&moved, utils.Now())

	newSource := make(models.ObligationList, 0, len(source)-1)
	newSource = append(newSource, source[:index]...)
	newSource = append(newSource, source[index+1:]...)

	// Replace rather than double-insert if the target already carries this
	// state id from an earlier partial write.
	target := binOf(document, targetBin)
	newTarget := make(models.ObligationList, 0, len(target)+1)
	for _, o := range target {
		if o.StateID != stateID {
			newTarget = append(newTarget, o)
		}
	}
	newTarget = append(newTarget, moved)

	err = s.documentRepository.UpdateBins(ctx, docID, map[string]models.ObligationList{
		sourceBin: newSource,
		targetBin: newTarget,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	setBin(document, sourceBin, newSource)
	setBin(document, targetBin, newTarget)

	result := &dto.TransitionResult{
		MovedID: stateID,
		BinCounts: map[string]int{
			binDeadlines: len(document.Deadlines),
			binPending:   len(document.Pending),
			binComplete:  len(document.Complete),
			binOverdue:   len(document.Overdue),
		},
		Status: s.AggregateStatus(document, utils.Now()).String(),
	}
	return result, nil
}

// AggregateStatus reports needs_attention when any outstanding deadline is
// dated within the due-soon window or in the past. Read-only; never
// persisted.
func (s *lifecycleService) AggregateStatus(document *models.Document, now time.Time) enum.DocumentStatus {
	if document == nil {
		return enum.DocumentStatusOK
	}

	horizon := now.AddDate(0, 0, s.dueSoonDays)
	for _, obligation := range document.Deadlines {
		if obligation.Date == nil {
			continue
		}
		date, err := time.Parse("2006-01-02", *obligation.Date)
		if err != nil {
			continue
		}
		if !date.After(horizon) {
			return enum.DocumentStatusNeedsAttention
		}
	}
	return enum.DocumentStatusOK
}

func binOf(document *models.Document, bin string) models.ObligationList {
	switch bin {
	case binDeadlines:
		return document.Deadlines
	case binPending:
		return document.Pending
	case binComplete:
		return document.Complete
	case binOverdue:
		return document.Overdue
	}
	return nil
}

func setBin(document *models.Document, bin string, list models.ObligationList) {
	switch bin {
	case binDeadlines:
		document.Deadlines = list
	case binPending:
		document.Pending = list
	case binComplete:
		document.Complete = list
	case binOverdue:
		document.Overdue = list
	}
}
