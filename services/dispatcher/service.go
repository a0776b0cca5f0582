package dispatcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"

	"github.com/paperdesk/paperdesk/dto"
	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/enum"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/models"
	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/services/extraction"
)

// Classification phrases that select the transaction workflow.
var billingSignals = []string{"bill", "invoice", "transaction"}

type dispatcher struct {
	aiService          interfaces.AIService
	store              interfaces.AttachmentStore
	documentRepository interfaces.DocumentRepository
	notifier           interfaces.Notifier
	profileFields      []string
	llmTimeout         time.Duration
	log                logger.Logger
}

func NewDispatcher(
	aiService interfaces.AIService,
	store interfaces.AttachmentStore,
	documentRepository interfaces.DocumentRepository,
	notifier interfaces.Notifier,
	profileFields []string,
	llmTimeout time.Duration,
	log logger.Logger,
) interfaces.Dispatcher {
	if llmTimeout <= 0 {
		llmTimeout = 60 * time.Second
	}
	return &dispatcher{
		aiService:          aiService,
		store:              store,
		documentRepository: documentRepository,
		notifier:           notifier,
		profileFields:      profileFields,
		llmTimeout:         llmTimeout,
		log:                log,
	}
}

// Dispatch runs the full post-ingestion pipeline for one saved attachment:
// extract text, file it as a document, pick a workflow, publish the
// notification. Every failure is logged and swallowed; the attachment stays
// on disk for later reprocessing and the poller keeps running.
func (d *dispatcher) Dispatch(ctx context.Context, meta *models.AttachmentMeta) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Dispatcher.Dispatch")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	if meta == nil {
		return
	}
	tracing.TagEntity(span, meta.ID)

	content, err := d.store.Read(ctx, meta.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		d.log.Warnf("Skipping attachment %s, failed to read content: %v", meta.ID, err)
		return
	}

	text, err := extraction.ExtractText(content, meta.MimeType, meta.OriginalFilename)
	if err != nil {
		tracing.TraceErr(span, err)
		d.log.Warnf("Skipping attachment %s, failed to extract text: %v", meta.ID, err)
		return
	}

	docID := d.fileDocument(ctx, meta, text)

	workflow := d.selectWorkflow(ctx, text)
	span.LogFields(log.String("result.workflow", workflow.String()))

	switch workflow {
	case enum.WorkflowForm:
		d.notifier.Publish(dto.NewFormNotification(meta.ID))
	case enum.WorkflowTransaction:
		d.notifier.Publish(dto.NewTransactionNotification(meta.ID))
	case enum.WorkflowCompare:
		d.compareAgainstPrevious(ctx, meta, text, docID)
	}
}

// selectWorkflow walks the three terminal branches: fillable blanks win,
// then a billing signal in the classification, then comparison by default.
// A failed collaborator call falls through to the next branch.
func (d *dispatcher) selectWorkflow(ctx context.Context, text string) enum.Workflow {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Dispatcher.selectWorkflow")
	defer span.Finish()

	blankCtx, cancel := context.WithTimeout(ctx, d.llmTimeout)
	blanks, err := d.aiService.FindBlankFields(blankCtx, text, d.profileFields)
	cancel()
	if err != nil {
		tracing.TraceErr(span, err)
		d.log.Warnf("Blank-field probe failed: %v", err)
	} else if len(blanks) > 0 {
		span.LogFields(log.Object("blankFields", blanks))
		return enum.WorkflowForm
	}

	classifyCtx, cancel := context.WithTimeout(ctx, d.llmTimeout)
	classification, err := d.aiService.ClassifyDocument(classifyCtx, text)
	cancel()
	if err != nil {
		tracing.TraceErr(span, err)
		d.log.Warnf("Classification failed: %v", err)
		return enum.WorkflowCompare
	}

	lower := strings.ToLower(classification)
	for _, signal := range billingSignals {
		if strings.Contains(lower, signal) {
			return enum.WorkflowTransaction
		}
	}

	return enum.WorkflowCompare
}

// fileDocument runs extraction and persists the filed document. Best
// effort; returns the new document id or empty string.
func (d *dispatcher) fileDocument(ctx context.Context, meta *models.AttachmentMeta, text string) string {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Dispatcher.fileDocument")
	defer span.Finish()

	extractCtx, cancel := context.WithTimeout(ctx, d.llmTimeout)
	completion, err := d.aiService.ExtractDocument(extractCtx, text)
	cancel()
	if err != nil {
		tracing.TraceErr(span, err)
		d.log.Warnf("Document extraction failed for attachment %s: %v", meta.ID, err)
		return ""
	}

	extracted, err := extraction.ParseCompletion(completion)
	if err != nil {
		tracing.TraceErr(span, err)
		d.log.Warnf("Could not parse extraction completion for attachment %s: %v", meta.ID, err)
		return ""
	}

	stem := strings.TrimSuffix(meta.OriginalFilename, filepath.Ext(meta.OriginalFilename))
	document, err := extraction.BuildDocument(extracted, []string{meta.ID}, "", stem)
	if err != nil {
		tracing.TraceErr(span, err)
		d.log.Warnf("Invalid extraction result for attachment %s: %v", meta.ID, err)
		return ""
	}

	docID, err := d.documentRepository.Create(ctx, document)
	if err != nil {
		tracing.TraceErr(span, err)
		d.log.Errorf("Failed to persist document for attachment %s: %v", meta.ID, err)
		return ""
	}

	d.log.Infof("Filed attachment %s as document %s (%s)", meta.ID, docID, document.Category)
	return docID
}

// compareAgainstPrevious diffs the attachment against the most recent prior
// attachment sharing the same original filename.
func (d *dispatcher) compareAgainstPrevious(ctx context.Context, meta *models.AttachmentMeta, text, docID string) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Dispatcher.compareAgainstPrevious")
	defer span.Finish()

	previous := d.findPreviousVersion(ctx, meta)
	if previous == nil {
		d.log.Infof("No previous version of %s, skipping comparison", meta.OriginalFilename)
		return
	}

	previousContent, err := d.store.Read(ctx, previous.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		d.log.Warnf("Failed to read previous version %s: %v", previous.ID, err)
		return
	}

	previousText, err := extraction.ExtractText(previousContent, previous.MimeType, previous.OriginalFilename)
	if err != nil {
		tracing.TraceErr(span, err)
		d.log.Warnf("Failed to extract text from previous version %s: %v", previous.ID, err)
		return
	}

	compareCtx, cancel := context.WithTimeout(ctx, d.llmTimeout)
	diff, err := d.aiService.CompareDocuments(compareCtx, text, previousText)
	cancel()
	if err != nil {
		tracing.TraceErr(span, err)
		d.log.Warnf("Comparison failed for attachment %s: %v", meta.ID, err)
		return
	}

	d.notifier.Publish(dto.NewCompareNotification(docID, diff))
}

func (d *dispatcher) findPreviousVersion(ctx context.Context, meta *models.AttachmentMeta) *models.AttachmentMeta {
	metas, err := d.store.List(ctx)
	if err != nil {
		d.log.Warnf("Failed to list attachments for comparison: %v", err)
		return nil
	}

	// List is newest first; the first older entry with the same original
	// filename is the version of record.
	for _, candidate := range metas {
		if candidate.ID == meta.ID {
			continue
		}
		if candidate.OriginalFilename == meta.OriginalFilename && !candidate.SavedAt.After(meta.SavedAt) {
			return candidate
		}
	}
	return nil
}
