package attachments

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"

	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/models"
	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/internal/utils"
)

// Extractor walks a message's part tree, downloads every attachment part and
// persists it through the store.
type Extractor struct {
	mailClient interfaces.MailClient
	store      interfaces.AttachmentStore
	log        logger.Logger
}

func NewExtractor(mailClient interfaces.MailClient, store interfaces.AttachmentStore, log logger.Logger) *Extractor {
	return &Extractor{
		mailClient: mailClient,
		store:      store,
		log:        log,
	}
}

// ExtractAttachments saves every attachment part of the message and returns
// the stored metadata records. A message with no attachments yields an empty
// slice and no error. A failure on one part is logged and skipped; the
// remaining parts are still processed.
func (e *Extractor) ExtractAttachments(ctx context.Context, message *interfaces.MailMessage) ([]*models.AttachmentMeta, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AttachmentExtractor.ExtractAttachments")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if message == nil || message.Payload == nil {
		return nil, nil
	}
	tracing.TagEntity(span, message.ID)

	source := sourceFromMessage(message)

	var saved []*models.AttachmentMeta
	e.walk(ctx, message, *message.Payload, source, &saved)

	span.LogFields(log.Int("result.attachmentCount", len(saved)))
	return saved, nil
}

func (e *Extractor) walk(ctx context.Context, message *interfaces.MailMessage, part interfaces.MessagePart, source models.SourceMessage, saved *[]*models.AttachmentMeta) {
	if isAttachment(part) {
		meta, err := e.saveAttachment(ctx, message, part, source)
		if err != nil {
			e.log.Warnf("Failed to extract attachment %s from message %s: %v", part.Filename, message.ID, err)
		} else {
			*saved = append(*saved, meta)
		}
	}
	for _, child := range part.Parts {
		e.walk(ctx, message, child, source, saved)
	}
}

// A part is an attachment iff it has a filename and a way to reach its
// bytes. Inline body parts without filenames are not attachments.
func isAttachment(part interfaces.MessagePart) bool {
	return part.Filename != "" && (part.AttachmentID != "" || len(part.Data) > 0)
}

func (e *Extractor) saveAttachment(ctx context.Context, message *interfaces.MailMessage, part interfaces.MessagePart, source models.SourceMessage) (*models.AttachmentMeta, error) {
	content := part.Data
	if len(content) == 0 {
		fetched, err := e.mailClient.GetAttachment(ctx, message.ID, part.AttachmentID)
		if err != nil {
			return nil, err
		}
		content = fetched
	}

	return e.store.Save(ctx, part.Filename, part.MimeType, content, source)
}

func sourceFromMessage(message *interfaces.MailMessage) models.SourceMessage {
	messageID := utils.FirstNotEmpty(message.Headers["Message-Id"], message.Headers["Message-ID"])
	return models.SourceMessage{
		From:      message.Headers["From"],
		To:        message.Headers["To"],
		Subject:   message.Headers["Subject"],
		Date:      message.Headers["Date"],
		MessageID: utils.NormalizeMessageID(messageID),
		ThreadID:  message.ThreadID,
	}
}
