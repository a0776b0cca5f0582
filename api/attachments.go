package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"

	"github.com/paperdesk/paperdesk/internal/models"
	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/internal/utils"
)

func (routes *Routes) listAttachmentsHandler(c *gin.Context) {
	ctx := utils.WithCustomContextFromGinRequest(c, appSourceAPI)
	span, ctx := opentracing.StartSpanFromContext(ctx, "listAttachmentsHandler")
	defer span.Finish()
	tracing.SetDefaultRestSpanTags(ctx, span)

	metas, err := routes.AttachmentStore.List(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list attachments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"attachments": metas, "count": len(metas)})
}

func (routes *Routes) getAttachmentHandler(c *gin.Context) {
	ctx := utils.WithCustomContextFromGinRequest(c, appSourceAPI)
	span, ctx := opentracing.StartSpanFromContext(ctx, "getAttachmentHandler")
	defer span.Finish()
	tracing.SetDefaultRestSpanTags(ctx, span)

	meta, err := routes.AttachmentStore.Get(ctx, c.Param("id"))
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "attachment not found"})
			return
		}
		tracing.TraceErr(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read attachment"})
		return
	}

	c.JSON(http.StatusOK, meta)
}

// ingestEmlHandler accepts a raw RFC822 message body and runs it through
// the same extraction and dispatch pipeline as polled mail. Manual entry
// point for paperwork that never hits the mailbox.
func (routes *Routes) ingestEmlHandler(c *gin.Context) {
	ctx := utils.WithCustomContextFromGinRequest(c, appSourceAPI)
	span, ctx := opentracing.StartSpanFromContext(ctx, "ingestEmlHandler")
	defer span.Finish()
	tracing.SetDefaultRestSpanTags(ctx, span)

	envelope, err := enmime.ReadEnvelope(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse message: " + err.Error()})
		return
	}

	source := models.SourceMessage{
		From:      envelope.GetHeader("From"),
		To:        envelope.GetHeader("To"),
		Subject:   envelope.GetHeader("Subject"),
		Date:      envelope.GetHeader("Date"),
		MessageID: utils.NormalizeMessageID(envelope.GetHeader("Message-Id")),
	}

	var saved []*models.AttachmentMeta
	for _, part := range append(envelope.Attachments, envelope.Inlines...) {
		if part.FileName == "" || len(part.Content) == 0 {
			continue
		}
		meta, err := routes.AttachmentStore.Save(ctx, part.FileName, part.ContentType, part.Content, source)
		if err != nil {
			tracing.TraceErr(span, err)
			routes.Log.Warnf("Failed to save uploaded attachment %s: %v", part.FileName, err)
			continue
		}
		saved = append(saved, meta)
		routes.Dispatcher.Dispatch(ctx, meta)
	}

	span.LogFields(log.Int("result.attachmentCount", len(saved)))
	c.JSON(http.StatusCreated, gin.H{"attachments": saved, "count": len(saved)})
}
