package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/paperdesk/paperdesk/dto"
	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/enum"
	er "github.com/paperdesk/paperdesk/internal/errors"
	"github.com/paperdesk/paperdesk/internal/models"
	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/internal/utils"
	"github.com/paperdesk/paperdesk/services/extraction"
)

func (routes *Routes) createDocumentHandler(c *gin.Context) {
	ctx := utils.WithCustomContextFromGinRequest(c, appSourceAPI)
	span, ctx := opentracing.StartSpanFromContext(ctx, "createDocumentHandler")
	defer span.Finish()
	tracing.SetDefaultRestSpanTags(ctx, span)

	var request dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, ok := enum.DecodeDocumentCategory(request.Category)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": er.ErrUnknownCategory.Error()})
		return
	}

	entries, err := extraction.NormalizeDeadlineEntries(request.Deadlines)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	document := &models.Document{
		Category:     category,
		Name:         request.Name,
		DateReceived: request.DateReceived,
		UserID:       request.UserID,
		Deadlines:    extraction.SeedObligations(entries),
		Pending:      models.ObligationList{},
		Complete:     models.ObligationList{},
		Overdue:      models.ObligationList{},
	}

	id, err := routes.DocumentRepository.Create(ctx, document)
	if err != nil {
		tracing.TraceErr(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create document"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "document": document})
}

func (routes *Routes) listDocumentsHandler(c *gin.Context) {
	ctx := utils.WithCustomContextFromGinRequest(c, appSourceAPI)
	span, ctx := opentracing.StartSpanFromContext(ctx, "listDocumentsHandler")
	defer span.Finish()
	tracing.SetDefaultRestSpanTags(ctx, span)

	filter := interfaces.DocumentFilter{UserID: c.Query("user_id")}
	if categoryParam := c.Query("category"); categoryParam != "" {
		category, ok := enum.DecodeDocumentCategory(categoryParam)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": er.ErrUnknownCategory.Error()})
			return
		}
		filter.Category = category
	}

	documents, err := routes.DocumentRepository.List(ctx, filter)
	if err != nil {
		tracing.TraceErr(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": documents, "count": len(documents)})
}

func (routes *Routes) getDocumentHandler(c *gin.Context) {
	ctx := utils.WithCustomContextFromGinRequest(c, appSourceAPI)
	span, ctx := opentracing.StartSpanFromContext(ctx, "getDocumentHandler")
	defer span.Finish()
	tracing.SetDefaultRestSpanTags(ctx, span)

	document, err := routes.DocumentRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondDocumentError(c, span, err)
		return
	}

	status := routes.LifecycleService.AggregateStatus(document, utils.Now())
	c.JSON(http.StatusOK, gin.H{"document": document, "status": status})
}

func (routes *Routes) deleteDocumentHandler(c *gin.Context) {
	ctx := utils.WithCustomContextFromGinRequest(c, appSourceAPI)
	span, ctx := opentracing.StartSpanFromContext(ctx, "deleteDocumentHandler")
	defer span.Finish()
	tracing.SetDefaultRestSpanTags(ctx, span)

	if err := routes.DocumentRepository.Delete(ctx, c.Param("id")); err != nil {
		respondDocumentError(c, span, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (routes *Routes) markPendingHandler(c *gin.Context) {
	routes.transitionHandler(c, routes.LifecycleService.MarkPending)
}

func (routes *Routes) markCompleteHandler(c *gin.Context) {
	routes.transitionHandler(c, routes.LifecycleService.MarkComplete)
}

func (routes *Routes) markOverdueHandler(c *gin.Context) {
	routes.transitionHandler(c, routes.LifecycleService.MarkOverdue)
}

func (routes *Routes) transitionHandler(c *gin.Context, transition func(ctx context.Context, docID, stateID string) (*dto.TransitionResult, error)) {
	ctx := utils.WithCustomContextFromGinRequest(c, appSourceAPI)
	span, ctx := opentracing.StartSpanFromContext(ctx, "transitionHandler")
	defer span.Finish()
	tracing.SetDefaultRestSpanTags(ctx, span)

	result, err := transition(ctx, c.Param("id"), c.Param("stateId"))
	if err != nil {
		respondDocumentError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondDocumentError maps not-found-class errors to 404 and everything
// else to 500. Not-found is an expected client outcome and is not traced as
// an error.
func respondDocumentError(c *gin.Context, span opentracing.Span, err error) {
	switch {
	case errors.Is(err, er.ErrDocumentNotFound),
		errors.Is(err, er.ErrObligationNotFound),
		errors.Is(err, er.ErrInvalidDocumentID):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		tracing.TraceErr(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
