package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/paperdesk/paperdesk/api/middleware"
	"github.com/paperdesk/paperdesk/config"
	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/tracing"
)

const appSourceAPI = "paperdesk-api"

// Routes bundles everything the HTTP surface needs.
type Routes struct {
	Cfg                *config.Config
	Log                logger.Logger
	DocumentRepository interfaces.DocumentRepository
	LifecycleService   interfaces.LifecycleService
	AttachmentStore    interfaces.AttachmentStore
	Dispatcher         interfaces.Dispatcher
	Notifier           interfaces.Notifier
}

func RegisterRoutes(ctx context.Context, r *gin.Engine, routes *Routes) {
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	r.GET("/health", routes.healthHandler)
	r.GET("/status", routes.statusHandler)

	v1 := r.Group("/v1", middleware.ApiKeyChecker(routes.Cfg.AppConfig.APIKey))

	documents := v1.Group("/documents")
	documents.POST("",
		tracing.TracingEnhancer(ctx, "POST /documents"),
		routes.createDocumentHandler)
	documents.GET("",
		tracing.TracingEnhancer(ctx, "GET /documents"),
		routes.listDocumentsHandler)
	documents.GET("/:id",
		tracing.TracingEnhancer(ctx, "GET /documents/:id"),
		routes.getDocumentHandler)
	documents.DELETE("/:id",
		tracing.TracingEnhancer(ctx, "DELETE /documents/:id"),
		routes.deleteDocumentHandler)
	documents.PATCH("/:id/deadlines/:stateId/pending",
		tracing.TracingEnhancer(ctx, "PATCH /documents/:id/deadlines/:stateId/pending"),
		routes.markPendingHandler)
	documents.PATCH("/:id/deadlines/:stateId/complete",
		tracing.TracingEnhancer(ctx, "PATCH /documents/:id/deadlines/:stateId/complete"),
		routes.markCompleteHandler)
	documents.PATCH("/:id/deadlines/:stateId/overdue",
		tracing.TracingEnhancer(ctx, "PATCH /documents/:id/deadlines/:stateId/overdue"),
		routes.markOverdueHandler)

	attachments := v1.Group("/attachments")
	attachments.GET("",
		tracing.TracingEnhancer(ctx, "GET /attachments"),
		routes.listAttachmentsHandler)
	attachments.GET("/:id",
		tracing.TracingEnhancer(ctx, "GET /attachments/:id"),
		routes.getAttachmentHandler)
	attachments.POST("/ingest",
		tracing.TracingEnhancer(ctx, "POST /attachments/ingest"),
		routes.ingestEmlHandler)

	v1.GET("/notifications",
		tracing.TracingEnhancer(ctx, "GET /notifications"),
		routes.listNotificationsHandler)
}
