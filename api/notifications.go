package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/internal/utils"
)

const defaultDrainMax = 100

// listNotificationsHandler drains pending entries from the live feed.
// Destructive read; entries returned here are gone.
func (routes *Routes) listNotificationsHandler(c *gin.Context) {
	ctx := utils.WithCustomContextFromGinRequest(c, appSourceAPI)
	span, ctx := opentracing.StartSpanFromContext(ctx, "listNotificationsHandler")
	defer span.Finish()
	tracing.SetDefaultRestSpanTags(ctx, span)

	max := defaultDrainMax
	if maxParam := c.Query("max"); maxParam != "" {
		parsed, err := strconv.Atoi(maxParam)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max must be a positive integer"})
			return
		}
		max = parsed
	}

	notifications := routes.Notifier.Drain(max)
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "count": len(notifications)})
}
