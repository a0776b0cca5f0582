package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (routes *Routes) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (routes *Routes) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "paperdesk",
		"status":  "up",
	})
}
