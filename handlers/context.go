package handlers

import (
	"glowbook/middleware"

	"github.com/gin-gonic/gin"
)

// callerID returns the authenticated user set by JWTAuthMiddleware.
func callerID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}
