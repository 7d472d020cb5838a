package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/voicedeskhq/voicedesk/internal/api/handlers"
	"github.com/voicedeskhq/voicedesk/internal/api/middleware"
)

type Deps struct {
	Media    *handlers.MediaWSHandler
	Transfer *handlers.TransferHandler
	Call     *handlers.CallHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Media stream websocket. The telephony platform cannot send an
	// Authorization header here; the stream URL carries its own token.
	r.GET("/v1/calls/stream", d.Media.CallStream)

	// Protected routes (service JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/v1/tools/transfer", d.Transfer.Decide)
	auth.GET("/v1/calls/:call_id", d.Call.Get)
}
