package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voicedeskhq/voicedesk/internal/services"
)

type CallHandler struct {
	calls services.CallService
}

func NewCallHandler(calls services.CallService) *CallHandler {
	return &CallHandler{calls: calls}
}

// Get handles GET /v1/calls/:call_id.
func (h *CallHandler) Get(c *gin.Context) {
	call, err := h.calls.Get(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}
