package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voicedeskhq/voicedesk/internal/models"
	"github.com/voicedeskhq/voicedesk/internal/pipeline"
	"github.com/voicedeskhq/voicedesk/internal/services"
	"github.com/voicedeskhq/voicedesk/internal/utils"
)

// TransferHandler exposes the in-call transfer tool. The dialogue layer
// invokes it mid-call; the response body is read back to the caller, so it
// always answers 200 with a speakable message.
type TransferHandler struct {
	transfers services.TransferService
	sessions  *pipeline.Manager
}

func NewTransferHandler(transfers services.TransferService, sessions *pipeline.Manager) *TransferHandler {
	return &TransferHandler{transfers: transfers, sessions: sessions}
}

// Decide handles POST /v1/tools/transfer.
func (h *TransferHandler) Decide(c *gin.Context) {
	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TransferHandler.Decide", "invalid request body", err))
		return
	}

	result := h.transfers.Decide(c.Request.Context(), req)

	if result.Action == models.TransferActionTransferred {
		if sess, ok := h.sessions.ByCall(req.CallID); ok {
			sess.MarkTransferring()
		}
	}

	c.JSON(http.StatusOK, result)
}
