package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

// MessageHandler serves direct-message history endpoints used by clients
// to backfill state after a reconnect.
type MessageHandler struct {
	messageRepo repositories.MessageRepository
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{messageRepo: messageRepo, audit: audit}
}

// History returns the full conversation between the caller and another user.
func (h *MessageHandler) History(c *gin.Context) {
	otherID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	msgs, err := h.messageRepo.History(c.Request.Context(), userID, otherID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Unread returns all messages addressed to the caller that are still unread.
func (h *MessageHandler) Unread(c *gin.Context) {
	userID := c.GetInt("userID")
	msgs, err := h.messageRepo.Unread(c.Request.Context(), userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
