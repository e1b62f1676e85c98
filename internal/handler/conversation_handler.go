package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qanoon-go/internal/service"
	"qanoon-go/pkg/log"
)

// ConversationHandler serves stored session history.
type ConversationHandler struct {
	conversationService service.ConversationService
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// GetHistory handles GET /api/v1/consult/history?session=.
func (h *ConversationHandler) GetHistory(c *gin.Context) {
	session := c.Query("session")
	if session == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session parameter is required"})
		return
	}

	messages, err := h.conversationService.GetHistory(c.Request.Context(), session)
	if err != nil {
		log.Errorf("[ConversationHandler] failed to load history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": messages})
}
