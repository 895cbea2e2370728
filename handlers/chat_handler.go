package handlers

import (
	"errors"
	"net/http"

	"legalklarity-backend/middleware"
	"legalklarity-backend/models"
	"legalklarity-backend/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler answers legal questions
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Ask handles POST /api/v1/chat
func (h *ChatHandler) Ask(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "message is required")
		return
	}

	reply, err := h.chat.Ask(c.Request.Context(), middleware.UserID(c), req.Message)
	switch {
	case err == nil:
		respondOK(c, http.StatusOK, reply)
	case errors.Is(err, service.ErrEmptyMessage):
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "message is required")
	case errors.Is(err, service.ErrMessageTooLong):
		respondError(c, http.StatusBadRequest, "MESSAGE_TOO_LONG", err.Error())
	case errors.Is(err, service.ErrChatUnavailable):
		respondError(c, http.StatusServiceUnavailable, "CHAT_UNAVAILABLE", "Chat is not available")
	default:
		c.Error(err)
		respondError(c, http.StatusBadGateway, "CHAT_FAILED", "An error occurred. Please try again.")
	}
}
