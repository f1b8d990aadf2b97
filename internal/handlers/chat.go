package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/services"
)

type ChatHandler struct {
	log     *logger.Logger
	chatSvc services.ChatService
}

func NewChatHandler(log *logger.Logger, chatSvc services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:     log.With("handler", "ChatHandler"),
		chatSvc: chatSvc,
	}
}

// POST /api/chat
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("message is required"))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "default_user"
	}

	resp := h.chatSvc.HandleMessage(c.Request.Context(), req)
	RespondOK(c, resp)
}
