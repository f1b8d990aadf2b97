package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/services"
)

type SessionHandler struct {
	log        *logger.Logger
	sessionSvc services.SessionService
}

func NewSessionHandler(log *logger.Logger, sessionSvc services.SessionService) *SessionHandler {
	return &SessionHandler{
		log:        log.With("handler", "SessionHandler"),
		sessionSvc: sessionSvc,
	}
}

// GET /api/session/:userID
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID := c.Param("userID")
	if userID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("userID is required"))
		return
	}
	RespondOK(c, h.sessionSvc.Get(c.Request.Context(), userID))
}

// POST /api/session/:userID/reset
// Clears the active path but keeps completed-topic history.
func (h *SessionHandler) ResetSession(c *gin.Context) {
	userID := c.Param("userID")
	if userID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("userID is required"))
		return
	}
	RespondOK(c, h.sessionSvc.Reset(c.Request.Context(), userID))
}
