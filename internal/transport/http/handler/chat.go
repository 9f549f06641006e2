package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"datagov-chat/internal/app"
	"datagov-chat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required,max=128"`
	Message   string `json:"message" binding:"required"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "session_id and message are required")
		return
	}

	reply, err := h.chatService.HandleMessage(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidRequest):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrCompositionFailed),
			errors.Is(err, app.ErrClassificationUnavailable),
			errors.Is(err, app.ErrEmbeddingUnavailable),
			errors.Is(err, app.ErrRetrievalUnavailable):
			response.Error(c, http.StatusBadGateway, response.CodeUpstreamUnavailable, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "handle message failed")
		}
		return
	}

	response.OK(c, gin.H{"response": reply})
}

func (h *ChatHandler) ClearSession(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	if err := h.chatService.ClearSession(c.Request.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidRequest):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "clear session failed")
		}
		return
	}

	response.OK(c, gin.H{"cleared_session_id": sessionID})
}
