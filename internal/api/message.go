package api

import (
	"net/http"

	"rvsync/backend/internal/models"
	"rvsync/backend/internal/service"
	apperrors "rvsync/backend/pkg/errors"
	"rvsync/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// MessageHandler serves the direct-message REST endpoints
type MessageHandler struct {
	chat *service.ChatService
}

func NewMessageHandler(chat *service.ChatService) *MessageHandler {
	return &MessageHandler{chat: chat}
}

// Send stores a message from the caller and pushes it to the recipient if online
func (h *MessageHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	resp, err := h.chat.SendMessage(c.Request.Context(), middleware.CurrentUserID(c), req.ToUserID, req.Message, req.MessageType)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Inbox lists the caller's conversations. The route is guarded by RequireSelf("user_id").
func (h *MessageHandler) Inbox(c *gin.Context) {
	inbox, err := h.chat.ListInbox(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusOK, inbox)
}

// Conversation returns the thread between user1_id and user2_id. The caller
// must be one of them and is the one whose unread messages get marked read.
func (h *MessageHandler) Conversation(c *gin.Context) {
	user1, err := middleware.ParamID(c, "user1_id")
	if err != nil {
		c.Error(err)
		return
	}
	user2, err := middleware.ParamID(c, "user2_id")
	if err != nil {
		c.Error(err)
		return
	}

	caller := middleware.CurrentUserID(c)
	var other uint
	switch caller {
	case user1:
		other = user2
	case user2:
		other = user1
	default:
		c.Error(apperrors.NewForbiddenError(apperrors.CodeForbidden, "Not authorized"))
		return
	}

	msgs, err := h.chat.GetConversation(c.Request.Context(), caller, other)
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// MarkRead marks one message addressed to the caller as read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, err := middleware.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	msg, err := h.chat.MarkRead(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) UnreadCount(c *gin.Context) {
	n, err := h.chat.UnreadCount(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": n})
}
