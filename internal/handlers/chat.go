package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-chat-service/internal/chat"
	"campus-chat-service/internal/models"
	"campus-chat-service/internal/rabbitmq"
	"campus-chat-service/internal/repositories"
	"campus-chat-service/internal/telemetry"
)

// ChatHandler manages the chat REST surface. Real-time fan-out happens in
// the chat service; these endpoints persist first, then events follow.
type ChatHandler struct {
	svc       *chat.Service
	chatRepo  repositories.ChatRepository
	publisher rabbitmq.Publisher
	audit     *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(svc *chat.Service, chatRepo repositories.ChatRepository, publisher rabbitmq.Publisher, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{
		svc:       svc,
		chatRepo:  chatRepo,
		publisher: publisher,
		audit:     audit,
	}
}

// ListChats returns the chats visible to the authenticated user, newest
// activity first, with per-chat unread counts.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")

	chats, err := h.chatRepo.ListChats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// ListPending returns incoming chat requests awaiting the user's approval.
func (h *ChatHandler) ListPending(c *gin.Context) {
	userID := c.GetInt("userID")

	chats, err := h.chatRepo.ListPending(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pending chats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// StartChat creates or re-opens the chat with the target user.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		TargetID int `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	created, err := h.svc.RequestChat(c.Request.Context(), userID, req.TargetID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if created.Status == models.ChatPending {
		telemetry.NotifyChat(c.Request.Context(), h.publisher, "requested", created.ID, userID, req.TargetID)
	}
	c.JSON(http.StatusOK, created)
}

// ApproveChat accepts a pending chat request.
func (h *ChatHandler) ApproveChat(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	approved, err := h.svc.Approve(c.Request.Context(), chatID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "chat approved")
	telemetry.NotifyChat(c.Request.Context(), h.publisher, "approved", chatID, userID, approved.InitiatedBy)
	c.JSON(http.StatusOK, approved)
}

// RejectChat declines a pending chat request; the chat becomes inert.
func (h *ChatHandler) RejectChat(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	rejected, err := h.svc.Reject(c.Request.Context(), chatID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "chat rejected")
	c.JSON(http.StatusOK, rejected)
}

// RequestDelete opens a mutual-consent delete request on the chat.
func (h *ChatHandler) RequestDelete(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if err := h.svc.RequestDelete(c.Request.Context(), chatID, userID); err != nil {
		h.respondError(c, err)
		return
	}

	telemetry.NotifyChat(c.Request.Context(), h.publisher, "delete_requested", chatID, userID, 0)
	c.Status(http.StatusNoContent)
}

// ApproveDelete completes the mutual delete; the chat disappears from both
// users' lists.
func (h *ChatHandler) ApproveDelete(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if err := h.svc.ApproveDelete(c.Request.Context(), chatID, userID); err != nil {
		h.respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "chat deleted by mutual consent")
	c.Status(http.StatusNoContent)
}

// DeclineDelete closes the delete request; the chat stays accepted.
func (h *ChatHandler) DeclineDelete(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if err := h.svc.DeclineDelete(c.Request.Context(), chatID, userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetChatMessages returns the chat's messages, ascending by timestamp.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	msgs, err := h.svc.Messages(c.Request.Context(), chatID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostChatMessage sends a message through the pipeline. The optional
// client_key deduplicates retries.
func (h *ChatHandler) PostChatMessage(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Content   string `json:"content" binding:"required"`
		ClientKey string `json:"client_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.svc.Send(c.Request.Context(), chatID, userID, req.Content, req.ClientKey)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// DeleteMessage redacts a message for both participants (sender only).
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	chatID, messageID, ok := parseIDs(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if err := h.svc.DeleteMessage(c.Request.Context(), chatID, messageID, userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkRead marks every counterpart message in the chat as read and zeroes
// the caller's unread counter.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if err := h.svc.MarkRead(c.Request.Context(), chatID, userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, repositories.ErrChatNotFound),
		errors.Is(err, repositories.ErrMessageNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, chat.ErrNotAuthorized), errors.Is(err, chat.ErrBlocked):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, chat.ErrNotAllowed):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, chat.ErrQuotaExceeded):
		status, message = http.StatusTooManyRequests, err.Error()
	case errors.Is(err, chat.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	default:
		h.emitAudit(c, "ERROR", "internal error")
	}
	c.JSON(status, gin.H{"error": message})
}

func (h *ChatHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	var userID *string
	if id := c.GetInt("userID"); id != 0 {
		s := strconv.Itoa(id)
		userID = &s
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userID)
}

func chatIDParam(c *gin.Context) (int, bool) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, false
	}
	return chatID, true
}

func parseIDs(c *gin.Context) (int, int, bool) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return 0, 0, false
	}
	msgID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return 0, 0, false
	}
	return chatID, msgID, true
}
