package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-chat-service/internal/repositories"
)

// BlockHandler manages the directional block list. Blocking gates future
// sends in both directions; it never deletes existing chats or messages.
type BlockHandler struct {
	blocks repositories.BlockRepository
}

// NewBlockHandler builds a BlockHandler.
func NewBlockHandler(blocks repositories.BlockRepository) *BlockHandler {
	return &BlockHandler{blocks: blocks}
}

// Block records a block from the caller to the target user. Idempotent.
func (h *BlockHandler) Block(c *gin.Context) {
	var req struct {
		BlockedID int `json:"blocked_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if req.BlockedID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot block yourself"})
		return
	}

	if err := h.blocks.Block(c.Request.Context(), userID, req.BlockedID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not block user"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Unblock removes the caller's block on the target user. Idempotent.
func (h *BlockHandler) Unblock(c *gin.Context) {
	blockedID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.blocks.Unblock(c.Request.Context(), userID, blockedID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not unblock user"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListBlocked returns the users the caller has blocked.
func (h *BlockHandler) ListBlocked(c *gin.Context) {
	userID := c.GetInt("userID")

	entries, err := h.blocks.ListBlocked(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load block list"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": entries})
}
