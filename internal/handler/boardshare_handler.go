package handler

import (
	"net/http"

	"taskboard/internal/hierarchy"

	"github.com/gin-gonic/gin"
)

type BoardShareHandler struct {
	boards *hierarchy.Manager
}

func NewBoardShareHandler(boards *hierarchy.Manager) *BoardShareHandler {
	return &BoardShareHandler{boards: boards}
}

// ShareBoardRequest grants access to the user registered under Email.
type ShareBoardRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=viewer editor"`
}

// ShareBoard godoc
// @Summary Share a board
// @Tags Board Sharing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param share body ShareBoardRequest true "User and role"
// @Success 200 {object} hierarchy.ShareEntry
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /board/{id}/share [post]
func (h *BoardShareHandler) ShareBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	var req ShareBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	entry, err := h.boards.ShareBoard(c.Request.Context(), userID, boardID, req.Email, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// RemoveShare godoc
// @Summary Revoke a user's access
// @Tags Board Sharing
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param user_id path string true "User ID"
// @Success 200 {object} map[string]string
// @Router /board/{id}/share/{user_id} [delete]
func (h *BoardShareHandler) RemoveShare(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "user_id", "user")
	if !ok {
		return
	}

	if err := h.boards.Unshare(c.Request.Context(), userID, boardID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Access removed"})
}

// GetBoardShares godoc
// @Summary Users with access to a board
// @Tags Board Sharing
// @Security BearerAuth
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {array} hierarchy.ShareEntry
// @Router /board/{id}/share [get]
func (h *BoardShareHandler) GetBoardShares(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	shares, err := h.boards.BoardShares(c.Request.Context(), userID, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shares)
}

// GetSharedBoards godoc
// @Summary Boards shared with the current user
// @Tags Board Sharing
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.Board
// @Router /shared-boards [get]
func (h *BoardShareHandler) GetSharedBoards(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boards, err := h.boards.SharedBoards(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, boards)
}
