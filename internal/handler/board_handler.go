package handler

import (
	"net/http"
	"strconv"

	"taskboard/internal/hierarchy"
	"taskboard/internal/journal"
	"taskboard/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BoardHandler struct {
	boards *hierarchy.Manager
}

func NewBoardHandler(boards *hierarchy.Manager) *BoardHandler {
	return &BoardHandler{boards: boards}
}

type CreateBoardRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	Style       *model.BoardStyle `json:"style"`
	Labels      []model.Label     `json:"labels"`
}

type ReorderRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required"`
}

// Create godoc
// @Summary Create a board
// @Tags Boards
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param board body CreateBoardRequest true "Board"
// @Success 201 {object} model.Board
// @Failure 400 {object} map[string]string
// @Router /board [post]
func (h *BoardHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	draft := &model.Board{
		Title:       req.Title,
		Description: req.Description,
		Style:       datatypes.NewJSONType(req.Style),
	}
	if req.Labels != nil {
		draft.Labels = datatypes.NewJSONSlice(req.Labels)
	}

	board, err := h.boards.CreateBoard(c.Request.Context(), userID, draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, board)
}

// GetAll godoc
// @Summary Boards the user owns or was invited to
// @Tags Boards
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.Board
// @Router /board [get]
func (h *BoardHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boards, err := h.boards.ListBoards(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, boards)
}

// GetByID godoc
// @Summary Board with its active lists and tasks
// @Tags Boards
// @Security BearerAuth
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {object} hierarchy.Snapshot
// @Failure 404 {object} map[string]string
// @Router /board/{id} [get]
func (h *BoardHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	snap, err := h.boards.GetBoard(c.Request.Context(), userID, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Update godoc
// @Summary Update board fields
// @Tags Boards
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param patch body object true "Fields to change"
// @Success 200 {object} model.Board
// @Failure 400 {object} map[string]string
// @Router /board/{id} [put]
func (h *BoardHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}
	body, ok := bindFields(c)
	if !ok {
		return
	}

	patch, err := boardPatch(body)
	if err != nil {
		respondError(c, err)
		return
	}

	board, err := h.boards.UpdateBoard(c.Request.Context(), userID, boardID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

func boardPatch(body fields) (hierarchy.BoardPatch, error) {
	var p hierarchy.BoardPatch
	if err := body.reject("lists", "owner", "id", "_id"); err != nil {
		return p, err
	}
	d := &decoder{f: body}
	decodeOptional(d, &p.Title, "title")
	decodeOptional(d, &p.Description, "description")
	decodeNullable(d, &p.Style, "style")
	decodeOptional(d, &p.Starred, "isStarred", "starred")
	decodeNullable(d, &p.ArchivedAt, "archivedAt")
	decodeOptional(d, &p.Labels, "labels")
	return p, d.err
}

// Delete godoc
// @Summary Archive a board, or remove it with everything in it
// @Tags Boards
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param hard query bool false "Remove instead of archive"
// @Success 200 {object} map[string]string
// @Success 204
// @Router /board/{id} [delete]
func (h *BoardHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	if hardDelete(c) {
		if err := h.boards.DeleteBoard(c.Request.Context(), userID, boardID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	if _, err := h.boards.ArchiveBoard(c.Request.Context(), userID, boardID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Board archived"})
}

// ReorderLists godoc
// @Summary Reorder the active lists of a board
// @Tags Boards
// @Security BearerAuth
// @Accept json
// @Param id path string true "Board ID"
// @Param order body ReorderRequest true "Every active list id in the new order"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]interface{}
// @Router /board/{id}/lists/reorder [post]
func (h *BoardHandler) ReorderLists(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.boards.ReorderLists(c.Request.Context(), userID, boardID, req.IDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lists reordered"})
}

// Activities godoc
// @Summary Board activity, newest first
// @Tags Activities
// @Security BearerAuth
// @Produce json
// @Param id path string true "Board ID"
// @Param limit query int false "Page size"
// @Param skip query int false "Offset"
// @Success 200 {array} model.Activity
// @Router /board/{id}/activities [get]
func (h *BoardHandler) Activities(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(journal.DefaultLimit)))
	if err != nil {
		limit = journal.DefaultLimit
	}
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))

	activities, err := h.boards.BoardActivities(c.Request.Context(), userID, boardID, limit, skip)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}
