package handler

import (
	"encoding/json"
	"net/http"

	"taskboard/internal/hierarchy"
	"taskboard/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ListHandler struct {
	boards *hierarchy.Manager
}

func NewListHandler(boards *hierarchy.Manager) *ListHandler {
	return &ListHandler{boards: boards}
}

type CreateListRequest struct {
	BoardID  uuid.UUID       `json:"boardId" binding:"required"`
	Title    string          `json:"title" binding:"required"`
	Position *int            `json:"position"`
	Style    json.RawMessage `json:"style" swaggertype:"object"`
}

// Create godoc
// @Summary Add a list to a board
// @Tags Lists
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param list body CreateListRequest true "List"
// @Success 201 {object} model.List
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /list [post]
func (h *ListHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	draft := &model.List{Title: req.Title}
	if len(req.Style) > 0 {
		draft.Style = datatypes.JSON(req.Style)
	}

	list, err := h.boards.InsertList(c.Request.Context(), userID, req.BoardID, draft, req.Position)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// GetByID godoc
// @Summary List with its active tasks
// @Tags Lists
// @Security BearerAuth
// @Produce json
// @Param id path string true "List ID"
// @Success 200 {object} hierarchy.ListSnapshot
// @Router /list/{id} [get]
func (h *ListHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id", "list")
	if !ok {
		return
	}

	list, err := h.boards.GetList(c.Request.Context(), userID, listID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Update godoc
// @Summary Update list fields
// @Tags Lists
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param patch body object true "Fields to change"
// @Success 200 {object} model.List
// @Failure 400 {object} map[string]string
// @Router /list/{id} [put]
func (h *ListHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id", "list")
	if !ok {
		return
	}
	body, ok := bindFields(c)
	if !ok {
		return
	}

	patch, err := listPatch(body)
	if err != nil {
		respondError(c, err)
		return
	}

	list, err := h.boards.UpdateList(c.Request.Context(), userID, listID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func listPatch(body fields) (hierarchy.ListPatch, error) {
	var p hierarchy.ListPatch
	if err := body.reject("board", "boardId", "tasks", "id", "_id"); err != nil {
		return p, err
	}
	d := &decoder{f: body}
	decodeOptional(d, &p.Title, "title")
	decodeOptional(d, &p.Position, "position")
	decodeNullable(d, &p.ArchivedAt, "archivedAt")
	decodeNullable(d, &p.Style, "style")
	return p, d.err
}

// Delete godoc
// @Summary Archive a list, or remove it with its tasks
// @Tags Lists
// @Security BearerAuth
// @Param id path string true "List ID"
// @Param hard query bool false "Remove instead of archive"
// @Success 200 {object} map[string]string
// @Success 204
// @Router /list/{id} [delete]
func (h *ListHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id", "list")
	if !ok {
		return
	}

	if hardDelete(c) {
		if err := h.boards.DeleteList(c.Request.Context(), userID, listID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	if _, err := h.boards.ArchiveList(c.Request.Context(), userID, listID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "List archived"})
}

// ReorderTasks godoc
// @Summary Reorder the active tasks of a list
// @Tags Lists
// @Security BearerAuth
// @Accept json
// @Param id path string true "List ID"
// @Param order body ReorderRequest true "Every active task id in the new order"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]interface{}
// @Router /list/{id}/tasks/reorder [post]
func (h *ListHandler) ReorderTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id", "list")
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.boards.ReorderTasks(c.Request.Context(), userID, listID, req.IDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tasks reordered"})
}
