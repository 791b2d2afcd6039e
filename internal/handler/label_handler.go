package handler

import (
	"net/http"
	"strconv"

	"taskboard/internal/hierarchy"
	"taskboard/internal/model"

	"github.com/gin-gonic/gin"
)

// LabelHandler edits a board's label palette. Labels are addressed by their
// index in the palette.
type LabelHandler struct {
	boards *hierarchy.Manager
}

func NewLabelHandler(boards *hierarchy.Manager) *LabelHandler {
	return &LabelHandler{boards: boards}
}

type LabelRequest struct {
	Color string `json:"color" binding:"required"`
	Title string `json:"title"`
}

func labelIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid label index"})
		return 0, false
	}
	return index, true
}

// GetByBoardID godoc
// @Summary Board label palette
// @Tags Labels
// @Security BearerAuth
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {array} model.Label
// @Router /board/{id}/labels [get]
func (h *LabelHandler) GetByBoardID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	labels, err := h.boards.BoardLabels(c.Request.Context(), userID, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

// Create godoc
// @Summary Add a label to the palette
// @Tags Labels
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param label body LabelRequest true "Label"
// @Success 201 {array} model.Label
// @Failure 400 {object} map[string]string
// @Router /board/{id}/labels [post]
func (h *LabelHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}

	var req LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	labels, err := h.boards.AddLabel(c.Request.Context(), userID, boardID, model.Label{Color: req.Color, Title: req.Title})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, labels)
}

// Update godoc
// @Summary Change a palette label
// @Tags Labels
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param index path int true "Label index"
// @Param label body LabelRequest true "Label"
// @Success 200 {array} model.Label
// @Failure 400 {object} map[string]string
// @Router /board/{id}/labels/{index} [put]
func (h *LabelHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}
	index, ok := labelIndex(c)
	if !ok {
		return
	}

	var req LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	labels, err := h.boards.UpdateLabel(c.Request.Context(), userID, boardID, index, model.Label{Color: req.Color, Title: req.Title})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

// Delete godoc
// @Summary Remove a palette label
// @Tags Labels
// @Security BearerAuth
// @Param id path string true "Board ID"
// @Param index path int true "Label index"
// @Success 200 {array} model.Label
// @Router /board/{id}/labels/{index} [delete]
func (h *LabelHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id", "board")
	if !ok {
		return
	}
	index, ok := labelIndex(c)
	if !ok {
		return
	}

	labels, err := h.boards.RemoveLabel(c.Request.Context(), userID, boardID, index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}
