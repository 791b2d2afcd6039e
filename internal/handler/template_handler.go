package handler

import (
	"net/http"

	"taskboard/internal/materialize"

	"github.com/gin-gonic/gin"
)

// TemplateHandler creates whole boards in one request: from the fixed
// catalog, from a prompt, or from a ready-made payload.
type TemplateHandler struct {
	materializer *materialize.Materializer
}

func NewTemplateHandler(materializer *materialize.Materializer) *TemplateHandler {
	return &TemplateHandler{materializer: materializer}
}

type TemplateBoardRequest struct {
	Title string `json:"title"`
}

type AutoBoardRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

func created(res *materialize.Result) gin.H {
	body := gin.H{
		"boardId": res.Board.ID,
		"lists":   res.ListIDs,
		"tasks":   res.TaskIDs,
	}
	if len(res.Skipped) > 0 {
		body["skipped"] = res.Skipped
	}
	return body
}

// Templates godoc
// @Summary Fixed board templates
// @Tags Templates
// @Security BearerAuth
// @Produce json
// @Success 200 {array} materialize.CatalogEntry
// @Router /board/templates [get]
func (h *TemplateHandler) Templates(c *gin.Context) {
	c.JSON(http.StatusOK, materialize.Catalog())
}

// FromTemplate godoc
// @Summary Create a board from a catalog template
// @Tags Templates
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param templateId path string true "Template ID"
// @Param board body TemplateBoardRequest true "Title"
// @Success 201 {object} model.Board
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /board/template/{templateId} [post]
func (h *TemplateHandler) FromTemplate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req TemplateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid board title"})
		return
	}

	res, err := h.materializer.FromCatalog(c.Request.Context(), userID, c.Param("templateId"), req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res.Board)
}

// AutoBoard godoc
// @Summary Generate a board from a prompt
// @Tags Templates
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param prompt body AutoBoardRequest true "Prompt"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /autoBoard [post]
func (h *TemplateHandler) AutoBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req AutoBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
		return
	}

	res, err := h.materializer.FromPrompt(c.Request.Context(), userID, req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created(res))
}

// AutoBoardPayload godoc
// @Summary Create a board from a structured payload
// @Description Malformed lists and tasks are skipped and reported, the rest is created.
// @Tags Templates
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /autoBoard/payload [post]
func (h *TemplateHandler) AutoBoardPayload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := h.materializer.FromPayload(c.Request.Context(), userID, raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created(res))
}
