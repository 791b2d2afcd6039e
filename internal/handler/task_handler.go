package handler

import (
	"net/http"
	"time"

	"taskboard/internal/hierarchy"
	"taskboard/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TaskHandler struct {
	boards *hierarchy.Manager
}

func NewTaskHandler(boards *hierarchy.Manager) *TaskHandler {
	return &TaskHandler{boards: boards}
}

type CreateTaskRequest struct {
	ListID      uuid.UUID         `json:"listId" binding:"required"`
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	Position    *int              `json:"position"`
	Labels      []model.Label     `json:"labels"`
	Members     []uuid.UUID       `json:"members"`
	StartDate   *time.Time        `json:"startDate"`
	DueDate     *time.Time        `json:"dueDate"`
	Coordinates []float64         `json:"coordinates"`
	Checklist   []model.Checklist `json:"checklist"`
	Cover       *model.Cover      `json:"cover"`
	Watching    bool              `json:"watching"`
}

type MoveTaskRequest struct {
	ListID   uuid.UUID `json:"listId" binding:"required"`
	Position *int      `json:"position"`
}

// Create godoc
// @Summary Add a task to a list
// @Tags Tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param task body CreateTaskRequest true "Task"
// @Success 201 {object} model.Task
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Coordinates != nil && len(req.Coordinates) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates must be a [lat, lng] pair"})
		return
	}

	draft := &model.Task{
		Title:       req.Title,
		Description: req.Description,
		Labels:      req.Labels,
		Members:     req.Members,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		Coordinates: req.Coordinates,
		Checklist:   req.Checklist,
		Cover:       datatypes.NewJSONType(req.Cover),
		Watching:    req.Watching,
	}

	task, err := h.boards.InsertTask(c.Request.Context(), userID, req.ListID, draft, req.Position)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GetByID godoc
// @Summary Get a task
// @Tags Tasks
// @Security BearerAuth
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} model.Task
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	task, err := h.boards.GetTask(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Update godoc
// @Summary Update task fields
// @Description Board and list cannot be changed here; use the move route.
// @Tags Tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param patch body object true "Fields to change"
// @Success 200 {object} model.Task
// @Failure 400 {object} map[string]string
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}
	body, ok := bindFields(c)
	if !ok {
		return
	}

	patch, err := taskPatch(body)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.boards.UpdateTask(c.Request.Context(), userID, taskID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// taskPatch maps the client keys, including the legacy task* aliases, onto
// the typed patch.
func taskPatch(body fields) (hierarchy.TaskPatch, error) {
	var p hierarchy.TaskPatch
	if err := body.reject("board", "boardId", "list", "listId", "taskList", "id", "_id", "createdBy"); err != nil {
		return p, err
	}
	d := &decoder{f: body}
	decodeOptional(d, &p.Title, "title", "taskTitle")
	decodeOptional(d, &p.Description, "description", "taskDescription")
	decodeOptional(d, &p.Position, "position")
	decodeOptional(d, &p.Labels, "labels", "taskLabels")
	decodeOptional(d, &p.DueComplete, "dueComplete", "isDueComplete")
	decodeOptional(d, &p.Members, "members", "taskMembers")
	decodeNullable(d, &p.StartDate, "startDate", "taskStartDate")
	decodeNullable(d, &p.DueDate, "dueDate", "taskDueDate")
	decodeNullable(d, &p.Reminder, "reminder")
	decodeNullable(d, &p.Coordinates, "coordinates", "taskCoordinates")
	decodeOptional(d, &p.Checklist, "checklist")
	decodeNullable(d, &p.Cover, "cover", "taskCover")
	decodeOptional(d, &p.Comments, "comments", "taskActivityComments")
	decodeOptional(d, &p.Attachments, "attachments")
	decodeOptional(d, &p.Watching, "watching", "isWatching")
	decodeNullable(d, &p.ArchivedAt, "archivedAt")
	return p, d.err
}

// Delete godoc
// @Summary Archive or remove a task
// @Tags Tasks
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param hard query bool false "Remove instead of archive"
// @Success 200 {object} map[string]string
// @Success 204
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	if hardDelete(c) {
		if err := h.boards.DeleteTask(c.Request.Context(), userID, taskID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	if _, err := h.boards.ArchiveTask(c.Request.Context(), userID, taskID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task archived"})
}

// MoveTask godoc
// @Summary Move a task to another list, possibly on another board
// @Tags Tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param move body MoveTaskRequest true "Target"
// @Success 200 {object} model.Task
// @Failure 400 {object} map[string]string
// @Router /tasks/{id}/move [post]
func (h *TaskHandler) MoveTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := h.boards.MoveTask(c.Request.Context(), userID, taskID, req.ListID, req.Position)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Activities godoc
// @Summary Activity of one task with author names
// @Tags Activities
// @Security BearerAuth
// @Produce json
// @Param taskId path string true "Task ID"
// @Success 200 {array} repository.ActivityView
// @Router /activities/{taskId} [get]
func (h *TaskHandler) Activities(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskId", "task")
	if !ok {
		return
	}

	activities, err := h.boards.TaskActivities(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}
