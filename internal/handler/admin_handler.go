package handler

import (
	"net/http"

	"taskboard/internal/maintenance"

	"github.com/gin-gonic/gin"
)

// AdminHandler triggers maintenance jobs on demand. Every route runs through
// the scheduler so a manual run never overlaps a scheduled one.
type AdminHandler struct {
	jobs *maintenance.Scheduler
}

func NewAdminHandler(jobs *maintenance.Scheduler) *AdminHandler {
	return &AdminHandler{jobs: jobs}
}

func (h *AdminHandler) run(c *gin.Context, job string) {
	result, err := h.jobs.RunNow(c.Request.Context(), job)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job, "result": result})
}

// WipeActivity godoc
// @Summary Delete every activity entry
// @Tags Admin
// @Param X-Admin-Token header string true "Admin token"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/activity/wipe [post]
func (h *AdminHandler) WipeActivity(c *gin.Context) {
	h.run(c, maintenance.JobWipeActivity)
}

// Reset godoc
// @Summary Replace all boards with the demo seed
// @Tags Admin
// @Param X-Admin-Token header string true "Admin token"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/reset [post]
func (h *AdminHandler) Reset(c *gin.Context) {
	h.run(c, maintenance.JobReset)
}

// Reconcile godoc
// @Summary Rebuild every board's child arrays
// @Tags Admin
// @Param X-Admin-Token header string true "Admin token"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Router /admin/reconcile [post]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	h.run(c, maintenance.JobReconcile)
}
