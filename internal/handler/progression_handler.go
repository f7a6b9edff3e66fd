package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/service"
	appErrors "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/errors"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/response"
)

// ProgressionHandler exposes the progression scheduler.
type ProgressionHandler struct {
	service *service.ProgressionService
}

// NewProgressionHandler constructs a progression handler.
func NewProgressionHandler(svc *service.ProgressionService) *ProgressionHandler {
	return &ProgressionHandler{service: svc}
}

type schedulerRequest struct {
	ScheduleType string `json:"scheduleType"`
	IsDryRun     bool   `json:"isDryRun"`
}

// Run godoc
// @Summary Run the progression scheduler
// @Description Executes the semester and academic-year transitions for one cohort; boundaries that have not arrived report a skipped outcome
// @Tags Progression
// @Accept json
// @Produce json
// @Param payload body schedulerRequest true "Scheduler payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /progression/scheduler [post]
func (h *ProgressionHandler) Run(c *gin.Context) {
	var req schedulerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	mode, err := scheduleType(req.ScheduleType)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.RunSchedule(c.Request.Context(), mode, req.IsDryRun, models.ActorScheduled)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RunManual godoc
// @Summary Manually trigger a progression transition
// @Description Runs one or both transitions immediately; force bypasses the boundary and completion checks
// @Tags Progression
// @Produce json
// @Param type query string false "Transition kind: semester, academic-year or both" default(both)
// @Param schedule query string false "Schedule type: Regular or Weekend" default(Regular)
// @Param force query bool false "Bypass boundary and completion checks"
// @Param dryRun query bool false "Report what would change without writing"
// @Success 200 {object} response.Envelope
// @Router /progression/scheduler [get]
func (h *ProgressionHandler) RunManual(c *gin.Context) {
	mode, err := scheduleType(c.DefaultQuery("schedule", string(models.StudyModeRegular)))
	if err != nil {
		response.Error(c, err)
		return
	}
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	dryRun, _ := strconv.ParseBool(c.DefaultQuery("dryRun", "false"))

	kind := c.Query("type")
	if kind == "both" {
		kind = ""
	}
	result, err := h.service.RunManual(c.Request.Context(), mode, models.TransitionKind(kind), force, dryRun)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Audit godoc
// @Summary Get the progression audit trail
// @Tags Progression
// @Produce json
// @Param scheduleType query string false "Schedule type: Regular or Weekend" default(Regular)
// @Success 200 {object} response.Envelope
// @Router /progression/audit [get]
func (h *ProgressionHandler) Audit(c *gin.Context) {
	mode, err := scheduleType(c.DefaultQuery("scheduleType", string(models.StudyModeRegular)))
	if err != nil {
		response.Error(c, err)
		return
	}
	trail, err := h.service.Audit(c.Request.Context(), mode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trail, nil)
}

// Halt godoc
// @Summary Halt the progression scheduler
// @Tags Progression
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /progression/halt [post]
func (h *ProgressionHandler) Halt(c *gin.Context) {
	if err := h.service.Halt(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"halted": true}, nil)
}

// Resume godoc
// @Summary Resume the progression scheduler
// @Tags Progression
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /progression/halt [delete]
func (h *ProgressionHandler) Resume(c *gin.Context) {
	if err := h.service.Resume(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"halted": false}, nil)
}

func scheduleType(raw string) (models.StudyMode, error) {
	switch models.StudyMode(raw) {
	case models.StudyModeRegular, "":
		return models.StudyModeRegular, nil
	case models.StudyModeWeekend:
		return models.StudyModeWeekend, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "scheduleType must be Regular or Weekend")
	}
}
