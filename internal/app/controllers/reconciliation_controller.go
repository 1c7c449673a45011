package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/edupulse/internal/app/models"
	"github.com/edupulse/edupulse/internal/app/models/dto"
	"github.com/edupulse/edupulse/internal/app/services"
	"github.com/edupulse/edupulse/internal/middleware"
)

// ReconciliationController exposes the batch lifecycle operations
type ReconciliationController struct {
	reconciliationService *services.ReconciliationService
	defaultUpcomingDays   int
}

// NewReconciliationController creates a new ReconciliationController
func NewReconciliationController(reconciliationService *services.ReconciliationService, defaultUpcomingDays int) *ReconciliationController {
	return &ReconciliationController{
		reconciliationService: reconciliationService,
		defaultUpcomingDays:   defaultUpcomingDays,
	}
}

// RunPass triggers a full reconciliation pass
// @Summary Run a reconciliation pass
// @Description Re-evaluates status and bookable state for all published courses
// @Tags reconciliation
// @Produce json
// @Security BearerAuth
// @Param dry_run query bool false "Report without writing" default(false)
// @Success 200 {object} dto.APIResponse{data=services.PassReport} "Pass completed"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /reconciliation/run [post]
func (c *ReconciliationController) RunPass(ctx *gin.Context) {
	dryRun := ctx.Query("dry_run") == "true"

	report, err := c.reconciliationService.RunPass(ctx, dryRun)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report))
}

// UpdateExpired triggers the expired-course sweep
// @Summary Expire past courses
// @Description Transitions published courses whose effective end date has passed to expired
// @Tags reconciliation
// @Produce json
// @Security BearerAuth
// @Param dry_run query bool false "Report without writing" default(false)
// @Success 200 {object} dto.APIResponse{data=services.ExpiryReport} "Sweep completed"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /reconciliation/expired [post]
func (c *ReconciliationController) UpdateExpired(ctx *gin.Context) {
	dryRun := ctx.Query("dry_run") == "true"

	report, err := c.reconciliationService.UpdateExpiredCourses(ctx, dryRun)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report))
}

// CheckConsistency runs the read-only status audit
// @Summary Check status consistency
// @Description Reports courses whose stored status disagrees with calendar time, without modifying anything
// @Tags reconciliation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=services.ConsistencyReport} "Audit completed"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /reconciliation/consistency [get]
func (c *ReconciliationController) CheckConsistency(ctx *gin.Context) {
	report, err := c.reconciliationService.CheckConsistency(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report))
}

// GetUpcomingExpiry lists courses expiring within a window
// @Summary List upcoming expirations
// @Description Returns published courses whose effective end date falls within the next N days
// @Tags reconciliation
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window size in days" default(7)
// @Success 200 {object} dto.APIResponse{data=[]dto.CourseResponse} "Courses retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid window"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /reconciliation/upcoming [get]
func (c *ReconciliationController) GetUpcomingExpiry(ctx *gin.Context) {
	days := c.defaultUpcomingDays
	if raw := ctx.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "days must be a number")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		days = parsed
	}

	courses, err := c.reconciliationService.GetUpcomingExpiry(ctx, days)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	responses := make([]dto.CourseResponse, len(courses))
	for i, course := range courses {
		responses[i] = dto.FromCourse(course)
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(responses))
}

// BulkUpdateStatus applies a status override to a set of courses
// @Summary Bulk status update
// @Description Applies the requested status to each listed course, reporting skipped courses with reasons
// @Tags reconciliation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkStatusRequest true "Course IDs and target status"
// @Success 200 {object} dto.APIResponse{data=services.BulkStatusReport} "Update completed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/status [post]
func (c *ReconciliationController) BulkUpdateStatus(ctx *gin.Context) {
	var req dto.BulkStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	report, err := c.reconciliationService.BulkUpdateStatus(ctx, req.CourseIDs, models.CourseStatus(req.Status), req.Force)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report))
}
