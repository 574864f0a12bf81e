package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/services"
	"github.com/yigit/campusmesh/internal/middleware"
)

// AnalyticsController handles activity tracking and reports
type AnalyticsController struct {
	analyticsService services.AnalyticsService
}

// NewAnalyticsController creates a new AnalyticsController
func NewAnalyticsController(analyticsService services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
	}
}

// TrackActivity records an action performed by the caller
// @Summary Track activity
// @Tags analytics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.TrackActivityRequest true "Activity"
// @Success 201 {object} dto.APIResponse{data=models.UserActivity} "Activity recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /analytics/activity [post]
func (c *AnalyticsController) TrackActivity(ctx *gin.Context) {
	var req dto.TrackActivityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	activity, err := c.analyticsService.TrackActivity(ctx.Request.Context(), middleware.GetCaller(ctx), &req,
		ctx.Request.UserAgent(), ctx.ClientIP())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(activity))
}

// GenerateReport aggregates activity, notices or messages over a date range
// @Summary Generate an analytics report
// @Description Report types are user_activity, notices and messages. Day keys in the daily breakdown are UTC dates.
// @Tags analytics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.GenerateReportRequest true "Report parameters"
// @Success 200 {object} dto.APIResponse{data=dto.ReportResponse} "Report"
// @Failure 400 {object} dto.ErrorResponse "Invalid report type or date range"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Router /analytics/reports [post]
func (c *AnalyticsController) GenerateReport(ctx *gin.Context) {
	var req dto.GenerateReportRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	report, err := c.analyticsService.GenerateReport(ctx.Request.Context(), middleware.GetCaller(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ReportResponse{Report: report}))
}
