package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/services"
	"github.com/yigit/campusmesh/internal/middleware"
)

// NoticeController handles notice endpoints
type NoticeController struct {
	noticeService services.NoticeService
}

// NewNoticeController creates a new NoticeController
func NewNoticeController(noticeService services.NoticeService) *NoticeController {
	return &NoticeController{
		noticeService: noticeService,
	}
}

// CreateNotice publishes a notice and fans it out to its audience
// @Summary Create a notice
// @Description Publishes a notice (teacher or admin) and writes one notification per active user in the target audience. The request succeeds once the notice is stored; the fanout block reports the notification writes.
// @Tags notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateNoticeRequest true "Notice"
// @Success 201 {object} dto.APIResponse{data=dto.CreateNoticeResponse} "Notice created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Students cannot publish notices"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notices [post]
func (c *NoticeController) CreateNotice(ctx *gin.Context) {
	var req dto.CreateNoticeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	notice, result, err := c.noticeService.CreateNotice(ctx.Request.Context(), middleware.GetCaller(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.CreateNoticeResponse{
		NoticeID: notice.ID,
		Fanout:   dto.NewFanoutResponse(result),
	}))
}

// ListNotices lists notices
// @Summary List notices
// @Description Lists notices newest first, optionally filtered by type, audience and active state
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Param type query string false "Notice type" Enums(announcement, exam, event, emergency)
// @Param audience query string false "Target audience" Enums(all, student, teacher, admin)
// @Param activeOnly query bool false "Only active notices"
// @Param limit query int false "Maximum results (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=[]models.Notice} "Notices"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notices [get]
func (c *NoticeController) ListNotices(ctx *gin.Context) {
	var query dto.ListNoticesQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	notices, err := c.noticeService.ListNotices(ctx.Request.Context(), middleware.GetCaller(ctx), query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(notices))
}

// GetNotice returns one notice
// @Summary Get a notice
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 200 {object} dto.APIResponse{data=models.Notice} "Notice"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Notice not found"
// @Router /notices/{id} [get]
func (c *NoticeController) GetNotice(ctx *gin.Context) {
	notice, err := c.noticeService.GetNotice(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(notice))
}

// UpdateNotice applies a partial update
// @Summary Update a notice
// @Description Partially updates a notice. Only the author or an admin may update it.
// @Tags notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Param request body dto.UpdateNoticeRequest true "Changed fields"
// @Success 200 {object} dto.APIResponse{data=models.Notice} "Updated notice"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Not the author"
// @Failure 404 {object} dto.ErrorResponse "Notice not found"
// @Router /notices/{id} [put]
func (c *NoticeController) UpdateNotice(ctx *gin.Context) {
	var req dto.UpdateNoticeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	notice, err := c.noticeService.UpdateNotice(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(notice))
}

// DeleteNotice removes a notice
// @Summary Delete a notice
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Notice deleted"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Not the author"
// @Failure 404 {object} dto.ErrorResponse "Notice not found"
// @Router /notices/{id} [delete]
func (c *NoticeController) DeleteNotice(ctx *gin.Context) {
	if err := c.noticeService.DeleteNotice(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Notice deleted"}))
}

// ToggleNotice flips the active flag
// @Summary Toggle a notice's active state
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 200 {object} dto.APIResponse{data=models.Notice} "Updated notice"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Not the author"
// @Failure 404 {object} dto.ErrorResponse "Notice not found"
// @Router /notices/{id}/toggle [post]
func (c *NoticeController) ToggleNotice(ctx *gin.Context) {
	notice, err := c.noticeService.ToggleActive(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(notice))
}

// AddAttachment uploads a file and attaches it to a notice
// @Summary Attach a file to a notice
// @Description Accepts jpg, jpeg, png, pdf, doc and docx files up to 10MB
// @Tags notices
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Param file formData file true "Attachment"
// @Success 200 {object} dto.APIResponse{data=models.Notice} "Updated notice"
// @Failure 400 {object} dto.ErrorResponse "Missing or rejected file"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Not the author"
// @Failure 404 {object} dto.ErrorResponse "Notice not found"
// @Router /notices/{id}/attachments [post]
func (c *NoticeController) AddAttachment(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		missingFile(ctx, err)
		return
	}

	notice, err := c.noticeService.AddAttachment(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"), file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(notice))
}
