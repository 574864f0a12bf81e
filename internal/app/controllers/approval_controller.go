package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/services"
	"github.com/yigit/campusmesh/internal/middleware"
)

// ApprovalController handles approval request endpoints
type ApprovalController struct {
	approvalService services.ApprovalService
}

// NewApprovalController creates a new ApprovalController
func NewApprovalController(approvalService services.ApprovalService) *ApprovalController {
	return &ApprovalController{
		approvalService: approvalService,
	}
}

// RequestApproval files a new approval request
// @Summary Request approval
// @Description Files a pending approval request on behalf of the caller
// @Tags approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RequestApprovalRequest true "Approval request"
// @Success 201 {object} dto.APIResponse{data=dto.RequestApprovalResponse} "Request filed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /approvals [post]
func (c *ApprovalController) RequestApproval(ctx *gin.Context) {
	var req dto.RequestApprovalRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	approval, err := c.approvalService.RequestApproval(ctx.Request.Context(), middleware.GetCaller(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.RequestApprovalResponse{RequestID: approval.ID}))
}

// ListApprovals lists approval requests
// @Summary List approval requests
// @Tags approvals
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(pending, approved, rejected)
// @Param limit query int false "Maximum results (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=[]models.ApprovalRequest} "Approval requests"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Router /approvals [get]
func (c *ApprovalController) ListApprovals(ctx *gin.Context) {
	var query dto.ListApprovalsQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	approvals, err := c.approvalService.ListApprovals(ctx.Request.Context(), middleware.GetCaller(ctx), query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(approvals))
}

// ProcessApproval approves or rejects a pending request
// @Summary Process an approval request
// @Description Moves a pending request to approved or rejected. A request that was already processed is rejected with 409.
// @Tags approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Approval request ID"
// @Param request body dto.ProcessApprovalRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.ApprovalRequest} "Processed request"
// @Failure 400 {object} dto.ErrorResponse "Invalid action"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Failure 404 {object} dto.ErrorResponse "Approval request not found"
// @Failure 409 {object} dto.ErrorResponse "Request already processed"
// @Router /approvals/{id}/process [post]
func (c *ApprovalController) ProcessApproval(ctx *gin.Context) {
	var req dto.ProcessApprovalRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	approval, err := c.approvalService.ProcessApproval(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(approval))
}
