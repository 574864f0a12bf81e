package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/services"
	"github.com/yigit/campusmesh/internal/middleware"
)

// GroupController handles group and group messaging endpoints
type GroupController struct {
	groupService   services.GroupService
	messageService services.MessageService
}

// NewGroupController creates a new GroupController
func NewGroupController(groupService services.GroupService, messageService services.MessageService) *GroupController {
	return &GroupController{
		groupService:   groupService,
		messageService: messageService,
	}
}

// CreateGroup creates a group owned by the caller
// @Summary Create a group
// @Description Staff only. The creator becomes the owner and first member.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateGroupRequest true "Group"
// @Success 201 {object} dto.APIResponse{data=dto.GroupResponse} "Group created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Staff only"
// @Router /groups [post]
func (c *GroupController) CreateGroup(ctx *gin.Context) {
	var req dto.CreateGroupRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	group, err := c.groupService.CreateGroup(ctx.Request.Context(), middleware.GetCaller(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.GroupResponse{Group: group}))
}

// GetGroup returns a group
// @Summary Get a group
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} dto.APIResponse{data=dto.GroupResponse} "Group"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /groups/{id} [get]
func (c *GroupController) GetGroup(ctx *gin.Context) {
	group, err := c.groupService.GetGroup(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.GroupResponse{Group: group}))
}

// ListMembers returns the members of a group
// @Summary List group members
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} dto.APIResponse{data=[]models.GroupMember} "Members"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Not a member"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /groups/{id}/members [get]
func (c *GroupController) ListMembers(ctx *gin.Context) {
	members, err := c.groupService.ListMembers(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(members))
}

// AddMember adds a user to a group
// @Summary Add a group member
// @Description Re-adding an existing member updates their role without changing memberCount
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param request body dto.AddMemberRequest true "Member"
// @Success 200 {object} dto.APIResponse{data=dto.GroupResponse} "Updated group"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Not a group manager"
// @Failure 404 {object} dto.ErrorResponse "Group or user not found"
// @Router /groups/{id}/members [post]
func (c *GroupController) AddMember(ctx *gin.Context) {
	var req dto.AddMemberRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	group, err := c.groupService.AddMember(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.GroupResponse{Group: group}))
}

// RemoveMember removes a user from a group
// @Summary Remove a group member
// @Description Managers may remove any member except the owner. Members may remove themselves.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param userId path string true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.GroupResponse} "Updated group"
// @Failure 400 {object} dto.ErrorResponse "The owner cannot be removed"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Not a group manager"
// @Failure 404 {object} dto.ErrorResponse "Group or member not found"
// @Router /groups/{id}/members/{userId} [delete]
func (c *GroupController) RemoveMember(ctx *gin.Context) {
	group, err := c.groupService.RemoveMember(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"), ctx.Param("userId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.GroupResponse{Group: group}))
}

// ListMessages returns the latest group messages
// @Summary List group messages
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param limit query int false "Maximum results (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=[]models.Message} "Messages"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Not an active member"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /groups/{id}/messages [get]
func (c *GroupController) ListMessages(ctx *gin.Context) {
	msgs, err := c.messageService.ListGroupMessages(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"), queryLimit(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(msgs))
}

// MarkRead resets the caller's unread counter for a group
// @Summary Mark group messages read
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Group marked as read"
// @Failure 404 {object} dto.ErrorResponse "Group or membership not found"
// @Router /groups/{id}/read [post]
func (c *GroupController) MarkRead(ctx *gin.Context) {
	if err := c.groupService.MarkGroupRead(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Group marked as read"}))
}
