package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/services"
	"github.com/yigit/campusmesh/internal/middleware"
)

// UserController handles user profile endpoints
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// GetProfile returns the caller's profile
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.User} "Profile"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /users/me [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	caller := middleware.GetCaller(ctx)
	user, err := c.userService.GetUser(ctx.Request.Context(), caller, caller.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// UpdateProfile updates the caller's own profile fields
// @Summary Update own profile
// @Description Updates display name, photo, department, year and phone number. Role and email cannot be changed here.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile changes"
// @Success 200 {object} dto.APIResponse{data=models.User} "Updated profile"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /users/me [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateOwnProfile(ctx.Request.Context(), middleware.GetCaller(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// RegisterPushToken stores the caller's device token
// @Summary Register push token
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PushTokenRequest true "Device token"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Token registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Router /users/me/push-token [put]
func (c *UserController) RegisterPushToken(ctx *gin.Context) {
	var req dto.PushTokenRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.userService.RegisterPushToken(ctx.Request.Context(), middleware.GetCaller(ctx), req.Token); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Push token registered"}))
}

// UploadProfilePhoto replaces the caller's profile photo
// @Summary Upload profile photo
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file"
// @Success 200 {object} dto.APIResponse{data=models.User} "Updated profile"
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid file"
// @Router /users/me/photo [post]
func (c *UserController) UploadProfilePhoto(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		missingFile(ctx, err)
		return
	}

	user, err := c.userService.UploadProfileImage(ctx.Request.Context(), middleware.GetCaller(ctx), file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// ListUsers returns a page of users
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter" Enums(student, teacher, admin)
// @Param activeOnly query bool false "Only active accounts"
// @Param page query int false "Page number (default 1)"
// @Param size query int false "Page size (default 20)"
// @Success 200 {object} dto.APIResponse{data=dto.UserListResponse} "Users"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	var query dto.ListUsersQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	users, err := c.userService.ListUsers(ctx.Request.Context(), middleware.GetCaller(ctx), query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}

// GetUser returns one user's profile
// @Summary Get a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} dto.APIResponse{data=models.User} "Profile"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.userService.GetUser(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// UpdateUserRole changes another user's role
// @Summary Update a user's role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body dto.UpdateRoleRequest true "New role"
// @Success 200 {object} dto.APIResponse{data=models.User} "Updated profile"
// @Failure 400 {object} dto.ErrorResponse "Invalid role"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id}/role [put]
func (c *UserController) UpdateUserRole(ctx *gin.Context) {
	var req dto.UpdateRoleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateUserRole(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"), req.Role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}
