package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/services"
	"github.com/yigit/campusmesh/internal/middleware"
)

// HookController receives account lifecycle events from the auth provider
type HookController struct {
	userService services.UserService
}

// NewHookController creates a new HookController
func NewHookController(userService services.UserService) *HookController {
	return &HookController{
		userService: userService,
	}
}

// AccountCreated provisions the profile for a new account
// @Summary Account created hook
// @Description Creates the default student profile. Repeated delivery returns the existing profile with 200.
// @Tags hooks
// @Accept json
// @Produce json
// @Param X-Hook-Secret header string true "Shared hook secret"
// @Param request body models.AuthUser true "Account"
// @Success 201 {object} dto.APIResponse{data=models.User} "Profile created"
// @Success 200 {object} dto.APIResponse{data=models.User} "Profile already existed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid hook secret"
// @Router /hooks/accounts/created [post]
func (c *HookController) AccountCreated(ctx *gin.Context) {
	var req models.AuthUser
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, created, err := c.userService.OnAccountCreate(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, dto.NewSuccessResponse(user))
}

// AccountDeleted removes the profile and the data owned by it
// @Summary Account deleted hook
// @Description Deletes the profile with its messages, memberships and notifications per the configured cascade policy
// @Tags hooks
// @Accept json
// @Produce json
// @Param X-Hook-Secret header string true "Shared hook secret"
// @Param request body dto.AccountDeletedEvent true "Account"
// @Success 200 {object} dto.APIResponse{data=dto.AccountCleanup} "Cleanup summary"
// @Failure 401 {object} dto.ErrorResponse "Invalid hook secret"
// @Router /hooks/accounts/deleted [post]
func (c *HookController) AccountDeleted(ctx *gin.Context) {
	var req dto.AccountDeletedEvent
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	cleanup, err := c.userService.OnAccountDelete(ctx.Request.Context(), req.UID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(cleanup))
}
