package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusmesh/internal/app/controllers"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/middleware"
	"github.com/yigit/campusmesh/internal/pkg/websocket"
)

// Controllers groups every HTTP handler set mounted by SetupRouter
type Controllers struct {
	Notice       *controllers.NoticeController
	Message      *controllers.MessageController
	Notification *controllers.NotificationController
	Approval     *controllers.ApprovalController
	Analytics    *controllers.AnalyticsController
	User         *controllers.UserController
	Group        *controllers.GroupController
	Hook         *controllers.HookController
}

// Guards are the middleware chains applied to route groups
type Guards struct {
	Auth       *middleware.AuthMiddleware
	HookSecret gin.HandlerFunc
	// RateLimit is optional
	RateLimit gin.HandlerFunc
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, guards Guards, ws *websocket.Handler) {
	v1 := router.Group("/api/v1")

	// Account lifecycle events from the identity provider
	hooks := v1.Group("/hooks", guards.HookSecret)
	{
		hooks.POST("/accounts/created", c.Hook.AccountCreated)
		hooks.POST("/accounts/deleted", c.Hook.AccountDeleted)
	}

	authenticated := v1.Group("")
	authenticated.Use(guards.Auth.JWTAuth())
	if guards.RateLimit != nil {
		authenticated.Use(guards.RateLimit)
	}
	{
		if ws != nil {
			authenticated.GET("/ws", ws.HandleConnection)
		}

		notices := authenticated.Group("/notices")
		{
			notices.GET("", c.Notice.ListNotices)
			notices.GET("/:id", c.Notice.GetNotice)
			notices.POST("", c.Notice.CreateNotice)
			notices.PUT("/:id", c.Notice.UpdateNotice)
			notices.DELETE("/:id", c.Notice.DeleteNotice)
			notices.POST("/:id/toggle", c.Notice.ToggleNotice)
			notices.POST("/:id/attachments", c.Notice.AddAttachment)
		}

		messages := authenticated.Group("/messages")
		{
			messages.POST("", c.Message.SendMessage)
			messages.POST("/attachments", c.Message.UploadAttachment)
			messages.GET("", c.Message.ListConversation)
			messages.GET("/:id", c.Message.GetMessage)
			messages.POST("/:id/read", c.Message.MarkRead)
		}

		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", c.Notification.ListNotifications)
			notifications.POST("/:id/read", c.Notification.MarkRead)
		}

		approvals := authenticated.Group("/approvals")
		{
			approvals.POST("", c.Approval.RequestApproval)
			approvals.GET("", c.Approval.ListApprovals)
			approvals.POST("/:id/process", c.Approval.ProcessApproval)
		}

		analytics := authenticated.Group("/analytics")
		{
			analytics.POST("/activity", c.Analytics.TrackActivity)
			analytics.POST("/reports", c.Analytics.GenerateReport)
		}

		users := authenticated.Group("/users")
		{
			users.GET("", c.User.ListUsers)
			users.GET("/me", c.User.GetProfile)
			users.PUT("/me", c.User.UpdateProfile)
			users.PUT("/me/push-token", c.User.RegisterPushToken)
			users.POST("/me/photo", c.User.UploadProfilePhoto)
			users.GET("/:id", c.User.GetUser)
			users.PUT("/:id/role", c.User.UpdateUserRole)
		}

		groups := authenticated.Group("/groups")
		{
			groups.POST("", c.Group.CreateGroup)
			groups.GET("/:id", c.Group.GetGroup)
			groups.GET("/:id/members", c.Group.ListMembers)
			groups.POST("/:id/members", c.Group.AddMember)
			groups.DELETE("/:id/members/:userId", c.Group.RemoveMember)
			groups.GET("/:id/messages", c.Group.ListMessages)
			groups.POST("/:id/read", c.Group.MarkRead)
		}
	}

	// Health check endpoint (public)
	v1.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})
}

// SetupOps registers the unversioned liveness probe
func SetupOps(router *gin.Engine) {
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "pong")
	})
}
