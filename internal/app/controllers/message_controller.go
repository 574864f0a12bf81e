package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/services"
	"github.com/yigit/campusmesh/internal/middleware"
)

// MessageController handles direct messaging endpoints
type MessageController struct {
	messageService services.MessageService
}

// NewMessageController creates a new MessageController
func NewMessageController(messageService services.MessageService) *MessageController {
	return &MessageController{
		messageService: messageService,
	}
}

// SendMessage sends a direct or group message
// @Summary Send a message
// @Description Sends a message as the caller. Set recipientId for a direct message or groupId for a group message. A direct message triggers one push attempt to the recipient's device.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=dto.SendMessageResponse} "Message sent"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Not an active group member"
// @Failure 404 {object} dto.ErrorResponse "Recipient or group not found"
// @Router /messages [post]
func (c *MessageController) SendMessage(ctx *gin.Context) {
	var req dto.SendMessageRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	msg, err := c.messageService.SendMessage(ctx.Request.Context(), middleware.GetCaller(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.SendMessageResponse{MessageID: msg.ID}))
}

// GetMessage returns one message
// @Summary Get a message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} dto.APIResponse{data=models.Message} "Message"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Not a participant"
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Router /messages/{id} [get]
func (c *MessageController) GetMessage(ctx *gin.Context) {
	msg, err := c.messageService.GetMessage(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(msg))
}

// ListConversation returns the direct messages exchanged with another user
// @Summary List a conversation
// @Description Returns the latest direct messages between the caller and another user, oldest first
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param with query string true "Other user ID"
// @Param limit query int false "Maximum results (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=[]models.Message} "Messages"
// @Failure 400 {object} dto.ErrorResponse "Missing conversation partner"
// @Router /messages [get]
func (c *MessageController) ListConversation(ctx *gin.Context) {
	var query dto.ListMessagesQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	msgs, err := c.messageService.ListConversation(ctx.Request.Context(), middleware.GetCaller(ctx), query.With, query.Limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(msgs))
}

// MarkRead marks a direct message as read
// @Summary Mark a message as read
// @Description Only the recipient may mark a message read. Repeating the call succeeds without changes.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Message marked as read"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Not the recipient"
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Router /messages/{id}/read [post]
func (c *MessageController) MarkRead(ctx *gin.Context) {
	if err := c.messageService.MarkMessageRead(ctx.Request.Context(), middleware.GetCaller(ctx), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Message marked as read"}))
}

// UploadAttachment stores a file for use as a message attachment
// @Summary Upload a message attachment
// @Description Stores the file in the message-attachments bucket. Send the returned URL as attachmentUrl.
// @Tags messages
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Attachment"
// @Success 201 {object} dto.APIResponse{data=models.StoredFile} "Stored file"
// @Failure 400 {object} dto.ErrorResponse "Missing file, disallowed extension or file too large"
// @Router /messages/attachments [post]
func (c *MessageController) UploadAttachment(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		missingFile(ctx, err)
		return
	}

	stored, err := c.messageService.UploadAttachment(ctx.Request.Context(), middleware.GetCaller(ctx), file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(stored))
}
