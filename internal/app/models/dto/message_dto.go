package dto

import "github.com/yigit/campusmesh/internal/app/models"

// SendMessageRequest is the payload of sendMessage.
// Either RecipientID or GroupID must be set.
type SendMessageRequest struct {
	RecipientID      string             `json:"recipientId" binding:"required_without=GroupID"`
	GroupID          *string            `json:"groupId"`
	Content          string             `json:"content" binding:"required,max=5000"`
	Type             models.MessageType `json:"type" binding:"omitempty,oneof=text image file video audio document"`
	AttachmentURL    *string            `json:"attachmentUrl"`
	ReplyToMessageID *string            `json:"replyToMessageId"`
	MentionIDs       []string           `json:"mentionIds"`
}

// SendMessageResponse is the result of sendMessage
type SendMessageResponse struct {
	MessageID string `json:"messageId"`
}

// ListMessagesQuery holds conversation listing parameters
type ListMessagesQuery struct {
	With  string `form:"with" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1"`
}
