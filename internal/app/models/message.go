package models

import "time"

// MessageType represents the kind of message content
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeFile     MessageType = "file"
	MessageTypeVideo    MessageType = "video"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeDocument MessageType = "document"
)

// IsValid reports whether t is a known message type.
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeVideo, MessageTypeAudio, MessageTypeDocument:
		return true
	}
	return false
}

// Message is a direct or group message. For group messages RecipientID holds the group id.
type Message struct {
	ID               string      `json:"id" db:"id"`
	SenderID         string      `json:"senderId" db:"sender_id"`
	RecipientID      string      `json:"recipientId" db:"recipient_id"`
	Content          string      `json:"content" db:"content"`
	Type             MessageType `json:"type" db:"type"`
	AttachmentURL    *string     `json:"attachmentUrl,omitempty" db:"attachment_url"`
	IsRead           bool        `json:"isRead" db:"is_read"`
	ReadAt           *time.Time  `json:"readAt,omitempty" db:"read_at"`
	GroupID          *string     `json:"groupId,omitempty" db:"group_id"`
	IsGroupMessage   bool        `json:"isGroupMessage" db:"is_group_message"`
	ReplyToMessageID *string     `json:"replyToMessageId,omitempty" db:"reply_to_message_id"`
	MentionIDs       []string    `json:"mentionIds" db:"mention_ids"`
	CreatedAt        time.Time   `json:"createdAt" db:"created_at"`
}
