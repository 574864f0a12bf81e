package models

import "time"

// NotificationType is the source event of a notification
type NotificationType string

const (
	NotificationTypeMessage  NotificationType = "message"
	NotificationTypeNotice   NotificationType = "notice"
	NotificationTypeApproval NotificationType = "approval"
)

// Notification is a per-user inbox entry produced by fan-out
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"userId" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"body" db:"body"`
	Data      JSONMap          `json:"data" db:"data"`
	IsRead    bool             `json:"isRead" db:"is_read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}
