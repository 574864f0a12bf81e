package dto

// ListNotificationsQuery holds notification listing parameters
type ListNotificationsQuery struct {
	UnreadOnly bool `form:"unreadOnly"`
	Limit      int  `form:"limit" binding:"omitempty,min=1"`
}
