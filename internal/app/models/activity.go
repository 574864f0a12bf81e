package models

import "time"

// UserActivity is one tracked user action
type UserActivity struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Metadata  JSONMap   `json:"metadata" db:"metadata"`
	UserAgent *string   `json:"userAgent,omitempty" db:"user_agent"`
	IPAddress *string   `json:"ipAddress,omitempty" db:"ip_address"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TimeRange is an inclusive [Start, End] window.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies inside the window, both ends included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
