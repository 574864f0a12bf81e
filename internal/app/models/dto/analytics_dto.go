package dto

import (
	"time"

	"github.com/yigit/campusmesh/internal/app/models"
)

// Report types
const (
	ReportUserActivity = "user_activity"
	ReportNotices      = "notices"
	ReportMessages     = "messages"
)

// TrackActivityRequest is the payload of trackActivity
type TrackActivityRequest struct {
	Action   string         `json:"action" binding:"required,max=100" example:"view_notice"`
	Metadata models.JSONMap `json:"metadata"`
}

// GenerateReportRequest is the payload of generateAnalyticsReport
type GenerateReportRequest struct {
	ReportType string    `json:"reportType" binding:"required" example:"user_activity"`
	StartDate  time.Time `json:"startDate" binding:"required"`
	EndDate    time.Time `json:"endDate" binding:"required"`
}

// ActionCount is one entry of the top actions ranking
type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// UserActivityReport aggregates user_activity rows
type UserActivityReport struct {
	TotalActivities int            `json:"totalActivities"`
	UniqueUsers     int            `json:"uniqueUsers"`
	TopActions      []ActionCount  `json:"topActions"`
	DailyBreakdown  map[string]int `json:"dailyBreakdown"`
}

// NoticesReport aggregates notices
type NoticesReport struct {
	TotalNotices  int            `json:"totalNotices"`
	ActiveNotices int            `json:"activeNotices"`
	ByType        map[string]int `json:"byType"`
	ByAuthor      map[string]int `json:"byAuthor"`
}

// MessagesReport aggregates messages
type MessagesReport struct {
	TotalMessages int            `json:"totalMessages"`
	ReadMessages  int            `json:"readMessages"`
	ByType        map[string]int `json:"byType"`
}

// Report is the result of generateAnalyticsReport
type Report struct {
	ReportType  string      `json:"reportType"`
	StartDate   time.Time   `json:"startDate"`
	EndDate     time.Time   `json:"endDate"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Data        interface{} `json:"data"`
}

// ReportResponse wraps a report
type ReportResponse struct {
	Report *Report `json:"report"`
}
