package dto

import (
	"time"

	"github.com/yigit/campusmesh/internal/app/models"
)

// CreateNoticeRequest is the payload of createNotice.
// Timestamps are assigned by the server and are not accepted here.
type CreateNoticeRequest struct {
	Title          string            `json:"title" binding:"required,max=200" example:"Midterm schedule"`
	Content        string            `json:"content" binding:"required" example:"Midterms start on Monday."`
	Type           models.NoticeType `json:"type" binding:"required,oneof=announcement exam event emergency" example:"exam"`
	TargetAudience models.Audience   `json:"targetAudience" binding:"required,oneof=all student teacher admin" example:"student"`
	ExpiresAt      *time.Time        `json:"expiresAt,omitempty"`
	Attachments    []string          `json:"attachments,omitempty"`
}

// UpdateNoticeRequest is a partial notice update
type UpdateNoticeRequest struct {
	Title          *string            `json:"title" binding:"omitempty,min=1,max=200"`
	Content        *string            `json:"content" binding:"omitempty,min=1"`
	Type           *models.NoticeType `json:"type" binding:"omitempty,oneof=announcement exam event emergency"`
	TargetAudience *models.Audience   `json:"targetAudience" binding:"omitempty,oneof=all student teacher admin"`
	ExpiresAt      *time.Time         `json:"expiresAt"`
	IsActive       *bool              `json:"isActive"`
	Attachments    []string           `json:"attachments"`
}

// ToChanges converts the request into model changes
func (r UpdateNoticeRequest) ToChanges() models.NoticeChanges {
	return models.NoticeChanges{
		Title:          r.Title,
		Content:        r.Content,
		Type:           r.Type,
		TargetAudience: r.TargetAudience,
		ExpiresAt:      r.ExpiresAt,
		IsActive:       r.IsActive,
		Attachments:    r.Attachments,
	}
}

// ListNoticesQuery holds notice listing filters
type ListNoticesQuery struct {
	Type       string `form:"type" binding:"omitempty,oneof=announcement exam event emergency"`
	Audience   string `form:"audience" binding:"omitempty,oneof=all student teacher admin"`
	ActiveOnly bool   `form:"activeOnly"`
	Limit      int    `form:"limit" binding:"omitempty,min=1"`
}

// ToFilter converts the query into a repository filter
func (q ListNoticesQuery) ToFilter() models.NoticeFilter {
	f := models.NoticeFilter{ActiveOnly: q.ActiveOnly, Limit: q.Limit}
	if q.Type != "" {
		t := models.NoticeType(q.Type)
		f.Type = &t
	}
	if q.Audience != "" {
		a := models.Audience(q.Audience)
		f.TargetAudience = &a
	}
	return f
}

// FanoutResponse is the wire form of a fan-out outcome
type FanoutResponse struct {
	PrimaryWriteOK bool     `json:"primaryWriteOk" example:"true"`
	FanoutOK       bool     `json:"fanoutOk" example:"true"`
	Attempted      int      `json:"attempted" example:"120"`
	Delivered      int      `json:"delivered" example:"120"`
	FanoutErrors   []string `json:"fanoutErrors,omitempty"`
}

// NewFanoutResponse converts a fan-out outcome
func NewFanoutResponse(r models.FanoutResult) FanoutResponse {
	resp := FanoutResponse{
		PrimaryWriteOK: r.PrimaryWriteOK,
		FanoutOK:       r.FanoutOK,
		Attempted:      r.Attempted,
		Delivered:      r.Delivered,
	}
	for _, err := range r.FanoutErrors {
		resp.FanoutErrors = append(resp.FanoutErrors, err.Error())
	}
	return resp
}

// CreateNoticeResponse is the result of createNotice
type CreateNoticeResponse struct {
	NoticeID string         `json:"noticeId" example:"2b0c9b52-1f0e-4a55-9a0e-5d8f0f6c1f7a"`
	Fanout   FanoutResponse `json:"fanout"`
}
