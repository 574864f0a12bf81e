package dto

import "github.com/yigit/campusmesh/internal/app/models"

// RequestApprovalRequest is the payload of requestAdminApproval
type RequestApprovalRequest struct {
	Type models.ApprovalType `json:"type" binding:"required,oneof=role_change content_approval" example:"role_change"`
	Data models.JSONMap      `json:"data"`
}

// RequestApprovalResponse is the result of requestAdminApproval
type RequestApprovalResponse struct {
	RequestID string `json:"requestId"`
}

// ProcessApprovalRequest is the payload of processApprovalRequest
type ProcessApprovalRequest struct {
	Action models.ApprovalStatus `json:"action" binding:"required,oneof=approved rejected" example:"approved"`
	Reason *string               `json:"reason"`
}

// ListApprovalsQuery filters the admin approval queue
type ListApprovalsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}
