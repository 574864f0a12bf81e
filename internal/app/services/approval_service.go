package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/campusmesh/internal/app/auth"
	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
	"github.com/yigit/campusmesh/internal/pkg/helpers"
)

// ApprovalService defines the interface for the admin approval workflow
type ApprovalService interface {
	RequestApproval(ctx context.Context, caller auth.Caller, req *dto.RequestApprovalRequest) (*models.ApprovalRequest, error)
	ProcessApproval(ctx context.Context, caller auth.Caller, id string, req *dto.ProcessApprovalRequest) (*models.ApprovalRequest, error)
	ListApprovals(ctx context.Context, caller auth.Caller, query dto.ListApprovalsQuery) ([]*models.ApprovalRequest, error)
}

// approvalServiceImpl implements ApprovalService
type approvalServiceImpl struct {
	approvalRepo  repositories.ApprovalRepository
	notifications NotificationService
	logger        zerolog.Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	approvalRepo repositories.ApprovalRepository,
	notifications NotificationService,
	logger zerolog.Logger,
) ApprovalService {
	return &approvalServiceImpl{
		approvalRepo:  approvalRepo,
		notifications: notifications,
		logger:        logger,
	}
}

// RequestApproval files a pending request on behalf of the caller
func (s *approvalServiceImpl) RequestApproval(ctx context.Context, caller auth.Caller, req *dto.RequestApprovalRequest) (*models.ApprovalRequest, error) {
	if err := auth.Require(caller, auth.ActionRequestApproval, auth.OwnedBy(caller.ID)); err != nil {
		return nil, err
	}
	if !req.Type.IsValid() {
		return nil, apperrors.NewBadRequestError("invalid approval type")
	}

	data := req.Data
	if data == nil {
		data = models.JSONMap{}
	}
	approval := &models.ApprovalRequest{
		ID:     uuid.New().String(),
		UserID: caller.ID,
		Type:   req.Type,
		Data:   data,
		Status: models.ApprovalPending,
	}
	if err := s.approvalRepo.Create(ctx, approval); err != nil {
		return nil, internalError("creating approval request", err)
	}

	s.logger.Info().
		Str("requestId", approval.ID).
		Str("userId", caller.ID).
		Str("type", string(approval.Type)).
		Msg("Approval request created")
	return approval, nil
}

// ProcessApproval moves a pending request to approved or rejected. A request that
// is no longer pending is reported as invalid state and left untouched.
func (s *approvalServiceImpl) ProcessApproval(ctx context.Context, caller auth.Caller, id string, req *dto.ProcessApprovalRequest) (*models.ApprovalRequest, error) {
	if err := auth.Require(caller, auth.ActionProcessApproval, nil); err != nil {
		return nil, err
	}
	if req.Action != models.ApprovalApproved && req.Action != models.ApprovalRejected {
		return nil, apperrors.NewBadRequestError("action must be approved or rejected")
	}

	approval, err := s.approvalRepo.Resolve(ctx, id, models.ApprovalDecision{
		Status:      req.Action,
		ProcessedBy: caller.ID,
		Reason:      req.Reason,
	})
	if err != nil {
		return nil, internalError("resolving approval request", err)
	}

	s.logger.Info().
		Str("requestId", approval.ID).
		Str("status", string(approval.Status)).
		Str("processedBy", caller.ID).
		Msg("Approval request processed")

	body := fmt.Sprintf("Your %s request was %s", approval.Type, approval.Status)
	if approval.Reason != nil && *approval.Reason != "" {
		body += ": " + *approval.Reason
	}
	result := s.notifications.FanOut(ctx, []*models.Notification{{
		UserID: approval.UserID,
		Type:   models.NotificationTypeApproval,
		Title:  "Approval request " + string(approval.Status),
		Body:   body,
		Data: models.JSONMap{
			"requestId": approval.ID,
			"status":    string(approval.Status),
		},
	}})
	if !result.FanoutOK {
		s.logger.Warn().Str("requestId", approval.ID).Msg("Requester notification was not written")
	}

	return approval, nil
}

// ListApprovals returns the admin queue, newest first
func (s *approvalServiceImpl) ListApprovals(ctx context.Context, caller auth.Caller, query dto.ListApprovalsQuery) ([]*models.ApprovalRequest, error) {
	if err := auth.Require(caller, auth.ActionListApprovals, nil); err != nil {
		return nil, err
	}

	var status *models.ApprovalStatus
	if query.Status != "" {
		st := models.ApprovalStatus(query.Status)
		if st != models.ApprovalPending && !st.IsTerminal() {
			return nil, apperrors.NewBadRequestError("invalid status filter")
		}
		status = &st
	}

	approvals, err := s.approvalRepo.List(ctx, status, helpers.ClampLimit(query.Limit))
	if err != nil {
		return nil, internalError("listing approval requests", err)
	}
	if approvals == nil {
		approvals = []*models.ApprovalRequest{}
	}
	return approvals, nil
}
