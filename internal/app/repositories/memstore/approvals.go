package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// ApprovalRepository is the in-memory approval request collection
type ApprovalRepository struct{ s *Store }

func copyApproval(a *models.ApprovalRequest) *models.ApprovalRequest {
	c := *a
	c.Data = cloneMap(a.Data)
	c.ProcessedBy = cloneString(a.ProcessedBy)
	c.ProcessedAt = cloneTime(a.ProcessedAt)
	c.Reason = cloneString(a.Reason)
	return &c
}

func (r *ApprovalRepository) Create(_ context.Context, req *models.ApprovalRequest) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.approvals[req.ID]; ok {
		return apperrors.ErrResourceAlreadyExists
	}
	now := s.now()
	req.Status = models.ApprovalPending
	req.CreatedAt, req.UpdatedAt = now, now
	if req.Data == nil {
		req.Data = models.JSONMap{}
	}
	s.approvals[req.ID] = copyApproval(req)
	s.track(req.ID)
	return nil
}

func (r *ApprovalRepository) GetByID(_ context.Context, id string) (*models.ApprovalRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.approvals[id]
	if !ok {
		return nil, apperrors.ErrApprovalNotFound
	}
	return copyApproval(a), nil
}

func (r *ApprovalRepository) Resolve(_ context.Context, id string, decision models.ApprovalDecision) (*models.ApprovalRequest, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.approvals[id]
	if !ok {
		return nil, apperrors.ErrApprovalNotFound
	}
	if a.Status != models.ApprovalPending {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("approval request already %s", a.Status))
	}

	now := s.now()
	processedBy := decision.ProcessedBy
	a.Status = decision.Status
	a.ProcessedBy = &processedBy
	a.ProcessedAt = &now
	a.Reason = cloneString(decision.Reason)
	a.UpdatedAt = now
	return copyApproval(a), nil
}

func (r *ApprovalRepository) List(_ context.Context, status *models.ApprovalStatus, limit int) ([]*models.ApprovalRequest, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ApprovalRequest
	for _, a := range s.approvals {
		if status != nil && a.Status != *status {
			continue
		}
		out = append(out, copyApproval(a))
	}
	sortByCreated(s, out,
		func(a *models.ApprovalRequest) string { return a.ID },
		func(a *models.ApprovalRequest) time.Time { return a.CreatedAt }, true)
	return limitSlice(out, limit), nil
}
