package service

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/authz"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/pkg/pagination"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, actor *authz.Actor, page, limit int) ([]AuditLogResponse, int64, error)
	GetRequestHistory(ctx context.Context, actor *authz.Actor, requestID string) ([]AuditLogResponse, error)
}

type auditService struct {
	audit    repository.AuditRepository
	requests repository.AllocationRepository
	policy   authz.Policy
}

// NewAuditService creates a new AuditService instance
func NewAuditService(audit repository.AuditRepository, requests repository.AllocationRepository) AuditService {
	return &auditService{audit: audit, requests: requests, policy: authz.DefaultPolicy}
}

// GetAuditLogs lists every workflow audit entry, newest first. Admin only.
func (s *auditService) GetAuditLogs(ctx context.Context, actor *authz.Actor, page, limit int) ([]AuditLogResponse, int64, error) {
	if actor == nil || actor.ID == "" {
		return nil, 0, ErrUnauthorized
	}
	if !actor.HasAnyRole(authz.RoleAdmin) {
		return nil, 0, fmt.Errorf("%w: audit logs are restricted to admins", ErrForbidden)
	}

	p := pagination.New(page, limit)
	logs, total, err := s.audit.List(ctx, p.Page, p.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return toAuditResponses(logs), total, nil
}

// GetRequestHistory returns the audit trail of one allocation request, oldest first.
func (s *auditService) GetRequestHistory(ctx context.Context, actor *authz.Actor, requestID string) ([]AuditLogResponse, error) {
	if actor == nil || actor.ID == "" {
		return nil, ErrUnauthorized
	}
	svc := &allocationService{repo: s.requests}
	alloc, err := svc.findByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(actor, alloc.Family(), authz.OpView); err != nil {
		return nil, err
	}

	logs, err := s.audit.ListByEntity(ctx, alloc.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return toAuditResponses(logs), nil
}

func toAuditResponses(logs []model.AuditLog) []AuditLogResponse {
	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			ActorID:    l.ActorID,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    string(l.Details),
			CreatedAt:  l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return res
}
