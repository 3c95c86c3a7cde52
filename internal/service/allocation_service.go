package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"backoffice/internal/authz"
	"backoffice/internal/model"
	"backoffice/internal/notify"
	"backoffice/internal/repository"
	"backoffice/internal/scanner"
	"backoffice/internal/storage"
	"backoffice/pkg/pagination"
)

// --- Interface ---

type AllocationService interface {
	CreateAllocationRequest(ctx context.Context, actor *authz.Actor, req CreateAllocationRequestDTO) (AllocationRequestResponse, error)
	ReviewAllocationRequest(ctx context.Context, actor *authz.Actor, id string, req ReviewAllocationRequestDTO) (AllocationRequestResponse, error)
	GetAllocationRequest(ctx context.Context, actor *authz.Actor, id string) (AllocationRequestResponse, error)
	ListAllocationRequests(ctx context.Context, actor *authz.Actor, filter AllocationFilter) ([]AllocationRequestResponse, int64, error)

	BulkSubmit(ctx context.Context, actor *authz.Actor, req BulkActionDTO) (BulkResult, error)
	BulkAllocate(ctx context.Context, actor *authz.Actor, req BulkActionDTO) (BulkResult, error)
	BulkMarkDuplicate(ctx context.Context, actor *authz.Actor, req BulkActionDTO) (BulkResult, error)

	ValidateScan(actor *authz.Actor, req ScanDTO) (model.Family, []string, error)
	ScanForDuplicates(ctx context.Context, actor *authz.Actor, req ScanDTO) (scanner.Result, error)
	LoadScanCandidates(ctx context.Context, family model.Family, statuses []string) ([]scanner.Candidate, error)
	RecordScan(ctx context.Context, actorID string, family model.Family, stats scanner.Stats) error
}

// Dispatcher sends notifications without blocking the caller.
type Dispatcher interface {
	Dispatch(n notify.Notification)
}

type Options struct {
	ValidatePolicy bool
	Policy         authz.Policy
	Now            func() time.Time
	NewID          func() uuid.UUID
}

type AllocationDeps struct {
	Requests   repository.AllocationRepository
	Audit      repository.AuditRepository
	TxManager  repository.TransactionManager
	Resolver   repository.TransactionResolver
	Policies   repository.PolicyRepository
	Evidence   storage.EvidenceStore
	Dispatcher Dispatcher
	Logger     *zap.Logger
}

type allocationService struct {
	repo       repository.AllocationRepository
	audit      repository.AuditRepository
	txm        repository.TransactionManager
	resolver   repository.TransactionResolver
	policies   repository.PolicyRepository
	evidence   storage.EvidenceStore
	dispatcher Dispatcher
	log        *zap.Logger
	opts       Options
}

func NewAllocationService(deps AllocationDeps, opts Options) AllocationService {
	if opts.Policy == nil {
		opts.Policy = authz.DefaultPolicy
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &allocationService{
		repo:       deps.Requests,
		audit:      deps.Audit,
		txm:        deps.TxManager,
		resolver:   deps.Resolver,
		policies:   deps.Policies,
		evidence:   deps.Evidence,
		dispatcher: deps.Dispatcher,
		log:        deps.Logger,
		opts:       opts,
	}
}

// --- Implementation ---

func (s *allocationService) CreateAllocationRequest(ctx context.Context, actor *authz.Actor, req CreateAllocationRequestDTO) (AllocationRequestResponse, error) {
	if actor == nil || actor.ID == "" {
		return AllocationRequestResponse{}, ErrUnauthorized
	}

	family, ok := model.ParseFamily(strings.TrimSpace(req.TransactionType))
	if !ok {
		return AllocationRequestResponse{}, NewValidationError(FieldError{Field: "transaction_type", Error: "must be EFT or Easypay"})
	}
	if err := s.opts.Policy.Authorize(actor, family, authz.OpCreate); err != nil {
		return AllocationRequestResponse{}, err
	}

	req.TransactionID = strings.TrimSpace(req.TransactionID)
	req.PolicyNumber = strings.TrimSpace(req.PolicyNumber)
	req.EasypayNumber = strings.TrimSpace(req.EasypayNumber)

	var fe fieldErrors
	if req.TransactionID == "" {
		fe.add("transaction_id", "is required")
	}
	if req.PolicyNumber == "" {
		fe.add("policy_number", "is required")
	}
	if req.EasypayNumber != "" && family != model.FamilyEasypay {
		fe.add("easypay_number", "is only allowed on Easypay requests")
	}
	if err := fe.err(); err != nil {
		return AllocationRequestResponse{}, err
	}

	if _, err := s.resolver.Resolve(ctx, family.Model(), req.TransactionID); err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return AllocationRequestResponse{}, fmt.Errorf("%w: %s transaction %s", ErrNotFound, family, req.TransactionID)
		}
		return AllocationRequestResponse{}, fmt.Errorf("failed to resolve transaction: %w", err)
	}

	if s.opts.ValidatePolicy {
		exists, err := s.policies.Exists(ctx, req.PolicyNumber)
		if err != nil {
			return AllocationRequestResponse{}, fmt.Errorf("failed to look up policy: %w", err)
		}
		if !exists {
			return AllocationRequestResponse{}, fmt.Errorf("%w: policy %s", ErrNotFound, req.PolicyNumber)
		}
	}

	existing, err := s.repo.FindActiveByTransactionID(ctx, req.TransactionID)
	if err != nil {
		return AllocationRequestResponse{}, fmt.Errorf("failed to check existing requests: %w", err)
	}
	if existing != nil {
		return AllocationRequestResponse{}, fmt.Errorf("%w: transaction %s already has an active allocation request (%s)", ErrConflict, req.TransactionID, existing.ID)
	}

	now := s.opts.Now()
	alloc := model.AllocationRequest{
		ID:               s.opts.NewID(),
		TransactionID:    req.TransactionID,
		TransactionModel: family.Model(),
		Type:             string(family),
		PolicyNumber:     req.PolicyNumber,
		Notes:            compact(req.Notes),
		Status:           model.AllocationPending,
		RequestedBy:      actor.ID,
		RequestedAt:      now,
	}
	if req.EasypayNumber != "" {
		alloc.EasypayNumber = &req.EasypayNumber
	}

	urls, err := s.uploadEvidence(ctx, alloc.ID, req.Evidence)
	if err != nil {
		return AllocationRequestResponse{}, err
	}
	alloc.Evidence = urls

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, &alloc); createErr != nil {
			return translateWriteErr(createErr, alloc.TransactionID)
		}
		return s.writeAudit(txCtx, actor.ID, model.ActionCreateAllocationRequest, alloc.ID.String(), alloc.PolicyNumber, map[string]any{
			"transaction_id":   alloc.TransactionID,
			"transaction_type": alloc.Type,
			"evidence":         len(urls),
		})
	})
	if err != nil {
		s.discardEvidence(ctx, urls)
		return AllocationRequestResponse{}, err
	}

	s.log.Info("allocation request created",
		zap.String("id", alloc.ID.String()),
		zap.String("type", alloc.Type),
		zap.String("actor_id", actor.ID),
	)
	return toAllocationResponse(alloc), nil
}

// uploadEvidence stores every file or none of them.
func (s *allocationService) uploadEvidence(ctx context.Context, id uuid.UUID, files []EvidenceFile) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	if s.evidence == nil {
		return nil, errors.New("evidence storage is not configured")
	}

	folder := "allocation-requests/" + id.String()
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.evidence.Put(ctx, folder, f.Filename, f.Content)
		if err != nil {
			s.discardEvidence(ctx, urls)
			return nil, fmt.Errorf("failed to upload evidence %q: %w", f.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// discardEvidence removes uploaded files after a failed create. It survives request cancellation.
func (s *allocationService) discardEvidence(ctx context.Context, urls []string) {
	if len(urls) == 0 || s.evidence == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, url := range urls {
		if err := s.evidence.Delete(ctx, url); err != nil {
			s.log.Error("failed to remove orphaned evidence", zap.String("url", url), zap.Error(err))
		}
	}
}

func (s *allocationService) ReviewAllocationRequest(ctx context.Context, actor *authz.Actor, id string, req ReviewAllocationRequestDTO) (AllocationRequestResponse, error) {
	if actor == nil || actor.ID == "" {
		return AllocationRequestResponse{}, ErrUnauthorized
	}
	alloc, err := s.findByID(ctx, id)
	if err != nil {
		return AllocationRequestResponse{}, err
	}
	if err := s.opts.Policy.Authorize(actor, alloc.Family(), authz.OpReview); err != nil {
		return AllocationRequestResponse{}, err
	}

	now := s.opts.Now()
	actorID := actor.ID
	var action string

	// Any current status may be reviewed again; the unique index still guards reopening.
	switch req.Status {
	case model.AllocationApproved:
		alloc.ApprovedBy, alloc.ApprovedAt = &actorID, &now
		alloc.RejectedBy, alloc.RejectedAt, alloc.RejectionReason = nil, nil, ""
		alloc.CancelledBy, alloc.CancelledAt = nil, nil
		action = model.ActionApproveAllocation
	case model.AllocationRejected:
		reason := strings.TrimSpace(req.RejectionReason)
		if reason == "" {
			return AllocationRequestResponse{}, NewValidationError(FieldError{Field: "rejection_reason", Error: "is required when rejecting"})
		}
		alloc.RejectedBy, alloc.RejectedAt, alloc.RejectionReason = &actorID, &now, reason
		action = model.ActionRejectAllocation
	case model.AllocationCancelled:
		alloc.CancelledBy, alloc.CancelledAt = &actorID, &now
		action = model.ActionCancelAllocation
	default:
		return AllocationRequestResponse{}, NewValidationError(FieldError{Field: "status", Error: "must be APPROVED, REJECTED or CANCELLED"})
	}

	previous := alloc.Status
	alloc.Status = req.Status
	if note := strings.TrimSpace(req.Note); note != "" {
		alloc.Notes = append(alloc.Notes, note)
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, alloc); updateErr != nil {
			return translateWriteErr(updateErr, alloc.TransactionID)
		}
		return s.writeAudit(txCtx, actorID, action, alloc.ID.String(), alloc.PolicyNumber, map[string]any{
			"from":             previous,
			"to":               alloc.Status,
			"rejection_reason": alloc.RejectionReason,
		})
	})
	if err != nil {
		return AllocationRequestResponse{}, err
	}

	return toAllocationResponse(*alloc), nil
}

func (s *allocationService) GetAllocationRequest(ctx context.Context, actor *authz.Actor, id string) (AllocationRequestResponse, error) {
	if actor == nil || actor.ID == "" {
		return AllocationRequestResponse{}, ErrUnauthorized
	}
	alloc, err := s.findByID(ctx, id)
	if err != nil {
		return AllocationRequestResponse{}, err
	}
	if err := s.opts.Policy.Authorize(actor, alloc.Family(), authz.OpView); err != nil {
		return AllocationRequestResponse{}, err
	}
	return toAllocationResponse(*alloc), nil
}

func (s *allocationService) ListAllocationRequests(ctx context.Context, actor *authz.Actor, filter AllocationFilter) ([]AllocationRequestResponse, int64, error) {
	if actor == nil || actor.ID == "" {
		return nil, 0, ErrUnauthorized
	}

	var fe fieldErrors
	for _, st := range filter.Statuses {
		if !model.IsValidStatus(st) {
			fe.add("status", fmt.Sprintf("unknown status %q", st))
		}
	}
	var families []model.Family
	if filter.Type != "" {
		family, ok := model.ParseFamily(filter.Type)
		if !ok {
			fe.add("type", "must be EFT or Easypay")
		}
		families = []model.Family{family}
	} else {
		families = []model.Family{model.FamilyEFT, model.FamilyEasypay}
	}
	if err := fe.err(); err != nil {
		return nil, 0, err
	}

	visible, err := visibleFamilies(s.opts.Policy, actor, families)
	if err != nil {
		return nil, 0, err
	}

	repoFilter := repository.AllocationFilter{
		Statuses:      filter.Statuses,
		TransactionID: strings.TrimSpace(filter.TransactionID),
		PolicyNumber:  strings.TrimSpace(filter.PolicyNumber),
	}
	if len(visible) == 1 {
		repoFilter.Type = string(visible[0])
	}

	p := pagination.New(filter.Page, filter.Limit)
	rows, total, err := s.repo.List(ctx, repoFilter, p.Page, p.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list allocation requests: %w", err)
	}

	out := make([]AllocationRequestResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, toAllocationResponse(r))
	}
	return out, total, nil
}

// visibleFamilies narrows families to those actor may view. It fails only when none remain.
func visibleFamilies(policy authz.Policy, actor *authz.Actor, families []model.Family) ([]model.Family, error) {
	var visible []model.Family
	var lastErr error
	for _, f := range families {
		if err := policy.Authorize(actor, f, authz.OpView); err != nil {
			lastErr = err
			continue
		}
		visible = append(visible, f)
	}
	if len(visible) == 0 {
		return nil, lastErr
	}
	return visible, nil
}

func (s *allocationService) findByID(ctx context.Context, id string) (*model.AllocationRequest, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, NewValidationError(FieldError{Field: "id", Error: "must be a valid UUID"})
	}
	alloc, err := s.repo.FindByID(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: allocation request %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load allocation request: %w", err)
	}
	return alloc, nil
}

func (s *allocationService) writeAudit(ctx context.Context, actorID, action, entityID, entityName string, details map[string]any) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	entry := model.AuditLog{
		ActorID:    actorID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    raw,
	}
	if err := s.audit.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// translateWriteErr maps the partial unique index violation onto ErrConflict.
func translateWriteErr(err error, transactionID string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: transaction %s already has an active allocation request", ErrConflict, transactionID)
	}
	return fmt.Errorf("failed to save allocation request: %w", err)
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
