package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"backoffice/internal/authz"
	"backoffice/internal/model"
	"backoffice/internal/notify"
	"backoffice/internal/repository"
	"backoffice/internal/scanner"
)

type bulkStep struct {
	op       authz.Operation
	from, to string
	byColumn string
	atColumn string
	action   string
	event    string
	title    string
	verb     string
}

var (
	submitStep = bulkStep{
		op: authz.OpSubmit, from: model.AllocationApproved, to: model.AllocationSubmitted,
		byColumn: "submitted_by", atColumn: "submitted_at",
		action: model.ActionSubmitAllocations, event: "allocation.submitted",
		title: "Allocation requests submitted", verb: "submitted for allocation",
	}
	allocateStep = bulkStep{
		op: authz.OpAllocate, from: model.AllocationSubmitted, to: model.AllocationAllocated,
		byColumn: "allocated_by", atColumn: "allocated_at",
		action: model.ActionAllocateAllocations, event: "allocation.allocated",
		title: "Allocation requests allocated", verb: "allocated",
	}
	duplicateStep = bulkStep{
		op: authz.OpAllocate, from: model.AllocationSubmitted, to: model.AllocationDuplicate,
		byColumn: "marked_as_duplicate_by", atColumn: "marked_as_duplicate_at",
		action: model.ActionMarkDuplicateAllocation, event: "allocation.duplicate",
		title: "Allocation requests marked as duplicate", verb: "marked as duplicate",
	}
)

func (s *allocationService) BulkSubmit(ctx context.Context, actor *authz.Actor, req BulkActionDTO) (BulkResult, error) {
	return s.bulkTransition(ctx, actor, req, submitStep)
}

func (s *allocationService) BulkAllocate(ctx context.Context, actor *authz.Actor, req BulkActionDTO) (BulkResult, error) {
	return s.bulkTransition(ctx, actor, req, allocateStep)
}

func (s *allocationService) BulkMarkDuplicate(ctx context.Context, actor *authz.Actor, req BulkActionDTO) (BulkResult, error) {
	return s.bulkTransition(ctx, actor, req, duplicateStep)
}

func (s *allocationService) bulkTransition(ctx context.Context, actor *authz.Actor, req BulkActionDTO, step bulkStep) (BulkResult, error) {
	if actor == nil || actor.ID == "" {
		return BulkResult{}, ErrUnauthorized
	}
	family, ok := model.ParseFamily(strings.TrimSpace(req.Type))
	if !ok {
		return BulkResult{}, NewValidationError(FieldError{Field: "type", Error: "must be EFT or Easypay"})
	}
	if err := s.opts.Policy.Authorize(actor, family, step.op); err != nil {
		return BulkResult{}, err
	}
	ids, err := parseIDs(req.IDs)
	if err != nil {
		return BulkResult{}, err
	}

	var res BulkResult
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		matched, modified, txErr := s.repo.BulkTransition(txCtx, repository.Transition{
			Family:   family,
			IDs:      ids,
			From:     step.from,
			To:       step.to,
			ByColumn: step.byColumn,
			AtColumn: step.atColumn,
			Actor:    actor.ID,
			At:       s.opts.Now(),
		})
		if txErr != nil {
			return fmt.Errorf("failed to update allocation requests: %w", txErr)
		}
		res = BulkResult{Matched: matched, Modified: modified}

		return s.writeAudit(txCtx, actor.ID, step.action, "", string(family), map[string]any{
			"ids":      req.IDs,
			"from":     step.from,
			"to":       step.to,
			"matched":  matched,
			"modified": modified,
		})
	})
	if err != nil {
		return BulkResult{}, err
	}

	s.log.Info("bulk allocation transition",
		zap.String("to", step.to),
		zap.String("type", string(family)),
		zap.String("actor_id", actor.ID),
		zap.Int64("matched", res.Matched),
		zap.Int64("modified", res.Modified),
	)
	s.notifyBulk(family, step, res)
	return res, nil
}

// notifyBulk runs after commit; delivery problems never reach the caller.
func (s *allocationService) notifyBulk(family model.Family, step bulkStep, res BulkResult) {
	if s.dispatcher == nil {
		return
	}
	severity := notify.SeveritySuccess
	msg := fmt.Sprintf("%d %s request(s) %s", res.Modified, family, step.verb)
	if res.Modified < res.Matched {
		severity = notify.SeverityWarning
		msg += fmt.Sprintf(", %d skipped (not %s)", res.Matched-res.Modified, step.from)
	}
	s.dispatcher.Dispatch(notify.Notification{
		Event:    step.event,
		Title:    step.title,
		Message:  msg,
		Severity: severity,
		Type:     string(family),
		Count:    res.Modified,
		At:       s.opts.Now(),
	})
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, NewValidationError(FieldError{Field: "ids", Error: "at least one id is required"})
	}
	seen := make(map[uuid.UUID]struct{}, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	var fe fieldErrors
	for i, r := range raw {
		id, err := uuid.Parse(strings.TrimSpace(r))
		if err != nil {
			fe.add(fmt.Sprintf("ids[%d]", i), "must be a valid UUID")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := fe.err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// --- Duplicate scan ---

// ValidateScan checks the caller may scan req.Type and resolves the statuses to scan.
func (s *allocationService) ValidateScan(actor *authz.Actor, req ScanDTO) (model.Family, []string, error) {
	if actor == nil || actor.ID == "" {
		return "", nil, ErrUnauthorized
	}
	family, ok := model.ParseFamily(strings.TrimSpace(req.Type))
	if !ok {
		return "", nil, NewValidationError(FieldError{Field: "type", Error: "must be EFT or Easypay"})
	}
	if err := s.opts.Policy.Authorize(actor, family, authz.OpScan); err != nil {
		return "", nil, err
	}
	statuses, err := ScanStatuses(req.Statuses)
	if err != nil {
		return "", nil, err
	}
	return family, statuses, nil
}

func (s *allocationService) ScanForDuplicates(ctx context.Context, actor *authz.Actor, req ScanDTO) (scanner.Result, error) {
	family, statuses, err := s.ValidateScan(actor, req)
	if err != nil {
		return scanner.Result{}, err
	}

	candidates, err := s.LoadScanCandidates(ctx, family, statuses)
	if err != nil {
		return scanner.Result{}, err
	}
	result := scanner.Scan(candidates, req.Receipts)

	if err := s.RecordScan(ctx, actor.ID, family, result.Stats); err != nil {
		s.log.Warn("failed to record scan", zap.Error(err))
	}
	return result, nil
}

// ScanStatuses validates requested statuses, falling back to DefaultScanStatuses.
func ScanStatuses(in []string) ([]string, error) {
	if len(in) == 0 {
		return DefaultScanStatuses, nil
	}
	var fe fieldErrors
	for _, st := range in {
		if !model.IsValidStatus(st) {
			fe.add("statuses", fmt.Sprintf("unknown status %q", st))
		}
	}
	if err := fe.err(); err != nil {
		return nil, err
	}
	return in, nil
}

// LoadScanCandidates joins requests of family in statuses with their upstream transactions.
// Requests whose transaction is missing come back without a transaction date.
func (s *allocationService) LoadScanCandidates(ctx context.Context, family model.Family, statuses []string) ([]scanner.Candidate, error) {
	rows, err := s.repo.FindAll(ctx, repository.AllocationFilter{Statuses: statuses, Type: string(family)})
	if err != nil {
		return nil, fmt.Errorf("failed to load allocation requests: %w", err)
	}

	refs := make([]repository.TransactionRef, 0, len(rows))
	for _, r := range rows {
		refs = append(refs, repository.TransactionRef{Model: r.TransactionModel, ID: r.TransactionID})
	}
	txs, err := s.resolver.ResolveMany(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve transactions: %w", err)
	}

	out := make([]scanner.Candidate, 0, len(rows))
	for i := range rows {
		out = append(out, scanner.NewCandidate(&rows[i], txs[rows[i].TransactionID]))
	}
	return out, nil
}

func (s *allocationService) RecordScan(ctx context.Context, actorID string, family model.Family, stats scanner.Stats) error {
	return s.writeAudit(ctx, actorID, model.ActionScanAllocationRequests, "", string(family), map[string]any{
		"total_requests": stats.TotalRequests,
		"total_receipts": stats.TotalReceipts,
		"failed":         stats.Failed,
		"duplicates":     stats.Duplicates,
		"importable":     stats.Importable,
	})
}
