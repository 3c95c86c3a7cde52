package service

import (
	"io"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/scanner"
)

// --- DTOs ---

// EvidenceFile is one uploaded proof-of-payment document.
type EvidenceFile struct {
	Filename string
	Content  io.Reader
}

type CreateAllocationRequestDTO struct {
	TransactionID   string         `form:"transaction_id" json:"transaction_id" binding:"required"`
	TransactionType string         `form:"transaction_type" json:"transaction_type" binding:"required,txtype"`
	PolicyNumber    string         `form:"policy_number" json:"policy_number" binding:"required"`
	EasypayNumber   string         `form:"easypay_number" json:"easypay_number"`
	Notes           []string       `form:"notes" json:"notes"`
	Evidence        []EvidenceFile `form:"-" json:"-"`
}

type ReviewAllocationRequestDTO struct {
	Status          string `json:"status" binding:"required,oneof=APPROVED REJECTED CANCELLED"`
	RejectionReason string `json:"rejection_reason"`
	Note            string `json:"note"`
}

type BulkActionDTO struct {
	Type string   `json:"type" binding:"required,txtype"`
	IDs  []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// BulkResult reports ids found for the family versus ids actually moved.
// A gap means some requests were not in the source state.
type BulkResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

type AllocationFilter struct {
	Statuses      []string
	Type          string
	TransactionID string
	PolicyNumber  string
	Page          int
	Limit         int
}

type ScanDTO struct {
	Type     string            `json:"type" binding:"required,txtype"`
	Statuses []string          `json:"statuses"`
	Receipts []scanner.Receipt `json:"-"`
}

// DefaultScanStatuses are scanned when the caller does not pick statuses.
var DefaultScanStatuses = []string{model.AllocationApproved, model.AllocationSubmitted}

type AllocationRequestResponse struct {
	ID                  string   `json:"id"`
	TransactionID       string   `json:"transaction_id"`
	TransactionModel    string   `json:"transaction_model"`
	Type                string   `json:"type"`
	PolicyNumber        string   `json:"policy_number"`
	EasypayNumber       *string  `json:"easypay_number,omitempty"`
	Notes               []string `json:"notes"`
	Evidence            []string `json:"evidence"`
	Status              string   `json:"status"`
	RequestedBy         string   `json:"requested_by"`
	RequestedAt         string   `json:"requested_at"`
	ApprovedBy          *string  `json:"approved_by"`
	ApprovedAt          *string  `json:"approved_at"`
	RejectedBy          *string  `json:"rejected_by"`
	RejectedAt          *string  `json:"rejected_at"`
	RejectionReason     string   `json:"rejection_reason,omitempty"`
	CancelledBy         *string  `json:"cancelled_by"`
	CancelledAt         *string  `json:"cancelled_at"`
	SubmittedBy         *string  `json:"submitted_by"`
	SubmittedAt         *string  `json:"submitted_at"`
	AllocatedBy         *string  `json:"allocated_by"`
	AllocatedAt         *string  `json:"allocated_at"`
	MarkedAsDuplicateBy *string  `json:"marked_as_duplicate_by"`
	MarkedAsDuplicateAt *string  `json:"marked_as_duplicate_at"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toAllocationResponse(a model.AllocationRequest) AllocationRequestResponse {
	return AllocationRequestResponse{
		ID:                  a.ID.String(),
		TransactionID:       a.TransactionID,
		TransactionModel:    a.TransactionModel,
		Type:                a.Type,
		PolicyNumber:        a.PolicyNumber,
		EasypayNumber:       a.EasypayNumber,
		Notes:               nonNil(a.Notes),
		Evidence:            nonNil(a.Evidence),
		Status:              a.Status,
		RequestedBy:         a.RequestedBy,
		RequestedAt:         *formatTime(&a.RequestedAt),
		ApprovedBy:          a.ApprovedBy,
		ApprovedAt:          formatTime(a.ApprovedAt),
		RejectedBy:          a.RejectedBy,
		RejectedAt:          formatTime(a.RejectedAt),
		RejectionReason:     a.RejectionReason,
		CancelledBy:         a.CancelledBy,
		CancelledAt:         formatTime(a.CancelledAt),
		SubmittedBy:         a.SubmittedBy,
		SubmittedAt:         formatTime(a.SubmittedAt),
		AllocatedBy:         a.AllocatedBy,
		AllocatedAt:         formatTime(a.AllocatedAt),
		MarkedAsDuplicateBy: a.MarkedAsDuplicateBy,
		MarkedAsDuplicateAt: formatTime(a.MarkedAsDuplicateAt),
		CreatedAt:           a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:           a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
