package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// AllocationStatus enum constants
const (
	AllocationPending   = "PENDING"
	AllocationApproved  = "APPROVED"
	AllocationRejected  = "REJECTED"
	AllocationCancelled = "CANCELLED"
	AllocationSubmitted = "SUBMITTED"
	AllocationAllocated = "ALLOCATED"
	AllocationDuplicate = "DUPLICATE"
)

// AllStatuses lists every allocation status in lifecycle order.
var AllStatuses = []string{
	AllocationPending,
	AllocationApproved,
	AllocationRejected,
	AllocationCancelled,
	AllocationSubmitted,
	AllocationAllocated,
	AllocationDuplicate,
}

// InactiveStatuses are the statuses that free a transaction for a new request.
var InactiveStatuses = []string{AllocationRejected, AllocationCancelled}

// IsActiveStatus reports whether a request in this status blocks new requests for its transaction.
func IsActiveStatus(status string) bool {
	for _, s := range InactiveStatuses {
		if s == status {
			return false
		}
	}
	return true
}

// IsValidStatus reports whether status is a known allocation status.
func IsValidStatus(status string) bool {
	for _, s := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

var errTypeMismatch = errors.New("transaction_model and type disagree")

// AllocationRequest links one EFT or EasyPay transaction to one policy.
// Rows are never deleted; REJECTED, CANCELLED, ALLOCATED and DUPLICATE are the resting states.
type AllocationRequest struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID    string         `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_allocation_active_tx,where:status <> 'REJECTED' AND status <> 'CANCELLED'" json:"transaction_id"`
	TransactionModel string         `gorm:"type:varchar(30);not null" json:"transaction_model"` // EftTransaction, EasypayTransaction
	Type             string         `gorm:"type:varchar(10);not null;index" json:"type"`         // EFT, Easypay
	PolicyNumber     string         `gorm:"type:varchar(50);not null;index" json:"policy_number"`
	EasypayNumber    *string        `gorm:"type:varchar(50)" json:"easypay_number,omitempty"`
	Notes            pq.StringArray `gorm:"type:text[]" json:"notes"`
	Evidence         pq.StringArray `gorm:"type:text[]" json:"evidence"`
	Status           string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	RequestedBy string    `gorm:"type:varchar(64);not null" json:"requested_by"`
	RequestedAt time.Time `gorm:"not null" json:"requested_at"`

	ApprovedBy *string    `gorm:"type:varchar(64)" json:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at"`

	RejectedBy      *string    `gorm:"type:varchar(64)" json:"rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`

	CancelledBy *string    `gorm:"type:varchar(64)" json:"cancelled_by"`
	CancelledAt *time.Time `json:"cancelled_at"`

	SubmittedBy *string    `gorm:"type:varchar(64)" json:"submitted_by"`
	SubmittedAt *time.Time `json:"submitted_at"`

	AllocatedBy *string    `gorm:"type:varchar(64)" json:"allocated_by"`
	AllocatedAt *time.Time `json:"allocated_at"`

	MarkedAsDuplicateBy *string    `gorm:"type:varchar(64)" json:"marked_as_duplicate_by"`
	MarkedAsDuplicateAt *time.Time `json:"marked_as_duplicate_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Family returns the transaction family the request belongs to.
func (a *AllocationRequest) Family() Family {
	return Family(a.Type)
}

// Validate checks the cross-field rules every persisted request must satisfy.
func (a *AllocationRequest) Validate() error {
	family, ok := FamilyForModel(a.TransactionModel)
	if !ok {
		return fmt.Errorf("unknown transaction_model %q", a.TransactionModel)
	}
	if string(family) != a.Type {
		return fmt.Errorf("%w: %s vs %s", errTypeMismatch, a.TransactionModel, a.Type)
	}
	if strings.TrimSpace(a.TransactionID) == "" {
		return errors.New("transaction_id is required")
	}
	if strings.TrimSpace(a.PolicyNumber) == "" {
		return errors.New("policy_number is required")
	}
	if a.EasypayNumber != nil && family != FamilyEasypay {
		return errors.New("easypay_number is only allowed on Easypay requests")
	}
	if a.Status == AllocationRejected && strings.TrimSpace(a.RejectionReason) == "" {
		return errors.New("rejection_reason is required when status is REJECTED")
	}
	if !IsValidStatus(a.Status) {
		return fmt.Errorf("unknown status %q", a.Status)
	}
	return nil
}

// BeforeSave runs the cross-field validation on every Create/Save.
func (a *AllocationRequest) BeforeSave(_ *gorm.DB) error {
	return a.Validate()
}
