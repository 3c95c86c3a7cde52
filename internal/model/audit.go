package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionCreateAllocationRequest = "CREATE_ALLOCATION_REQUEST"
	ActionApproveAllocation       = "APPROVE_ALLOCATION_REQUEST"
	ActionRejectAllocation        = "REJECT_ALLOCATION_REQUEST"
	ActionCancelAllocation        = "CANCEL_ALLOCATION_REQUEST"
	ActionSubmitAllocations       = "SUBMIT_ALLOCATION_REQUESTS"
	ActionAllocateAllocations     = "ALLOCATE_ALLOCATION_REQUESTS"
	ActionMarkDuplicateAllocation = "MARK_DUPLICATE_ALLOCATION_REQUESTS"
	ActionScanAllocationRequests  = "SCAN_ALLOCATION_REQUESTS"
)

// AuditLog tracks Who, What, and When for every allocation state change
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID    string         `gorm:"type:varchar(64);index" json:"actor_id"` // empty for background jobs
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(64);index" json:"entity_id"`
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
