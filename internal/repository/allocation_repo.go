package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"backoffice/internal/model"
)

// AllocationFilter narrows listings and scan loads. Zero values are ignored.
type AllocationFilter struct {
	Statuses      []string
	Type          string
	TransactionID string
	PolicyNumber  string
}

// Transition is a guarded bulk status change: only rows of Family currently in From move to To.
type Transition struct {
	Family   model.Family
	IDs      []uuid.UUID
	From     string
	To       string
	ByColumn string
	AtColumn string
	Actor    string
	At       time.Time
}

type AllocationRepository interface {
	Create(ctx context.Context, req *model.AllocationRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AllocationRequest, error)
	FindActiveByTransactionID(ctx context.Context, transactionID string) (*model.AllocationRequest, error)
	List(ctx context.Context, filter AllocationFilter, page, limit int) ([]model.AllocationRequest, int64, error)
	FindAll(ctx context.Context, filter AllocationFilter) ([]model.AllocationRequest, error)
	Update(ctx context.Context, req *model.AllocationRequest) error
	BulkTransition(ctx context.Context, t Transition) (matched, modified int64, err error)
}

type allocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepository(db *gorm.DB) AllocationRepository {
	return &allocationRepository{db: db}
}

func (r *allocationRepository) Create(ctx context.Context, req *model.AllocationRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *allocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AllocationRequest, error) {
	var req model.AllocationRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindActiveByTransactionID returns (nil, nil) when no active request exists.
func (r *allocationRepository) FindActiveByTransactionID(ctx context.Context, transactionID string) (*model.AllocationRequest, error) {
	var req model.AllocationRequest
	err := GetDB(ctx, r.db).
		Where("transaction_id = ?", transactionID).
		Where("status NOT IN ?", model.InactiveStatuses).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func applyFilter(q *gorm.DB, f AllocationFilter) *gorm.DB {
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.TransactionID != "" {
		q = q.Where("transaction_id = ?", f.TransactionID)
	}
	if f.PolicyNumber != "" {
		q = q.Where("policy_number = ?", f.PolicyNumber)
	}
	return q
}

func (r *allocationRepository) List(ctx context.Context, filter AllocationFilter, page, limit int) ([]model.AllocationRequest, int64, error) {
	var requests []model.AllocationRequest
	var total int64

	db := GetDB(ctx, r.db)
	if err := applyFilter(db.Model(&model.AllocationRequest{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := applyFilter(db, filter).Order("requested_at DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *allocationRepository) FindAll(ctx context.Context, filter AllocationFilter) ([]model.AllocationRequest, error) {
	var requests []model.AllocationRequest
	if err := applyFilter(GetDB(ctx, r.db), filter).Order("requested_at ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *allocationRepository) Update(ctx context.Context, req *model.AllocationRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

// BulkTransition counts the ids that belong to the family, then moves only those still in t.From.
// Run it inside RunInTx so the count and the update see the same snapshot.
func (r *allocationRepository) BulkTransition(ctx context.Context, t Transition) (int64, int64, error) {
	if len(t.IDs) == 0 {
		return 0, 0, nil
	}
	db := GetDB(ctx, r.db)

	var matched int64
	if err := db.Model(&model.AllocationRequest{}).
		Where("id IN ? AND type = ?", t.IDs, string(t.Family)).
		Count(&matched).Error; err != nil {
		return 0, 0, err
	}

	res := db.Model(&model.AllocationRequest{}).
		Session(&gorm.Session{SkipHooks: true}).
		Where("id IN ? AND type = ? AND status = ?", t.IDs, string(t.Family), t.From).
		Updates(map[string]any{
			"status":   t.To,
			t.ByColumn: t.Actor,
			t.AtColumn: t.At,
		})
	if res.Error != nil {
		return 0, 0, res.Error
	}

	return matched, res.RowsAffected, nil
}
