package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"backoffice/internal/model"
)

type StatisticsRepository interface {
	CountByStatus(ctx context.Context, types []string, start, end time.Time) ([]model.StatusCount, error)
	TopRequesters(ctx context.Context, types []string, start, end time.Time, limit int) ([]model.RequesterRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountByStatus(ctx context.Context, types []string, start, end time.Time) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	if err := r.db.WithContext(ctx).Model(&model.AllocationRequest{}).
		Select("type, status, COUNT(*) as count").
		Where("type IN ? AND requested_at >= ? AND requested_at <= ?", types, start, end).
		Group("type, status").
		Order("type, status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count allocation requests: %w", err)
	}
	return counts, nil
}

func (r *statisticsRepository) TopRequesters(ctx context.Context, types []string, start, end time.Time, limit int) ([]model.RequesterRanking, error) {
	var rankings []model.RequesterRanking
	if err := r.db.WithContext(ctx).Model(&model.AllocationRequest{}).
		Select("requested_by, COUNT(*) as total, COUNT(*) FILTER (WHERE status = ?) as allocated", model.AllocationAllocated).
		Where("type IN ? AND requested_at >= ? AND requested_at <= ?", types, start, end).
		Group("requested_by").
		Order("total DESC, requested_by").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top requesters: %w", err)
	}
	return rankings, nil
}
