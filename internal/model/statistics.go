package model

import (
	"time"
)

// StatusCount is one row of the requests-per-status aggregate.
type StatusCount struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// RequesterRanking ranks the users raising the most allocation requests.
type RequesterRanking struct {
	RequestedBy string `json:"requested_by"`
	Total       int64  `json:"total"`
	Allocated   int64  `json:"allocated"`
}

// FamilyStatistics breaks down one transaction family by status.
type FamilyStatistics struct {
	Type     string           `json:"type"`
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// StatisticsResponse aggregates allocation request volumes for the dashboard
type StatisticsResponse struct {
	Total              int64              `json:"total"`
	Open               int64              `json:"open"` // PENDING, APPROVED or SUBMITTED
	Families           []FamilyStatistics `json:"families"`
	TopRequesters      []RequesterRanking `json:"top_requesters"`
	TimeRangeStartDate time.Time          `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time          `json:"time_range_end_date"`
}
