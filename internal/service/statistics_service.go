package service

import (
	"context"
	"time"

	"backoffice/internal/authz"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

const topRequestersLimit = 5

type StatisticsService interface {
	GetStatistics(ctx context.Context, actor *authz.Actor, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	repo   repository.StatisticsRepository
	policy authz.Policy
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo, policy: authz.DefaultPolicy}
}

// GetStatistics aggregates requests raised between startDate and endDate for the families the actor may view.
func (s *statisticsService) GetStatistics(ctx context.Context, actor *authz.Actor, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	if actor == nil || actor.ID == "" {
		return model.StatisticsResponse{}, ErrUnauthorized
	}
	if endDate.Before(startDate) {
		return model.StatisticsResponse{}, NewValidationError(FieldError{Field: "end_date", Error: "must not be before start_date"})
	}

	families, err := visibleFamilies(s.policy, actor, []model.Family{model.FamilyEFT, model.FamilyEasypay})
	if err != nil {
		return model.StatisticsResponse{}, err
	}
	types := make([]string, 0, len(families))
	for _, f := range families {
		types = append(types, string(f))
	}

	counts, err := s.repo.CountByStatus(ctx, types, startDate, endDate)
	if err != nil {
		return model.StatisticsResponse{}, err
	}
	top, err := s.repo.TopRequesters(ctx, types, startDate, endDate, topRequestersLimit)
	if err != nil {
		return model.StatisticsResponse{}, err
	}

	response := model.StatisticsResponse{
		TopRequesters:      top,
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}
	byType := make(map[string]*model.FamilyStatistics, len(types))
	for _, t := range types {
		response.Families = append(response.Families, model.FamilyStatistics{Type: t, ByStatus: map[string]int64{}})
	}
	for i := range response.Families {
		byType[response.Families[i].Type] = &response.Families[i]
	}

	for _, c := range counts {
		fs, ok := byType[c.Type]
		if !ok {
			continue
		}
		fs.ByStatus[c.Status] += c.Count
		fs.Total += c.Count
		response.Total += c.Count
		switch c.Status {
		case model.AllocationPending, model.AllocationApproved, model.AllocationSubmitted:
			response.Open += c.Count
		}
	}
	if response.TopRequesters == nil {
		response.TopRequesters = []model.RequesterRanking{}
	}

	return response, nil
}
