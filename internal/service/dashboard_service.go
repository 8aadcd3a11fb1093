package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/gestionale-crm/crm-api/internal/reporting"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"go.uber.org/zap"
)

// DashboardService computes the dashboard from a fresh snapshot on every call
type DashboardService struct {
	clientRepo          *repository.ClientRepository
	dealRepo            *repository.DealRepository
	activityRepo        *repository.ActivityRepository
	notificationService *NotificationService
	aggregator          *reporting.Aggregator
	clock               *Clock
	logger              *zap.Logger
}

func NewDashboardService(
	clientRepo *repository.ClientRepository,
	dealRepo *repository.DealRepository,
	activityRepo *repository.ActivityRepository,
	notificationService *NotificationService,
	clock *Clock,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		clientRepo:          clientRepo,
		dealRepo:            dealRepo,
		activityRepo:        activityRepo,
		notificationService: notificationService,
		aggregator:          reporting.NewAggregator(clock.Location()),
		clock:               clock,
		logger:              logger,
	}
}

// GetStats returns the dashboard statistics. A failed fetch yields the
// all-zero statistics rather than partial numbers.
func (s *DashboardService) GetStats(ctx context.Context) domain.DashboardStats {
	now := s.clock.Now()

	stats, err := s.compute(ctx, now)
	if err != nil {
		s.logger.Warn("failed to compute dashboard stats", zap.Error(err))
		return s.aggregator.DashboardStats(nil, nil, nil, domain.NotificationCounts{}, now)
	}
	return stats
}

func (s *DashboardService) compute(ctx context.Context, now time.Time) (domain.DashboardStats, error) {
	clients, err := s.clientRepo.List(ctx, repository.ClientFilters{})
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("failed to load clients: %w", err)
	}

	deals, err := s.dealRepo.List(ctx, nil)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("failed to load deals: %w", err)
	}

	weekStart := period.WeekStart(now.In(s.clock.Location()))
	activities, _, err := s.activityRepo.List(ctx, &repository.ActivityFilters{From: &weekStart}, 1, 0)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("failed to load activities: %w", err)
	}

	counts := s.notificationService.GetCounts(ctx)

	return s.aggregator.DashboardStats(clients, deals, activities, counts, now), nil
}
