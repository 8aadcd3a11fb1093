package service

import (
	"context"
	"fmt"

	"github.com/gestionale-crm/crm-api/internal/auth"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/mapper"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityService manages the personal activity log of the current user
type ActivityService struct {
	activityRepo *repository.ActivityRepository
	logger       *zap.Logger
}

func NewActivityService(activityRepo *repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// List returns one page of activities; pageSize 0 returns all of them.
// Store errors are logged and yield an empty page.
func (s *ActivityService) List(ctx context.Context, filters *repository.ActivityFilters, page, pageSize int) *domain.PaginatedResponse {
	if page < 1 {
		page = 1
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}

	activities, total, err := s.activityRepo.List(ctx, filters, page, pageSize)
	if err != nil {
		s.logger.Warn("failed to list activities", zap.Error(err))
		activities, total = nil, 0
	}

	dtos := make([]domain.ActivityDTO, len(activities))
	for i := range activities {
		dtos[i] = mapper.ToActivityDTO(&activities[i])
	}

	totalPages := 1
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// Snapshot returns all activities of the current user
func (s *ActivityService) Snapshot(ctx context.Context) ([]domain.Activity, error) {
	activities, _, err := s.activityRepo.List(ctx, nil, 1, 0)
	return activities, err
}

func (s *ActivityService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ActivityDTO, error) {
	activity, err := s.activityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", mapNotFound(err, ErrNotFound))
	}
	dto := mapper.ToActivityDTO(activity)
	return &dto, nil
}

func (s *ActivityService) Create(ctx context.Context, req *domain.ActivityRequest) (*domain.ActivityDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	activity := &domain.Activity{UserID: user.ID}
	mapper.ApplyActivityRequest(activity, req)

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	s.logger.Info("activity logged",
		zap.String("activity_id", activity.ID.String()),
		zap.String("type", string(activity.Type)))

	dto := mapper.ToActivityDTO(activity)
	return &dto, nil
}

func (s *ActivityService) Update(ctx context.Context, id uuid.UUID, req *domain.ActivityRequest) (*domain.ActivityDTO, error) {
	activity, err := s.activityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", mapNotFound(err, ErrNotFound))
	}

	mapper.ApplyActivityRequest(activity, req)
	activity.Client = nil
	activity.Deal = nil

	if err := s.activityRepo.Update(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", mapNotFound(err, ErrNotFound))
	}

	dto := mapper.ToActivityDTO(activity)
	return &dto, nil
}

func (s *ActivityService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.activityRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete activity: %w", mapNotFound(err, ErrNotFound))
	}
	return nil
}
