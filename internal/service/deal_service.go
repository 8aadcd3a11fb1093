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

type DealService struct {
	dealRepo   *repository.DealRepository
	clientRepo *repository.ClientRepository
	logger     *zap.Logger
}

func NewDealService(
	dealRepo *repository.DealRepository,
	clientRepo *repository.ClientRepository,
	logger *zap.Logger,
) *DealService {
	return &DealService{
		dealRepo:   dealRepo,
		clientRepo: clientRepo,
		logger:     logger,
	}
}

// List returns deals with their client, newest first. Store errors are
// logged and yield an empty list.
func (s *DealService) List(ctx context.Context, filters *repository.DealFilters) []domain.DealDTO {
	deals, err := s.dealRepo.List(ctx, filters)
	if err != nil {
		s.logger.Warn("failed to list deals", zap.Error(err))
		return []domain.DealDTO{}
	}

	dtos := make([]domain.DealDTO, len(deals))
	for i := range deals {
		dtos[i] = mapper.ToDealDTO(&deals[i])
	}
	return dtos
}

// Snapshot returns the raw deal rows, with clients preloaded
func (s *DealService) Snapshot(ctx context.Context) ([]domain.Deal, error) {
	return s.dealRepo.List(ctx, nil)
}

func (s *DealService) GetByID(ctx context.Context, id uuid.UUID) (*domain.DealDTO, error) {
	deal, err := s.dealRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", mapNotFound(err, ErrNotFound))
	}
	dto := mapper.ToDealDTO(deal)
	return &dto, nil
}

func (s *DealService) Create(ctx context.Context, req *domain.DealRequest) (*domain.DealDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", mapNotFound(err, ErrInvalidInput))
	}

	deal := &domain.Deal{UserID: user.ID}
	if err := mapper.ApplyDealRequest(deal, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.dealRepo.Create(ctx, deal); err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}
	deal.Client = client

	s.logger.Info("deal created",
		zap.String("deal_id", deal.ID.String()),
		zap.String("client_id", client.ID.String()))

	dto := mapper.ToDealDTO(deal)
	return &dto, nil
}

func (s *DealService) Update(ctx context.Context, id uuid.UUID, req *domain.DealRequest) (*domain.DealDTO, error) {
	deal, err := s.dealRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", mapNotFound(err, ErrNotFound))
	}

	if req.ClientID != deal.ClientID {
		client, err := s.clientRepo.GetByID(ctx, req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to get client: %w", mapNotFound(err, ErrInvalidInput))
		}
		deal.Client = client
	}

	if err := mapper.ApplyDealRequest(deal, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.dealRepo.Update(ctx, deal); err != nil {
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}

	s.logger.Info("deal updated",
		zap.String("deal_id", deal.ID.String()),
		zap.String("status", string(deal.Status)))

	dto := mapper.ToDealDTO(deal)
	return &dto, nil
}

func (s *DealService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.dealRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete deal: %w", mapNotFound(err, ErrNotFound))
	}
	s.logger.Info("deal deleted", zap.String("deal_id", id.String()))
	return nil
}
