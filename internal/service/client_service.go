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

type ClientService struct {
	clientRepo *repository.ClientRepository
	logger     *zap.Logger
}

func NewClientService(clientRepo *repository.ClientRepository, logger *zap.Logger) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		logger:     logger,
	}
}

// List returns the clients visible to the current user. Store errors are
// logged and yield an empty list.
func (s *ClientService) List(ctx context.Context, filters repository.ClientFilters) []domain.ClientDTO {
	clients, err := s.clientRepo.List(ctx, filters)
	if err != nil {
		s.logger.Warn("failed to list clients", zap.Error(err))
		return []domain.ClientDTO{}
	}

	dtos := make([]domain.ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = mapper.ToClientDTO(&clients[i])
	}
	return dtos
}

// Snapshot returns the raw client rows for aggregation and export
func (s *ClientService) Snapshot(ctx context.Context) ([]domain.Client, error) {
	return s.clientRepo.List(ctx, repository.ClientFilters{})
}

func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", mapNotFound(err, ErrNotFound))
	}
	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

func (s *ClientService) Create(ctx context.Context, req *domain.ClientRequest) (*domain.ClientDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	client := &domain.Client{UserID: user.ID}
	if err := mapper.ApplyClientRequest(client, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("client created",
		zap.String("client_id", client.ID.String()),
		zap.String("user_id", user.ID.String()))

	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req *domain.ClientRequest) (*domain.ClientDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", mapNotFound(err, ErrNotFound))
	}

	if err := mapper.ApplyClientRequest(client, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	s.logger.Info("client updated", zap.String("client_id", client.ID.String()))

	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// Delete removes the client together with its notifications
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete client: %w", mapNotFound(err, ErrNotFound))
	}
	s.logger.Info("client deleted", zap.String("client_id", id.String()))
	return nil
}
