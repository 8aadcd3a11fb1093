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

type CollaboratorService struct {
	collaboratorRepo *repository.CollaboratorRepository
	logger           *zap.Logger
}

func NewCollaboratorService(collaboratorRepo *repository.CollaboratorRepository, logger *zap.Logger) *CollaboratorService {
	return &CollaboratorService{
		collaboratorRepo: collaboratorRepo,
		logger:           logger,
	}
}

// List returns collaborators by surname, optionally filtered by name or e-mail
func (s *CollaboratorService) List(ctx context.Context, search string) []domain.CollaboratorDTO {
	collaborators, err := s.collaboratorRepo.List(ctx, search)
	if err != nil {
		s.logger.Warn("failed to list collaborators", zap.Error(err))
		return []domain.CollaboratorDTO{}
	}

	dtos := make([]domain.CollaboratorDTO, len(collaborators))
	for i := range collaborators {
		dtos[i] = mapper.ToCollaboratorDTO(&collaborators[i])
	}
	return dtos
}

func (s *CollaboratorService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CollaboratorDTO, error) {
	collaborator, err := s.collaboratorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get collaborator: %w", mapNotFound(err, ErrNotFound))
	}
	dto := mapper.ToCollaboratorDTO(collaborator)
	return &dto, nil
}

func (s *CollaboratorService) Create(ctx context.Context, req *domain.CollaboratorRequest) (*domain.CollaboratorDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	collaborator := &domain.Collaborator{UserID: user.ID}
	mapper.ApplyCollaboratorRequest(collaborator, req)

	if err := s.collaboratorRepo.Create(ctx, collaborator); err != nil {
		return nil, fmt.Errorf("failed to create collaborator: %w", err)
	}

	s.logger.Info("collaborator created", zap.String("collaborator_id", collaborator.ID.String()))

	dto := mapper.ToCollaboratorDTO(collaborator)
	return &dto, nil
}

func (s *CollaboratorService) Update(ctx context.Context, id uuid.UUID, req *domain.CollaboratorRequest) (*domain.CollaboratorDTO, error) {
	collaborator, err := s.collaboratorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get collaborator: %w", mapNotFound(err, ErrNotFound))
	}

	mapper.ApplyCollaboratorRequest(collaborator, req)

	if err := s.collaboratorRepo.Update(ctx, collaborator); err != nil {
		return nil, fmt.Errorf("failed to update collaborator: %w", err)
	}

	dto := mapper.ToCollaboratorDTO(collaborator)
	return &dto, nil
}

// UpdateTokens sets the gettoni still available to the collaborator
func (s *CollaboratorService) UpdateTokens(ctx context.Context, id uuid.UUID, tokens int) (*domain.CollaboratorDTO, error) {
	if tokens < 0 {
		return nil, fmt.Errorf("%w: gettoni_disponibili must not be negative", ErrInvalidInput)
	}
	if err := s.collaboratorRepo.UpdateTokens(ctx, id, tokens); err != nil {
		return nil, fmt.Errorf("failed to update collaborator tokens: %w", mapNotFound(err, ErrNotFound))
	}

	s.logger.Info("collaborator tokens updated",
		zap.String("collaborator_id", id.String()),
		zap.Int("tokens", tokens))

	return s.GetByID(ctx, id)
}

// Delete removes the collaborator and its project assignments
func (s *CollaboratorService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.collaboratorRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete collaborator: %w", mapNotFound(err, ErrNotFound))
	}
	s.logger.Info("collaborator deleted", zap.String("collaborator_id", id.String()))
	return nil
}
