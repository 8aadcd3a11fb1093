package service

import (
	"context"
	"fmt"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/mapper"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssignmentService manages collaborators on projects and their gettoni budget
type AssignmentService struct {
	assignmentRepo   *repository.AssignmentRepository
	projectRepo      *repository.ProjectRepository
	collaboratorRepo *repository.CollaboratorRepository
	logger           *zap.Logger
}

func NewAssignmentService(
	assignmentRepo *repository.AssignmentRepository,
	projectRepo *repository.ProjectRepository,
	collaboratorRepo *repository.CollaboratorRepository,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo:   assignmentRepo,
		projectRepo:      projectRepo,
		collaboratorRepo: collaboratorRepo,
		logger:           logger,
	}
}

// ListByProject returns the assignments of a visible project
func (s *AssignmentService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ProjectCollaboratorDTO, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to get project: %w", mapNotFound(err, ErrNotFound))
	}

	assignments, err := s.assignmentRepo.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Warn("failed to list assignments",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return []domain.ProjectCollaboratorDTO{}, nil
	}

	dtos := make([]domain.ProjectCollaboratorDTO, len(assignments))
	for i := range assignments {
		dtos[i] = mapper.ToProjectCollaboratorDTO(&assignments[i])
	}
	return dtos, nil
}

// Assign adds a collaborator to a project. A collaborator is on a project at most once.
func (s *AssignmentService) Assign(ctx context.Context, projectID uuid.UUID, req *domain.AssignCollaboratorRequest) (*domain.ProjectCollaboratorDTO, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to get project: %w", mapNotFound(err, ErrNotFound))
	}
	collaborator, err := s.collaboratorRepo.GetByID(ctx, req.CollaboratorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collaborator: %w", mapNotFound(err, ErrInvalidInput))
	}

	exists, err := s.assignmentRepo.ExistsFor(ctx, projectID, req.CollaboratorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assignment: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: collaborator already assigned to project", ErrConflict)
	}

	assignment := &domain.ProjectCollaborator{
		ProjectID:      projectID,
		CollaboratorID: collaborator.ID,
		ProjectRole:    req.ProjectRole,
		TokensAssigned: req.TokensAssigned,
		Notes:          req.Notes,
	}
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	assignment.Collaborator = collaborator

	s.logger.Info("collaborator assigned",
		zap.String("project_id", projectID.String()),
		zap.String("collaborator_id", collaborator.ID.String()),
		zap.Int("tokens", req.TokensAssigned))

	dto := mapper.ToProjectCollaboratorDTO(assignment)
	return &dto, nil
}

// Update changes role, budget or notes. The budget cannot drop below the
// gettoni already used.
func (s *AssignmentService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateAssignmentRequest) (*domain.ProjectCollaboratorDTO, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", mapNotFound(err, ErrNotFound))
	}
	if req.TokensAssigned < assignment.TokensUsed {
		return nil, fmt.Errorf("%w: %d gettoni already used", ErrTokenBudgetExceeded, assignment.TokensUsed)
	}

	assignment.ProjectRole = req.ProjectRole
	assignment.TokensAssigned = req.TokensAssigned
	assignment.Notes = req.Notes

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	dto := mapper.ToProjectCollaboratorDTO(assignment)
	return &dto, nil
}

func (s *AssignmentService) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.assignmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", mapNotFound(err, ErrNotFound))
	}
	s.logger.Info("assignment removed", zap.String("assignment_id", id.String()))
	return nil
}

// UseTokens records amount gettoni as used, refusing to go over the
// assigned budget
func (s *AssignmentService) UseTokens(ctx context.Context, id uuid.UUID, amount int) (*domain.ProjectCollaboratorDTO, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: gettoni must be positive", ErrInvalidInput)
	}

	ok, err := s.assignmentRepo.UseTokens(ctx, id, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to use tokens: %w", err)
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", mapNotFound(err, ErrNotFound))
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d requested, %d remaining", ErrTokenBudgetExceeded, amount, assignment.TokensRemaining())
	}

	s.logger.Info("tokens used",
		zap.String("assignment_id", id.String()),
		zap.Int("amount", amount),
		zap.Int("remaining", assignment.TokensRemaining()))

	dto := mapper.ToProjectCollaboratorDTO(assignment)
	return &dto, nil
}
