package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gestionale-crm/crm-api/internal/auth"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/mapper"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProjectService struct {
	projectRepo *repository.ProjectRepository
	clientRepo  *repository.ClientRepository
	logger      *zap.Logger
}

func NewProjectService(
	projectRepo *repository.ProjectRepository,
	clientRepo *repository.ClientRepository,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		clientRepo:  clientRepo,
		logger:      logger,
	}
}

func (s *ProjectService) List(ctx context.Context, filters *repository.ProjectFilters) []domain.ProjectDTO {
	projects, err := s.projectRepo.List(ctx, filters)
	if err != nil {
		s.logger.Warn("failed to list projects", zap.Error(err))
		return []domain.ProjectDTO{}
	}
	return toProjectDTOs(projects)
}

// Active returns planned and running projects, highest priority first and
// then by start date
func (s *ProjectService) Active(ctx context.Context) []domain.ProjectDTO {
	projects, err := s.projectRepo.ListActive(ctx)
	if err != nil {
		s.logger.Warn("failed to list active projects", zap.Error(err))
		return []domain.ProjectDTO{}
	}
	SortByPriority(projects)
	return toProjectDTOs(projects)
}

// SortByPriority orders projects by priority rank desc, then start date asc
func SortByPriority(projects []domain.Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		ri, rj := projects[i].Priority.Rank(), projects[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return time.Time(projects[i].StartDate).Before(time.Time(projects[j].StartDate))
	})
}

func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", mapNotFound(err, ErrNotFound))
	}
	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

func (s *ProjectService) Create(ctx context.Context, req *domain.ProjectRequest) (*domain.ProjectDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", mapNotFound(err, ErrInvalidInput))
	}

	project := &domain.Project{UserID: user.ID}
	if err := mapper.ApplyProjectRequest(project, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	project.Client = client

	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("client_id", client.ID.String()))

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *domain.ProjectRequest) (*domain.ProjectDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", mapNotFound(err, ErrNotFound))
	}

	if req.ClientID != project.ClientID {
		client, err := s.clientRepo.GetByID(ctx, req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to get client: %w", mapNotFound(err, ErrInvalidInput))
		}
		project.Client = client
	}

	if err := mapper.ApplyProjectRequest(project, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.logger.Info("project updated",
		zap.String("project_id", project.ID.String()),
		zap.String("status", string(project.Status)))

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// Delete removes the project and its collaborator assignments
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", mapNotFound(err, ErrNotFound))
	}
	s.logger.Info("project deleted", zap.String("project_id", id.String()))
	return nil
}

func toProjectDTOs(projects []domain.Project) []domain.ProjectDTO {
	dtos := make([]domain.ProjectDTO, len(projects))
	for i := range projects {
		dtos[i] = mapper.ToProjectDTO(&projects[i])
	}
	return dtos
}
