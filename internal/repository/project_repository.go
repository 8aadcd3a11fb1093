package repository

import (
	"context"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectFilters narrows the project list
type ProjectFilters struct {
	ClientID *uuid.UUID
	Status   *domain.ProjectStatus
}

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	query := r.withDetails(r.db.WithContext(ctx)).Where("id = ?", id)
	query = ApplyOwnerFilter(ctx, query)
	if err := query.First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
}

// Delete removes the project together with its assignments
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&domain.ProjectCollaborator{}).Error; err != nil {
			return err
		}
		result := ApplyOwnerFilter(ctx, tx.Where("id = ?", id)).Delete(&domain.Project{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List returns projects with client and collaborators, newest first
func (r *ProjectRepository) List(ctx context.Context, filters *ProjectFilters) ([]domain.Project, error) {
	var projects []domain.Project
	query := r.withDetails(r.db.WithContext(ctx).Model(&domain.Project{}))
	query = ApplyOwnerFilter(ctx, query)

	if filters != nil {
		if filters.ClientID != nil {
			query = query.Where("client_id = ?", *filters.ClientID)
		}
		if filters.Status != nil {
			query = query.Where("stato = ?", *filters.Status)
		}
	}

	err := query.Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// ListActive returns projects being planned or in progress.
// Ordering by priority is done by the caller since it is not alphabetical.
func (r *ProjectRepository) ListActive(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	query := r.withDetails(r.db.WithContext(ctx)).
		Where("stato IN ?", []domain.ProjectStatus{domain.ProjectStatusPlanning, domain.ProjectStatusInProgress})
	query = ApplyOwnerFilter(ctx, query)
	err := query.Order("data_inizio ASC").Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) withDetails(query *gorm.DB) *gorm.DB {
	return query.Preload("Client").Preload("Assignments.Collaborator")
}
