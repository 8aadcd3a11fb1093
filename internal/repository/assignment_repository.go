package repository

import (
	"context"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignmentRepository stores collaborator assignments to projects
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *domain.ProjectCollaborator) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(assignment).Error
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectCollaborator, error) {
	var assignment domain.ProjectCollaborator
	err := r.db.WithContext(ctx).Preload("Collaborator").First(&assignment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, assignment *domain.ProjectCollaborator) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(assignment).Error
}

func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.ProjectCollaborator{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AssignmentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ProjectCollaborator, error) {
	var assignments []domain.ProjectCollaborator
	err := r.db.WithContext(ctx).Preload("Collaborator").
		Where("project_id = ?", projectID).
		Order("data_assegnazione ASC").
		Find(&assignments).Error
	return assignments, err
}

// ExistsFor reports whether the collaborator is already on the project
func (r *AssignmentRepository) ExistsFor(ctx context.Context, projectID, collaboratorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ProjectCollaborator{}).
		Where("project_id = ? AND collaborator_id = ?", projectID, collaboratorID).
		Count(&count).Error
	return count > 0, err
}

// UseTokens adds amount to gettoni_utilizzati in a single conditional update.
// It reports false when the assignment does not exist or the budget would be exceeded.
func (r *AssignmentRepository) UseTokens(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.ProjectCollaborator{}).
		Where("id = ? AND gettoni_utilizzati + ? <= gettoni_assegnati", id, amount).
		Update("gettoni_utilizzati", gorm.Expr("gettoni_utilizzati + ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
