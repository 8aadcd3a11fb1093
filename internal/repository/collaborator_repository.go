package repository

import (
	"context"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CollaboratorRepository struct {
	db *gorm.DB
}

func NewCollaboratorRepository(db *gorm.DB) *CollaboratorRepository {
	return &CollaboratorRepository{db: db}
}

func (r *CollaboratorRepository) Create(ctx context.Context, collaborator *domain.Collaborator) error {
	return r.db.WithContext(ctx).Create(collaborator).Error
}

func (r *CollaboratorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Collaborator, error) {
	var collaborator domain.Collaborator
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyOwnerFilter(ctx, query)
	if err := query.First(&collaborator).Error; err != nil {
		return nil, err
	}
	return &collaborator, nil
}

func (r *CollaboratorRepository) Update(ctx context.Context, collaborator *domain.Collaborator) error {
	return r.db.WithContext(ctx).Save(collaborator).Error
}

// Delete removes the collaborator and its project assignments
func (r *CollaboratorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collaborator_id = ?", id).Delete(&domain.ProjectCollaborator{}).Error; err != nil {
			return err
		}
		result := ApplyOwnerFilter(ctx, tx.Where("id = ?", id)).Delete(&domain.Collaborator{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List returns collaborators sorted by surname
func (r *CollaboratorRepository) List(ctx context.Context, search string) ([]domain.Collaborator, error) {
	var collaborators []domain.Collaborator
	query := r.db.WithContext(ctx).Model(&domain.Collaborator{})
	query = ApplyOwnerFilter(ctx, query)
	if search != "" {
		pattern := likePattern(search)
		query = query.Where("LOWER(nome) LIKE ? OR LOWER(cognome) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}
	err := query.Order("cognome ASC").Order("nome ASC").Find(&collaborators).Error
	return collaborators, err
}

// UpdateTokens sets the gettoni a collaborator still has available
func (r *CollaboratorRepository) UpdateTokens(ctx context.Context, id uuid.UUID, tokens int) error {
	query := r.db.WithContext(ctx).Model(&domain.Collaborator{}).Where("id = ?", id)
	query = ApplyOwnerFilter(ctx, query)
	result := query.Update("gettoni_disponibili", tokens)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
