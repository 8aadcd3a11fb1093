package repository

import (
	"context"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DealFilters contains the filter options for listing deals
type DealFilters struct {
	ClientID *uuid.UUID
	Status   *domain.DealStatus
	Search   string
}

type DealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

func (r *DealRepository) Create(ctx context.Context, deal *domain.Deal) error {
	// Omit associations to avoid GORM trying to upsert the preloaded client
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(deal).Error
}

func (r *DealRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deal, error) {
	var deal domain.Deal
	query := r.db.WithContext(ctx).Preload("Client").Where("id = ?", id)
	query = ApplyOwnerFilter(ctx, query)
	if err := query.First(&deal).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *DealRepository) Update(ctx context.Context, deal *domain.Deal) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(deal).Error
}

func (r *DealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := ApplyOwnerFilter(ctx, r.db.WithContext(ctx).Where("id = ?", id)).Delete(&domain.Deal{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns deals with their client, most recently opened first
func (r *DealRepository) List(ctx context.Context, filters *DealFilters) ([]domain.Deal, error) {
	var deals []domain.Deal

	query := r.db.WithContext(ctx).Model(&domain.Deal{}).Preload("Client")
	query = ApplyOwnerFilter(ctx, query)

	if filters != nil {
		if filters.ClientID != nil {
			query = query.Where("client_id = ?", *filters.ClientID)
		}
		if filters.Status != nil {
			query = query.Where("stato_trattativa = ?", *filters.Status)
		}
		if filters.Search != "" {
			query = query.Where("LOWER(oggetto_trattativa) LIKE ?", likePattern(filters.Search))
		}
	}

	err := query.Order("data_apertura DESC").Order("created_at DESC").Find(&deals).Error
	return deals, err
}
