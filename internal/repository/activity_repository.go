package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gestionale-crm/crm-api/internal/auth"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityFilters narrows the activity log
type ActivityFilters struct {
	ClientID *uuid.UUID
	DealID   *uuid.UUID
	Type     *domain.ActivityType
	From     *time.Time
	To       *time.Time
}

// ActivityRepository handles database operations for activities.
// Activities are personal: every query is scoped to the user in ctx,
// whatever the role.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(activity).Error
}

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	var activity domain.Activity
	query := r.db.WithContext(ctx).Preload("Client").Preload("Deal").Where("id = ?", id)
	query = scopeToUser(ctx, query)
	if err := query.First(&activity).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

// Update updates an existing activity
func (r *ActivityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	existing, err := r.GetByID(ctx, activity.ID)
	if err != nil {
		return fmt.Errorf("activity not found: %w", err)
	}

	activity.CreatedAt = existing.CreatedAt
	activity.UserID = existing.UserID

	return r.db.WithContext(ctx).Omit(clause.Associations).Save(activity).Error
}

// Delete removes an activity by ID
func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return fmt.Errorf("activity not found: %w", err)
	}
	return r.db.WithContext(ctx).Delete(&domain.Activity{}, "id = ?", id).Error
}

// List returns activities newest first. A pageSize of zero returns every row.
func (r *ActivityRepository) List(ctx context.Context, filters *ActivityFilters, page, pageSize int) ([]domain.Activity, int64, error) {
	var activities []domain.Activity
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Activity{})
	query = scopeToUser(ctx, query)

	if filters != nil {
		if filters.ClientID != nil {
			query = query.Where("client_id = ?", *filters.ClientID)
		}
		if filters.DealID != nil {
			query = query.Where("deal_id = ?", *filters.DealID)
		}
		if filters.Type != nil {
			query = query.Where("tipo_attivita = ?", *filters.Type)
		}
		if filters.From != nil {
			query = query.Where("data_ora >= ?", *filters.From)
		}
		if filters.To != nil {
			query = query.Where("data_ora < ?", *filters.To)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Client").Preload("Deal").Order("data_ora DESC")
	if pageSize > 0 {
		query = Paginate(query, page, pageSize)
	}
	err := query.Find(&activities).Error
	return activities, total, err
}

func scopeToUser(ctx context.Context, query *gorm.DB) *gorm.DB {
	if user, ok := auth.FromContext(ctx); ok {
		return query.Where("activities.user_id = ?", user.ID)
	}
	return query
}
