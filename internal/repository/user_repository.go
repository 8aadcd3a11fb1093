package repository

import (
	"context"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users, accounts awaiting approval first
func (r *UserRepository) List(ctx context.Context, pendingOnly bool) ([]domain.User, error) {
	var users []domain.User
	query := r.db.WithContext(ctx).Model(&domain.User{})
	if pendingOnly {
		query = query.Where("approved = ?", false)
	}
	err := query.Order("approved ASC").Order("created_at DESC").Find(&users).Error
	return users, err
}

// SetApproval updates the approval flag and, when role is set, the role
func (r *UserRepository) SetApproval(ctx context.Context, id uuid.UUID, approved bool, role *domain.UserRole) error {
	updates := map[string]interface{}{"approved": approved}
	if role != nil {
		updates["ruolo"] = *role
	}
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastLogin records a login and refreshes the profile names when they are given
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time, firstName, lastName string) error {
	updates := map[string]interface{}{"last_login": at}
	if firstName != "" {
		updates["nome"] = firstName
	}
	if lastName != "" {
		updates["cognome"] = lastName
	}
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error
	return int(count), err
}
