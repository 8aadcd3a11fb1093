package repository

import (
	"context"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateIfAbsent inserts the notification unless one already exists for the
// same client and type. It reports whether a row was inserted.
func (r *NotificationRepository) CreateIfAbsent(ctx context.Context, notification *domain.Notification) (bool, error) {
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "tipo_notifica"}},
			DoNothing: true,
		}).
		Create(notification)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var notification domain.Notification
	query := r.db.WithContext(ctx).Preload("Client").Where("id = ?", id)
	query = ApplyOwnerFilter(ctx, query)
	if err := query.First(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// List returns the notifications visible to the user in ctx, soonest reminder first
func (r *NotificationRepository) List(ctx context.Context, unreadOnly bool) ([]domain.Notification, error) {
	var notifications []domain.Notification
	query := r.db.WithContext(ctx).Preload("Client")
	query = ApplyOwnerFilter(ctx, query)
	if unreadOnly {
		query = query.Where("letta = ?", false)
	}
	err := query.Order("data_notifica ASC").Order("tipo_notifica ASC").Find(&notifications).Error
	return notifications, err
}

// ListPending returns unread notifications whose reminder date has been reached
func (r *NotificationRepository) ListPending(ctx context.Context, today time.Time) ([]domain.Notification, error) {
	var notifications []domain.Notification
	query := r.db.WithContext(ctx).Preload("Client").
		Where("letta = ? AND data_notifica <= ?", false, datatypes.Date(today))
	query = ApplyOwnerFilter(ctx, query)
	err := query.Order("data_notifica ASC").Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Notification, error) {
	var notifications []domain.Notification
	query := r.db.WithContext(ctx).Where("client_id = ?", clientID)
	query = ApplyOwnerFilter(ctx, query)
	err := query.Order("data_notifica ASC").Find(&notifications).Error
	return notifications, err
}

// ListKeys returns every materialized notification, ignoring ownership.
// Only the client and type columns are loaded.
func (r *NotificationRepository) ListKeys(ctx context.Context) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := r.db.WithContext(ctx).
		Select("id", "client_id", "tipo_notifica").
		Find(&notifications).Error
	return notifications, err
}

// ListUndelivered returns due notifications not yet e-mailed, across all users
func (r *NotificationRepository) ListUndelivered(ctx context.Context, today time.Time, limit int) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := r.db.WithContext(ctx).Preload("Client").
		Where("inviata = ? AND letta = ? AND data_notifica <= ?", false, false, datatypes.Date(today)).
		Order("data_notifica ASC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// MarkAsRead sets letta on a notification. Marking an already read
// notification again keeps its first read time.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("id = ? AND letta = ?", id, false)
	query = ApplyOwnerFilter(ctx, query)
	return query.Updates(map[string]interface{}{
		"letta":    true,
		"letta_il": at,
	}).Error
}

// MarkManyAsRead marks the given notifications read and returns how many changed
func (r *NotificationRepository) MarkManyAsRead(ctx context.Context, ids []uuid.UUID, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("id IN ? AND letta = ?", ids, false)
	query = ApplyOwnerFilter(ctx, query)
	result := query.Updates(map[string]interface{}{
		"letta":    true,
		"letta_il": at,
	})
	return int(result.RowsAffected), result.Error
}

func (r *NotificationRepository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"inviata":    true,
			"inviata_il": at,
		}).Error
}

func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := ApplyOwnerFilter(ctx, r.db.WithContext(ctx).Where("id = ?", id)).Delete(&domain.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountPending counts unread notifications whose reminder date has been reached
func (r *NotificationRepository) CountPending(ctx context.Context, today time.Time) (int, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("letta = ? AND data_notifica <= ?", false, datatypes.Date(today))
	query = ApplyOwnerFilter(ctx, query)
	err := query.Count(&count).Error
	return int(count), err
}
