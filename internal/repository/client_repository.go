package repository

import (
	"context"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClientFilters narrows the client list
type ClientFilters struct {
	Search string
	Status *domain.DealStatus
	Sort   SortConfig
}

var clientSortFields = map[string]string{
	"nome_azienda":            "nome_azienda",
	"data_scadenza_contratto": "data_scadenza_contratto",
	"created_at":              "created_at",
	"updated_at":              "updated_at",
}

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	query := r.db.WithContext(ctx).Where("id = ?", id)
	query = ApplyOwnerFilter(ctx, query)
	if err := query.First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

// Delete removes the client and its notifications in one transaction
func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", id).Delete(&domain.Notification{}).Error; err != nil {
			return err
		}
		result := ApplyOwnerFilter(ctx, tx.Where("id = ?", id)).Delete(&domain.Client{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *ClientRepository) List(ctx context.Context, filters ClientFilters) ([]domain.Client, error) {
	var clients []domain.Client

	query := r.db.WithContext(ctx).Model(&domain.Client{})
	query = ApplyOwnerFilter(ctx, query)

	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("LOWER(nome_azienda) LIKE ? OR LOWER(figura_preposta) LIKE ? OR LOWER(indirizzo_mail) LIKE ?",
			pattern, pattern, pattern)
	}
	if filters.Status != nil {
		query = query.Where("stato_trattativa = ?", *filters.Status)
	}

	order := BuildOrderClause(filters.Sort, clientSortFields, "created_at")
	err := query.Order(order).Find(&clients).Error
	return clients, err
}

// ListWithReminders returns every client with reminders enabled and a contract
// end date. It ignores the owner filter: generation runs for all users.
func (r *ClientRepository) ListWithReminders(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	err := r.db.WithContext(ctx).
		Where("notifiche_attive = ? AND data_scadenza_contratto IS NOT NULL", true).
		Order("data_scadenza_contratto ASC").
		Find(&clients).Error
	return clients, err
}

// CountExpiringBetween counts clients whose contract ends in [from, to],
// whether or not reminders are enabled for them
func (r *ClientRepository) CountExpiringBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Client{}).
		Where("data_scadenza_contratto IS NOT NULL AND data_scadenza_contratto BETWEEN ? AND ?",
			datatypes.Date(from), datatypes.Date(to))
	query = ApplyOwnerFilter(ctx, query)
	err := query.Count(&count).Error
	return int(count), err
}
