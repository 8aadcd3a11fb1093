// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/auth"
	"github.com/gestionale-crm/crm-api/internal/database"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=0", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db), "failed to migrate test database")
	return db
}

// UserContext returns a context carrying a user with the given role
func UserContext(user *domain.User) context.Context {
	return auth.WithUser(context.Background(), &auth.CurrentUser{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		Approved:  user.Approved,
	})
}

// CreateTestUser creates an approved user with the given role
func CreateTestUser(t *testing.T, db *gorm.DB, role domain.UserRole) *domain.User {
	t.Helper()
	id := uuid.New()
	user := &domain.User{
		ID:        id,
		Email:     "user-" + id.String()[:8] + "@example.com",
		FirstName: "Test",
		LastName:  string(role),
		Role:      role,
		Approved:  true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// ClientOption customizes a test client
type ClientOption func(*domain.Client)

// WithContractEnd enables reminders and sets the contract end date
func WithContractEnd(end time.Time) ClientOption {
	return func(c *domain.Client) {
		d := datatypes.Date(end)
		c.ContractEnd = &d
		c.RemindersEnabled = true
	}
}

// WithContractMonths sets the contract duration
func WithContractMonths(months int) ClientOption {
	return func(c *domain.Client) { c.ContractMonths = &months }
}

// CreateTestClient creates a client owned by userID
func CreateTestClient(t *testing.T, db *gorm.DB, userID uuid.UUID, name string, opts ...ClientOption) *domain.Client {
	t.Helper()
	client := &domain.Client{
		CompanyName:   name,
		ContactPerson: "Mario Rossi",
		Email:         "info@example.com",
		Status:        domain.DealStatusInProgress,
		UserID:        userID,
	}
	for _, opt := range opts {
		opt(client)
	}
	require.NoError(t, db.Omit(clause.Associations).Create(client).Error)
	return client
}

// CreateTestDeal creates a deal for the client
func CreateTestDeal(t *testing.T, db *gorm.DB, client *domain.Client, value int64, status domain.DealStatus, opened time.Time) *domain.Deal {
	t.Helper()
	deal := &domain.Deal{
		ClientID:       client.ID,
		Subject:        "Trattativa " + client.CompanyName,
		EstimatedValue: decimal.NewFromInt(value),
		OpenedOn:       opened,
		Status:         status,
		UserID:         client.UserID,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(deal).Error)
	return deal
}

// CreateTestActivity creates an activity for the user
func CreateTestActivity(t *testing.T, db *gorm.DB, userID uuid.UUID, clientID *uuid.UUID, at time.Time) *domain.Activity {
	t.Helper()
	activity := &domain.Activity{
		Type:       domain.ActivityTypeCall,
		OccurredAt: at,
		Outcome:    domain.OutcomePositive,
		ClientID:   clientID,
		UserID:     userID,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(activity).Error)
	return activity
}

// CreateTestCollaborator creates a collaborator paid per gettone
func CreateTestCollaborator(t *testing.T, db *gorm.DB, userID uuid.UUID, lastName string, tokens int) *domain.Collaborator {
	t.Helper()
	collaborator := &domain.Collaborator{
		FirstName:       "Luca",
		LastName:        lastName,
		Email:           lastName + "@example.com",
		Role:            domain.RoleDeveloper,
		Compensation:    domain.CompensationPerToken,
		TokensAvailable: tokens,
		UserID:          userID,
	}
	require.NoError(t, db.Create(collaborator).Error)
	return collaborator
}

// CreateTestProject creates a project for the client
func CreateTestProject(t *testing.T, db *gorm.DB, client *domain.Client, name string, status domain.ProjectStatus, priority domain.ProjectPriority, start time.Time) *domain.Project {
	t.Helper()
	project := &domain.Project{
		Name:       name,
		ClientID:   client.ID,
		Status:     status,
		Priority:   priority,
		StartDate:  datatypes.Date(start),
		PlannedEnd: datatypes.Date(start.AddDate(0, 3, 0)),
		UserID:     client.UserID,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(project).Error)
	return project
}
