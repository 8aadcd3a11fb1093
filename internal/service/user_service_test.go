package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/auth"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/service"
	"github.com/gestionale-crm/crm-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupUserService(t *testing.T) (*gorm.DB, *service.UserService) {
	db := testutil.SetupTestDB(t)
	svc := service.NewUserService(repository.NewUserRepository(db), service.FixedClock(testNow, time.UTC), zap.NewNop())
	return db, svc
}

func TestUserService_EnsureProfile_FirstAccountIsOwner(t *testing.T) {
	_, svc := setupUserService(t)
	ctx := context.Background()

	first, err := svc.EnsureProfile(ctx, &auth.Identity{UserID: uuid.New(), Email: "titolare@example.com", FirstName: "Giulia"})
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleOwner, first.Role)
	assert.True(t, first.Approved)

	second, err := svc.EnsureProfile(ctx, &auth.Identity{UserID: uuid.New(), Email: "venditore@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleSales, second.Role)
	assert.False(t, second.Approved)

	again, err := svc.EnsureProfile(ctx, &auth.Identity{UserID: first.ID, Email: first.Email, LastName: "Neri"})
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleOwner, again.Role)
	assert.Equal(t, "Giulia", again.FirstName)
	assert.Equal(t, "Neri", again.LastName)
	require.NotNil(t, again.LastLogin)
}

func TestUserService_Approve(t *testing.T) {
	db, svc := setupUserService(t)
	owner := testutil.CreateTestUser(t, db, domain.UserRoleOwner)
	manager := testutil.CreateTestUser(t, db, domain.UserRoleManager)
	sales := testutil.CreateTestUser(t, db, domain.UserRoleSales)

	pending, err := svc.EnsureProfile(context.Background(), &auth.Identity{UserID: uuid.New(), Email: "nuovo@example.com"})
	require.NoError(t, err)
	require.False(t, pending.Approved)

	_, err = svc.List(testutil.UserContext(sales), false)
	assert.ErrorIs(t, err, service.ErrForbidden)

	list, err := svc.List(testutil.UserContext(manager), true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	ownerRole := domain.UserRoleOwner
	_, err = svc.Approve(testutil.UserContext(manager), pending.ID, &domain.ApproveUserRequest{Role: &ownerRole})
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = svc.Approve(testutil.UserContext(sales), pending.ID, &domain.ApproveUserRequest{})
	assert.ErrorIs(t, err, service.ErrForbidden)

	managerRole := domain.UserRoleManager
	approved, err := svc.Approve(testutil.UserContext(owner), pending.ID, &domain.ApproveUserRequest{Role: &managerRole})
	require.NoError(t, err)
	assert.True(t, approved.Approved)
	assert.Equal(t, domain.UserRoleManager, approved.Role)

	_, err = svc.Approve(testutil.UserContext(owner), uuid.New(), &domain.ApproveUserRequest{})
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUserService_Me(t *testing.T) {
	db, svc := setupUserService(t)
	stored := testutil.CreateTestUser(t, db, domain.UserRoleManager)

	me, err := svc.Me(testutil.UserContext(stored))
	require.NoError(t, err)
	assert.Equal(t, stored.Email, me.Email)

	bypass := auth.WithUser(context.Background(), &auth.CurrentUser{
		ID:       uuid.New(),
		Email:    "dev@localhost",
		Role:     domain.UserRoleOwner,
		Approved: true,
	})
	me, err = svc.Me(bypass)
	require.NoError(t, err)
	assert.Equal(t, "dev@localhost", me.Email)
	assert.Equal(t, domain.UserRoleOwner, me.Role)

	_, err = svc.Me(context.Background())
	assert.ErrorIs(t, err, service.ErrUserContextRequired)
}
