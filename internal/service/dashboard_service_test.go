package service_test

import (
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/service"
	"github.com/gestionale-crm/crm-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDashboardService(t *testing.T, now time.Time) (*gorm.DB, *service.DashboardService) {
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	clock := service.FixedClock(now, time.UTC)

	clientRepo := repository.NewClientRepository(db)
	notifications := service.NewNotificationService(
		repository.NewNotificationRepository(db),
		clientRepo,
		repository.NewUserRepository(db),
		nil,
		clock,
		nil,
		log,
	)
	svc := service.NewDashboardService(
		clientRepo,
		repository.NewDealRepository(db),
		repository.NewActivityRepository(db),
		notifications,
		clock,
		log,
	)
	return db, svc
}

func TestDashboardService_GetStats(t *testing.T) {
	now := time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC) // Wednesday
	db, svc := setupDashboardService(t, now)
	user := testutil.CreateTestUser(t, db, domain.UserRoleOwner)

	acme := testutil.CreateTestClient(t, db, user.ID, "Acme", testutil.WithContractMonths(24),
		testutil.WithContractEnd(period.Civil(2025, 2, 1)))
	beta := testutil.CreateTestClient(t, db, user.ID, "Beta")

	testutil.CreateTestDeal(t, db, acme, 500, domain.DealStatusWon, period.Civil(2025, 1, 2))
	testutil.CreateTestDeal(t, db, beta, 800, domain.DealStatusWon, period.Civil(2024, 12, 20))
	testutil.CreateTestDeal(t, db, beta, 300, domain.DealStatusInProgress, period.Civil(2025, 1, 5))
	testutil.CreateTestDeal(t, db, acme, 50, domain.DealStatusLost, period.Civil(2025, 1, 6))

	testutil.CreateTestActivity(t, db, user.ID, &acme.ID, time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC))
	testutil.CreateTestActivity(t, db, user.ID, &acme.ID, time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC))
	testutil.CreateTestActivity(t, db, user.ID, nil, time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC))

	stats := svc.GetStats(testutil.UserContext(user))

	assert.Equal(t, 2, stats.TotalClients)
	assert.Equal(t, 1, stats.ActiveDeals)
	assert.Equal(t, 2, stats.WonDeals)
	assert.Equal(t, 1, stats.LostDeals)
	assert.True(t, decimal.NewFromInt(300).Equal(stats.TotalDealValue))
	assert.Equal(t, 2, stats.ThisWeekActivities)
	assert.Equal(t, 1, stats.ContractsExpiringSoon)

	require.NotNil(t, stats.BestClientByRevenue)
	assert.Equal(t, "Beta", stats.BestClientByRevenue.CompanyName)
	require.NotNil(t, stats.BestClientByContractDuration)
	assert.Equal(t, "Acme", stats.BestClientByContractDuration.CompanyName)
	require.NotNil(t, stats.BestSalesPerformance)
	assert.Equal(t, "2024-12", stats.BestSalesPerformance.BestMonth.Month)
}

func TestDashboardService_ScopedToCommerciale(t *testing.T) {
	db, svc := setupDashboardService(t, testNow)
	alice := testutil.CreateTestUser(t, db, domain.UserRoleSales)
	bob := testutil.CreateTestUser(t, db, domain.UserRoleSales)
	client := testutil.CreateTestClient(t, db, alice.ID, "Acme")
	testutil.CreateTestDeal(t, db, client, 100, domain.DealStatusWon, period.Civil(2025, 2, 1))

	assert.Equal(t, 1, svc.GetStats(testutil.UserContext(alice)).TotalClients)

	empty := svc.GetStats(testutil.UserContext(bob))
	assert.Zero(t, empty.TotalClients)
	assert.Zero(t, empty.WonDeals)
	assert.Nil(t, empty.BestClientByRevenue)
}
