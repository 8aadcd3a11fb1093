package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newNotification(client *domain.Client, typ domain.NotificationType, notifyOn time.Time) *domain.Notification {
	return &domain.Notification{
		ClientID:    client.ID,
		Type:        typ,
		NotifyOn:    datatypes.Date(notifyOn),
		ContractEnd: *client.ContractEnd,
		Message:     "Scadenza contratto " + client.CompanyName,
		UserID:      client.UserID,
	}
}

func TestApplyOwnerFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sales := testutil.CreateTestUser(t, db, domain.UserRoleSales)
	owner := testutil.CreateTestUser(t, db, domain.UserRoleOwner)

	toSQL := func(ctx context.Context) string {
		return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			return repository.ApplyOwnerFilter(ctx, tx.Model(&domain.Client{})).Find(&[]domain.Client{})
		})
	}

	assert.Contains(t, toSQL(testutil.UserContext(sales)), "user_id =")
	assert.NotContains(t, toSQL(testutil.UserContext(owner)), "user_id =")
	assert.NotContains(t, toSQL(context.Background()), "user_id =")
}

func TestClientRepository_OwnerScoping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewClientRepository(db)

	alice := testutil.CreateTestUser(t, db, domain.UserRoleSales)
	bob := testutil.CreateTestUser(t, db, domain.UserRoleSales)
	manager := testutil.CreateTestUser(t, db, domain.UserRoleManager)

	testutil.CreateTestClient(t, db, alice.ID, "Alfa")
	bobClient := testutil.CreateTestClient(t, db, bob.ID, "Beta")

	clients, err := repo.List(testutil.UserContext(alice), repository.ClientFilters{})
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Alfa", clients[0].CompanyName)

	_, err = repo.GetByID(testutil.UserContext(alice), bobClient.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	all, err := repo.List(testutil.UserContext(manager), repository.ClientFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := repo.List(testutil.UserContext(manager), repository.ClientFilters{Search: "bet"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, bobClient.ID, found[0].ID)
}

func TestClientRepository_DeleteCascadesNotifications(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	clients := repository.NewClientRepository(db)
	notifications := repository.NewNotificationRepository(db)

	user := testutil.CreateTestUser(t, db, domain.UserRoleOwner)
	end := period.Civil(2025, 4, 1)
	client := testutil.CreateTestClient(t, db, user.ID, "Acme", testutil.WithContractEnd(end))
	other := testutil.CreateTestClient(t, db, user.ID, "Other", testutil.WithContractEnd(end))

	for _, c := range []*domain.Client{client, other} {
		created, err := notifications.CreateIfAbsent(ctx, newNotification(c, domain.NotificationExpiry45, period.AddDays(end, -45)))
		require.NoError(t, err)
		require.True(t, created)
	}

	require.NoError(t, clients.Delete(ctx, client.ID))

	remaining, err := notifications.ListKeys(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, other.ID, remaining[0].ClientID)

	assert.ErrorIs(t, clients.Delete(ctx, uuid.New()), gorm.ErrRecordNotFound)
}

func TestClientRepository_ListWithRemindersAndExpiring(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewClientRepository(db)
	user := testutil.CreateTestUser(t, db, domain.UserRoleSales)
	today := period.Civil(2025, 3, 1)

	testutil.CreateTestClient(t, db, user.ID, "Soon", testutil.WithContractEnd(period.AddDays(today, 10)))
	testutil.CreateTestClient(t, db, user.ID, "Later", testutil.WithContractEnd(period.AddDays(today, 90)))
	disabled := testutil.CreateTestClient(t, db, user.ID, "Disabled", testutil.WithContractEnd(period.AddDays(today, 5)))
	require.NoError(t, db.Model(disabled).Update("notifiche_attive", false).Error)
	testutil.CreateTestClient(t, db, user.ID, "Untracked")

	tracked, err := repo.ListWithReminders(testutil.UserContext(user))
	require.NoError(t, err)
	require.Len(t, tracked, 2)
	assert.Equal(t, "Soon", tracked[0].CompanyName)

	// reminders off still counts as expiring
	count, err := repo.CountExpiringBetween(testutil.UserContext(user), today, period.AddDays(today, 60))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNotificationRepository_CreateIfAbsent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := repository.NewNotificationRepository(db)
	user := testutil.CreateTestUser(t, db, domain.UserRoleSales)
	end := period.Civil(2025, 4, 1)
	client := testutil.CreateTestClient(t, db, user.ID, "Acme", testutil.WithContractEnd(end))

	created, err := repo.CreateIfAbsent(ctx, newNotification(client, domain.NotificationExpiry45, period.AddDays(end, -45)))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(ctx, newNotification(client, domain.NotificationExpiry45, period.AddDays(end, -45)))
	require.NoError(t, err)
	assert.False(t, created)

	created, err = repo.CreateIfAbsent(ctx, newNotification(client, domain.NotificationReminder30, period.AddDays(end, -30)))
	require.NoError(t, err)
	assert.True(t, created)

	keys, err := repo.ListKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestNotificationRepository_PendingAndRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNotificationRepository(db)
	user := testutil.CreateTestUser(t, db, domain.UserRoleSales)
	ctx := testutil.UserContext(user)

	today := period.Civil(2025, 3, 1)
	end := period.AddDays(today, 20)
	client := testutil.CreateTestClient(t, db, user.ID, "Acme", testutil.WithContractEnd(end))

	due := newNotification(client, domain.NotificationExpiry45, period.AddDays(end, -45))
	notYet := newNotification(client, domain.NotificationFollowUp15, period.AddDays(end, -15))
	for _, n := range []*domain.Notification{due, notYet} {
		_, err := repo.CreateIfAbsent(ctx, n)
		require.NoError(t, err)
	}

	pending, err := repo.ListPending(ctx, today)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, due.ID, pending[0].ID)
	require.NotNil(t, pending[0].Client)
	assert.Equal(t, "Acme", pending[0].Client.CompanyName)

	count, err := repo.CountPending(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	firstRead := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkAsRead(ctx, due.ID, firstRead))
	require.NoError(t, repo.MarkAsRead(ctx, due.ID, firstRead.Add(time.Hour)))

	got, err := repo.GetByID(ctx, due.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	require.NotNil(t, got.ReadAt)
	assert.True(t, firstRead.Equal(*got.ReadAt))

	count, err = repo.CountPending(ctx, today)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationRepository_Delivery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := repository.NewNotificationRepository(db)
	user := testutil.CreateTestUser(t, db, domain.UserRoleSales)

	today := period.Civil(2025, 3, 1)
	end := period.AddDays(today, 10)
	client := testutil.CreateTestClient(t, db, user.ID, "Acme", testutil.WithContractEnd(end))
	n := newNotification(client, domain.NotificationExpiry45, period.AddDays(end, -45))
	_, err := repo.CreateIfAbsent(ctx, n)
	require.NoError(t, err)

	undelivered, err := repo.ListUndelivered(ctx, today, 10)
	require.NoError(t, err)
	require.Len(t, undelivered, 1)

	require.NoError(t, repo.MarkDelivered(ctx, n.ID, time.Now().UTC()))
	undelivered, err = repo.ListUndelivered(ctx, today, 10)
	require.NoError(t, err)
	assert.Empty(t, undelivered)
}

func TestAssignmentRepository_UseTokens(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := repository.NewAssignmentRepository(db)

	user := testutil.CreateTestUser(t, db, domain.UserRoleOwner)
	client := testutil.CreateTestClient(t, db, user.ID, "Acme")
	project := testutil.CreateTestProject(t, db, client, "Sito", domain.ProjectStatusInProgress, domain.PriorityHigh, period.Civil(2025, 1, 1))
	collaborator := testutil.CreateTestCollaborator(t, db, user.ID, "Bianchi", 50)

	assignment := &domain.ProjectCollaborator{
		ProjectID:      project.ID,
		CollaboratorID: collaborator.ID,
		ProjectRole:    domain.RoleDeveloper,
		TokensAssigned: 10,
	}
	require.NoError(t, repo.Create(ctx, assignment))

	ok, err := repo.UseTokens(ctx, assignment.ID, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UseTokens(ctx, assignment.ID, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.UseTokens(ctx, assignment.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TokensUsed)
	assert.Zero(t, got.TokensRemaining())

	exists, err := repo.ExistsFor(ctx, project.ID, collaborator.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestProjectRepository_ListActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewProjectRepository(db)
	user := testutil.CreateTestUser(t, db, domain.UserRoleOwner)
	client := testutil.CreateTestClient(t, db, user.ID, "Acme")

	testutil.CreateTestProject(t, db, client, "Done", domain.ProjectStatusCompleted, domain.PriorityCritical, period.Civil(2024, 1, 1))
	testutil.CreateTestProject(t, db, client, "Later", domain.ProjectStatusPlanning, domain.PriorityLow, period.Civil(2025, 6, 1))
	testutil.CreateTestProject(t, db, client, "Now", domain.ProjectStatusInProgress, domain.PriorityLow, period.Civil(2025, 1, 1))

	active, err := repo.ListActive(testutil.UserContext(user))
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Now", active[0].Name)
	require.NotNil(t, active[0].Client)
	assert.Equal(t, "Acme", active[0].Client.CompanyName)
}

func TestActivityRepository_ScopedToUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewActivityRepository(db)
	owner := testutil.CreateTestUser(t, db, domain.UserRoleOwner)
	sales := testutil.CreateTestUser(t, db, domain.UserRoleSales)

	at := time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)
	testutil.CreateTestActivity(t, db, owner.ID, nil, at)
	testutil.CreateTestActivity(t, db, sales.ID, nil, at)
	testutil.CreateTestActivity(t, db, sales.ID, nil, at.AddDate(0, 0, -10))

	mine, total, err := repo.List(testutil.UserContext(owner), nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, mine, 1)

	from := period.Civil(2025, 1, 5)
	recent, total, err := repo.List(testutil.UserContext(sales), &repository.ActivityFilters{From: &from}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, recent, 1)
}

func TestUserRepository_Approval(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := repository.NewUserRepository(db)

	pending := &domain.User{ID: uuid.New(), Email: "new@example.com", Role: domain.UserRoleSales, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, pending))

	list, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, list, 1)

	manager := domain.UserRoleManager
	require.NoError(t, repo.SetApproval(ctx, pending.ID, true, &manager))

	got, err := repo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.Equal(t, domain.UserRoleManager, got.Role)

	assert.ErrorIs(t, repo.SetApproval(ctx, uuid.New(), true, nil), gorm.ErrRecordNotFound)
}
