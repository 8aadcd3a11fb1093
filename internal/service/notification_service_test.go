package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/config"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/mailer"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/service"
	"github.com/gestionale-crm/crm-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type notificationFixture struct {
	db   *gorm.DB
	svc  *service.NotificationService
	mail *mailer.RecordingMailer
}

func setupNotificationService(t *testing.T) *notificationFixture {
	db := testutil.SetupTestDB(t)
	mail := &mailer.RecordingMailer{}
	svc := service.NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewClientRepository(db),
		repository.NewUserRepository(db),
		mail,
		service.FixedClock(testNow, time.UTC),
		&config.NotificationsConfig{ExpiringSoonDays: 60},
		zap.NewNop(),
	)
	return &notificationFixture{db: db, svc: svc, mail: mail}
}

func TestNotificationService_GenerateNotifications(t *testing.T) {
	f := setupNotificationService(t)
	owner := testutil.CreateTestUser(t, f.db, domain.UserRoleSales)

	today := period.Civil(2025, 3, 1)
	testutil.CreateTestClient(t, f.db, owner.ID, "Trenta", testutil.WithContractEnd(period.AddDays(today, 30)))
	testutil.CreateTestClient(t, f.db, owner.ID, "Lontano", testutil.WithContractEnd(period.AddDays(today, 90)))
	testutil.CreateTestClient(t, f.db, owner.ID, "Senza scadenza")

	result, err := f.svc.GenerateNotifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Evaluated)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Failed)

	again, err := f.svc.GenerateNotifications(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Created)

	ctx := testutil.UserContext(owner)
	list, err := f.svc.ListForCurrentUser(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, n := range list {
		assert.Equal(t, "Trenta", n.CompanyName)
		assert.Equal(t, 30, n.DaysRemaining)
		assert.Equal(t, domain.NotificationPending, n.Status)
		assert.Equal(t, owner.ID, n.UserID)
	}
}

func TestNotificationService_GenerateNotifications_PartialFailure(t *testing.T) {
	f := setupNotificationService(t)
	owner := testutil.CreateTestUser(t, f.db, domain.UserRoleSales)

	today := period.Civil(2025, 3, 1)
	testutil.CreateTestClient(t, f.db, owner.ID, "Trenta", testutil.WithContractEnd(period.AddDays(today, 30)))
	broken := testutil.CreateTestClient(t, f.db, owner.ID, "Quindici", testutil.WithContractEnd(period.AddDays(today, 15)))

	const hook = "test:fail_follow_up_15"
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register(hook, func(tx *gorm.DB) {
		n, ok := tx.Statement.Dest.(*domain.Notification)
		if ok && n.ClientID == broken.ID && n.Type == domain.NotificationFollowUp15 {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	result, err := f.svc.GenerateNotifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Evaluated)
	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 1, result.Failed)

	require.NoError(t, f.db.Callback().Create().Remove(hook))

	retry, err := f.svc.GenerateNotifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Created)
	assert.Zero(t, retry.Failed)
}

func TestNotificationService_ListRequiresUser(t *testing.T) {
	f := setupNotificationService(t)

	_, err := f.svc.ListForCurrentUser(context.Background(), false)
	assert.ErrorIs(t, err, service.ErrUserContextRequired)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	f := setupNotificationService(t)
	owner := testutil.CreateTestUser(t, f.db, domain.UserRoleSales)
	other := testutil.CreateTestUser(t, f.db, domain.UserRoleSales)
	testutil.CreateTestClient(t, f.db, owner.ID, "Acme", testutil.WithContractEnd(period.Civil(2025, 3, 10)))

	_, err := f.svc.GenerateNotifications(context.Background())
	require.NoError(t, err)

	ctx := testutil.UserContext(owner)
	list, err := f.svc.ListForCurrentUser(ctx, true)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	id := list[0].ID

	_, err = f.svc.MarkAsRead(testutil.UserContext(other), id)
	assert.ErrorIs(t, err, service.ErrNotificationNotFound)

	first, err := f.svc.MarkAsRead(ctx, id)
	require.NoError(t, err)
	assert.True(t, first.Read)
	assert.Equal(t, domain.NotificationRead, first.Status)

	second, err := f.svc.MarkAsRead(ctx, id)
	require.NoError(t, err)
	assert.True(t, second.Read)

	unread, err := f.svc.ListForCurrentUser(ctx, true)
	require.NoError(t, err)
	assert.Len(t, unread, len(list)-1)

	_, err = f.svc.MarkAsRead(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotificationNotFound)
}

func TestNotificationService_GetCounts(t *testing.T) {
	f := setupNotificationService(t)
	owner := testutil.CreateTestUser(t, f.db, domain.UserRoleOwner)
	today := period.Civil(2025, 3, 1)
	testutil.CreateTestClient(t, f.db, owner.ID, "A", testutil.WithContractEnd(period.AddDays(today, 14)))
	testutil.CreateTestClient(t, f.db, owner.ID, "B", testutil.WithContractEnd(period.AddDays(today, 59)))
	testutil.CreateTestClient(t, f.db, owner.ID, "C", testutil.WithContractEnd(period.AddDays(today, 120)))

	_, err := f.svc.GenerateNotifications(context.Background())
	require.NoError(t, err)

	counts := f.svc.GetCounts(testutil.UserContext(owner))
	assert.Equal(t, 3, counts.Pending)
	assert.Equal(t, 2, counts.ExpiringSoon)

	total, err := f.svc.PendingTotal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestNotificationService_GetCounts_RemindersDisabled(t *testing.T) {
	f := setupNotificationService(t)
	owner := testutil.CreateTestUser(t, f.db, domain.UserRoleOwner)
	today := period.Civil(2025, 3, 1)
	quiet := testutil.CreateTestClient(t, f.db, owner.ID, "Silenzioso", testutil.WithContractEnd(period.AddDays(today, 10)))
	require.NoError(t, f.db.Model(quiet).Update("notifiche_attive", false).Error)

	result, err := f.svc.GenerateNotifications(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Created)

	counts := f.svc.GetCounts(testutil.UserContext(owner))
	assert.Zero(t, counts.Pending)
	assert.Equal(t, 1, counts.ExpiringSoon)
}

func TestNotificationService_MarkManyAsRead(t *testing.T) {
	f := setupNotificationService(t)
	owner := testutil.CreateTestUser(t, f.db, domain.UserRoleOwner)
	testutil.CreateTestClient(t, f.db, owner.ID, "A", testutil.WithContractEnd(period.Civil(2025, 3, 10)))

	_, err := f.svc.GenerateNotifications(context.Background())
	require.NoError(t, err)

	ctx := testutil.UserContext(owner)
	list, err := f.svc.ListForCurrentUser(ctx, true)
	require.NoError(t, err)
	require.Len(t, list, 3)

	updated, err := f.svc.MarkManyAsRead(ctx, []uuid.UUID{list[0].ID, list[1].ID})
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Len(t, f.svc.ListPending(ctx), 1)
}

func TestNotificationService_DeliverDue(t *testing.T) {
	f := setupNotificationService(t)
	owner := testutil.CreateTestUser(t, f.db, domain.UserRoleSales)
	testutil.CreateTestClient(t, f.db, owner.ID, "Acme", testutil.WithContractEnd(period.Civil(2025, 3, 20)))

	_, err := f.svc.GenerateNotifications(context.Background())
	require.NoError(t, err)

	result, err := f.svc.DeliverDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Zero(t, result.Failed)

	sent := f.mail.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, owner.Email, sent[0].To)
	assert.Contains(t, sent[0].Subject, "Acme")
	assert.Contains(t, sent[0].Body, "Mancano 19 giorni")

	again, err := f.svc.DeliverDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Sent)
	assert.Len(t, f.mail.Sent(), 2)
}

func TestNotificationService_DeliverDue_FailureKeepsReminder(t *testing.T) {
	f := setupNotificationService(t)
	owner := testutil.CreateTestUser(t, f.db, domain.UserRoleSales)
	testutil.CreateTestClient(t, f.db, owner.ID, "Acme", testutil.WithContractEnd(period.Civil(2025, 3, 10)))

	_, err := f.svc.GenerateNotifications(context.Background())
	require.NoError(t, err)

	f.mail.Fail = func(mailer.Message) error { return errors.New("smtp down") }
	result, err := f.svc.DeliverDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Sent)
	assert.Equal(t, 3, result.Failed)

	f.mail.Fail = nil
	result, err = f.svc.DeliverDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Sent)
}

func TestNotificationService_DeliverDue_MailDisabled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewClientRepository(db),
		repository.NewUserRepository(db),
		mailer.NoopMailer{},
		service.FixedClock(testNow, time.UTC),
		nil,
		zap.NewNop(),
	)

	result, err := svc.DeliverDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Sent)
}
