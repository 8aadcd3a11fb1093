package reminder_test

import (
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/gestionale-crm/crm-api/internal/reminder"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var today = period.Civil(2025, 3, 1)

func trackedClient(name string, daysToExpiry int) domain.Client {
	end := datatypes.Date(period.AddDays(today, daysToExpiry))
	return domain.Client{
		BaseModel:        domain.BaseModel{ID: uuid.New()},
		CompanyName:      name,
		ContractEnd:      &end,
		RemindersEnabled: true,
		UserID:           uuid.New(),
	}
}

func typesOf(ns []domain.Notification) []domain.NotificationType {
	out := make([]domain.NotificationType, len(ns))
	for i, n := range ns {
		out[i] = n.Type
	}
	return out
}

func TestEvaluate_Thresholds(t *testing.T) {
	tests := []struct {
		name string
		days int
		want []domain.NotificationType
	}{
		{"46 days out nothing is due", 46, nil},
		{"45 days out only the first reminder", 45, []domain.NotificationType{domain.NotificationExpiry45}},
		{"44 days out the first reminder", 44, []domain.NotificationType{domain.NotificationExpiry45}},
		{"30 days out two reminders", 30, []domain.NotificationType{domain.NotificationExpiry45, domain.NotificationReminder30}},
		{"15 days out all reminders", 15, []domain.NotificationType{domain.NotificationExpiry45, domain.NotificationReminder30, domain.NotificationFollowUp15}},
		{"expired contracts still get reminders", -3, []domain.NotificationType{domain.NotificationExpiry45, domain.NotificationReminder30, domain.NotificationFollowUp15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := trackedClient("Acme", tt.days)
			got := reminder.EvaluateDueNotifications([]domain.Client{c}, nil, today)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, typesOf(got))
		})
	}
}

func TestEvaluate_NotificationFields(t *testing.T) {
	c := trackedClient("Rossi S.r.l.", 40)
	got := reminder.EvaluateDueNotifications([]domain.Client{c}, nil, today)
	require.Len(t, got, 1)

	n := got[0]
	assert.Equal(t, c.ID, n.ClientID)
	assert.Equal(t, c.UserID, n.UserID)
	assert.Equal(t, domain.NotificationExpiry45, n.Type)
	assert.Equal(t, period.AddDays(today, 40), time.Time(n.ContractEnd))
	assert.Equal(t, period.AddDays(today, -5), time.Time(n.NotifyOn))
	assert.False(t, n.Read)
	assert.False(t, n.Delivered)
	assert.Contains(t, n.Message, "Rossi S.r.l.")
	assert.Contains(t, n.Message, "10/04/2025")
}

func TestEvaluate_SkipsIneligibleClients(t *testing.T) {
	disabled := trackedClient("Disabled", 10)
	disabled.RemindersEnabled = false

	noExpiry := trackedClient("NoExpiry", 10)
	noExpiry.ContractEnd = nil

	zeroExpiry := trackedClient("ZeroExpiry", 10)
	zero := datatypes.Date(time.Time{})
	zeroExpiry.ContractEnd = &zero

	noID := trackedClient("NoID", 10)
	noID.ID = uuid.Nil

	valid := trackedClient("Valid", 10)

	got := reminder.EvaluateDueNotifications(
		[]domain.Client{disabled, noExpiry, zeroExpiry, noID, valid}, nil, today)

	require.Len(t, got, 3)
	for _, n := range got {
		assert.Equal(t, valid.ID, n.ClientID)
	}
}

func TestEvaluate_IsIdempotent(t *testing.T) {
	c := trackedClient("Acme", 20)
	first := reminder.EvaluateDueNotifications([]domain.Client{c}, nil, today)
	require.Len(t, first, 2)

	second := reminder.EvaluateDueNotifications([]domain.Client{c}, first, today)
	assert.Empty(t, second)

	// a day later the 15 day reminder is still not due
	third := reminder.EvaluateDueNotifications([]domain.Client{c}, first, period.AddDays(today, 1))
	assert.Empty(t, third)

	// five days later it is, and only it is returned
	later := reminder.EvaluateDueNotifications([]domain.Client{c}, first, period.AddDays(today, 5))
	assert.Equal(t, []domain.NotificationType{domain.NotificationFollowUp15}, typesOf(later))
}

func TestEvaluate_DeduplicatesWithinBatch(t *testing.T) {
	c := trackedClient("Acme", 10)
	got := reminder.EvaluateDueNotifications([]domain.Client{c, c}, nil, today)
	assert.Len(t, got, 3)
}

func TestEvaluate_IgnoresClockOfToday(t *testing.T) {
	c := trackedClient("Acme", 45)
	lateEvening := today.Add(23*time.Hour + 59*time.Minute)
	got := reminder.EvaluateDueNotifications([]domain.Client{c}, nil, lateEvening)
	assert.Equal(t, []domain.NotificationType{domain.NotificationExpiry45}, typesOf(got))
}

func TestDaysRemaining(t *testing.T) {
	end := period.Civil(2025, 3, 31)
	assert.Equal(t, 30, reminder.DaysRemaining(end, today))
	assert.Equal(t, 0, reminder.DaysRemaining(end, end))
	assert.Equal(t, -2, reminder.DaysRemaining(end, period.Civil(2025, 4, 2)))
}

func TestStatusOf(t *testing.T) {
	n := &domain.Notification{NotifyOn: datatypes.Date(period.Civil(2025, 3, 10))}

	assert.Equal(t, domain.NotificationNotYetDue, reminder.StatusOf(n, today))
	assert.Equal(t, domain.NotificationPending, reminder.StatusOf(n, period.Civil(2025, 3, 10)))
	assert.Equal(t, domain.NotificationPending, reminder.StatusOf(n, period.Civil(2025, 4, 1)))

	n.Read = true
	assert.Equal(t, domain.NotificationRead, reminder.StatusOf(n, today))
}

func TestMessage_AutoRenewal(t *testing.T) {
	c := trackedClient("Bianchi", 15)
	c.AutoRenewal = true
	rule := reminder.DefaultRules[2]
	require.Equal(t, domain.NotificationFollowUp15, rule.Type)

	msg := reminder.Message(&c, rule, period.Civil(2025, 3, 16))
	assert.Contains(t, msg, "Sollecito")
	assert.Contains(t, msg, "16/03/2025")
	assert.Contains(t, msg, "Rinnovo automatico attivo")
}

func TestNewEvaluator_CustomRules(t *testing.T) {
	e := reminder.NewEvaluator(reminder.Rule{Type: domain.NotificationFollowUp15, DaysBefore: 7})
	c := trackedClient("Acme", 10)
	assert.Empty(t, e.Evaluate([]domain.Client{c}, nil, today))

	c = trackedClient("Acme", 7)
	got := e.Evaluate([]domain.Client{c}, nil, today)
	assert.Equal(t, []domain.NotificationType{domain.NotificationFollowUp15}, typesOf(got))
}
