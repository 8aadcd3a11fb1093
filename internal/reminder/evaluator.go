// Package reminder decides which contract expiry reminders are due.
//
// It is pure: callers pass in the clients, the reminders that already exist
// and the current calendar date, and get back the reminders to store.
package reminder

import (
	"fmt"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Rule is one reminder threshold, DaysBefore days ahead of the contract end
type Rule struct {
	Type       domain.NotificationType
	DaysBefore int
}

// DefaultRules are the 45, 30 and 15 day reminders
var DefaultRules = []Rule{
	{Type: domain.NotificationExpiry45, DaysBefore: 45},
	{Type: domain.NotificationReminder30, DaysBefore: 30},
	{Type: domain.NotificationFollowUp15, DaysBefore: 15},
}

// Key identifies a reminder; at most one exists per key
type Key struct {
	ClientID uuid.UUID
	Type     domain.NotificationType
}

// KeyOf returns the key of a stored reminder
func KeyOf(n *domain.Notification) Key {
	return Key{ClientID: n.ClientID, Type: n.Type}
}

// ContractEnd returns the contract end date of a client, if set
func ContractEnd(c *domain.Client) (time.Time, bool) {
	if c == nil || c.ContractEnd == nil {
		return time.Time{}, false
	}
	end := time.Time(*c.ContractEnd)
	if end.IsZero() {
		return time.Time{}, false
	}
	return period.AsDate(end), true
}

// IsEligible reports whether reminders are generated for the client
func IsEligible(c *domain.Client) bool {
	if c == nil || c.ID == uuid.Nil || !c.RemindersEnabled {
		return false
	}
	_, ok := ContractEnd(c)
	return ok
}

// DueDate is the first day on which the reminder is due
func DueDate(contractEnd time.Time, rule Rule) time.Time {
	return period.AddDays(contractEnd, -rule.DaysBefore)
}

// IsDue reports whether today is on or after the due date.
// Reminders stay due after the contract end date.
func IsDue(contractEnd time.Time, rule Rule, today time.Time) bool {
	return !period.AsDate(today).Before(DueDate(contractEnd, rule))
}

// DaysRemaining is the number of days from today to the contract end,
// negative once the contract has expired
func DaysRemaining(contractEnd, today time.Time) int {
	return period.DaysBetween(today, contractEnd)
}

// StatusOf derives the lifecycle state of a stored reminder
func StatusOf(n *domain.Notification, today time.Time) domain.NotificationStatus {
	if n.Read {
		return domain.NotificationRead
	}
	if period.AsDate(today).Before(period.AsDate(time.Time(n.NotifyOn))) {
		return domain.NotificationNotYetDue
	}
	return domain.NotificationPending
}

// Evaluator applies a set of rules to clients
type Evaluator struct {
	rules []Rule
}

// NewEvaluator creates an evaluator; without rules it uses DefaultRules
func NewEvaluator(rules ...Rule) *Evaluator {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Evaluator{rules: rules}
}

// Evaluate returns the reminders that are due today and not yet in existing.
// Clients that are not eligible are skipped. The result never holds two
// reminders with the same key, even if clients repeats a client.
func (e *Evaluator) Evaluate(clients []domain.Client, existing []domain.Notification, today time.Time) []domain.Notification {
	seen := make(map[Key]struct{}, len(existing))
	for i := range existing {
		seen[KeyOf(&existing[i])] = struct{}{}
	}

	today = period.AsDate(today)
	var created []domain.Notification
	for i := range clients {
		c := &clients[i]
		if !IsEligible(c) {
			continue
		}
		end, _ := ContractEnd(c)

		for _, rule := range e.rules {
			if !IsDue(end, rule, today) {
				continue
			}
			key := Key{ClientID: c.ID, Type: rule.Type}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			created = append(created, domain.Notification{
				ClientID:    c.ID,
				Type:        rule.Type,
				NotifyOn:    datatypes.Date(DueDate(end, rule)),
				ContractEnd: datatypes.Date(end),
				Message:     Message(c, rule, end),
				UserID:      c.UserID,
			})
		}
	}
	return created
}

// EvaluateDueNotifications runs the default rules
func EvaluateDueNotifications(clients []domain.Client, existing []domain.Notification, today time.Time) []domain.Notification {
	return NewEvaluator().Evaluate(clients, existing, today)
}

// Message builds the reminder text shown to the user and sent by e-mail
func Message(c *domain.Client, rule Rule, contractEnd time.Time) string {
	date := contractEnd.Format("02/01/2006")

	var msg string
	switch rule.Type {
	case domain.NotificationExpiry45:
		msg = fmt.Sprintf("Il contratto con %s scade il %s. Mancano %d giorni: valuta il rinnovo.", c.CompanyName, date, rule.DaysBefore)
	case domain.NotificationReminder30:
		msg = fmt.Sprintf("Promemoria: il contratto con %s scade il %s (avviso a %d giorni).", c.CompanyName, date, rule.DaysBefore)
	case domain.NotificationFollowUp15:
		msg = fmt.Sprintf("Sollecito: il contratto con %s scade il %s. Restano %d giorni per il rinnovo.", c.CompanyName, date, rule.DaysBefore)
	default:
		msg = fmt.Sprintf("Il contratto con %s scade il %s.", c.CompanyName, date)
	}

	if c.AutoRenewal {
		msg += " Rinnovo automatico attivo."
	}
	return msg
}
