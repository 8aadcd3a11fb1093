// Package reporting computes dashboard statistics and revenue reports from
// in-memory snapshots of clients, deals and activities.
//
// Deal opening dates are calendar dates and are bucketed as stored.
// The aggregator location only decides what "now" means: the current week,
// the current month and the trailing months of the trend.
package reporting

import (
	"sort"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregator computes statistics relative to a time zone
type Aggregator struct {
	loc *time.Location
}

// NewAggregator creates an aggregator; a nil location means UTC
func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{loc: loc}
}

// ComputeDashboardStats aggregates in UTC
func ComputeDashboardStats(clients []domain.Client, deals []domain.Deal, activities []domain.Activity, counts domain.NotificationCounts, now time.Time) domain.DashboardStats {
	return NewAggregator(time.UTC).DashboardStats(clients, deals, activities, counts, now)
}

// DashboardStats builds the dashboard summary. Empty inputs give zero counts
// and nil best-of fields.
func (a *Aggregator) DashboardStats(clients []domain.Client, deals []domain.Deal, activities []domain.Activity, counts domain.NotificationCounts, now time.Time) domain.DashboardStats {
	stats := domain.DashboardStats{
		TotalClients:          len(clients),
		TotalDealValue:        decimal.Zero,
		PendingNotifications:  counts.Pending,
		ContractsExpiringSoon: counts.ExpiringSoon,
	}

	for i := range deals {
		switch deals[i].Status {
		case domain.DealStatusInProgress:
			stats.ActiveDeals++
			stats.TotalDealValue = stats.TotalDealValue.Add(deals[i].EstimatedValue)
		case domain.DealStatusWon:
			stats.WonDeals++
		case domain.DealStatusLost:
			stats.LostDeals++
		}
	}

	weekStart := period.WeekStart(now.In(a.loc))
	for i := range activities {
		if !activities[i].OccurredAt.Before(weekStart) {
			stats.ThisWeekActivities++
		}
	}

	won := wonDealsWithClient(clients, deals)
	stats.BestClientByRevenue = bestClientByRevenue(won)
	stats.BestClientByContractDuration = bestClientByContractDuration(clients)
	stats.BestSalesPerformance = bestSalesPerformance(won)

	return stats
}

// wonDeal is a won deal joined with the name of its client
type wonDeal struct {
	deal       *domain.Deal
	clientName string
}

// wonDealsWithClient keeps won deals whose client can be resolved, either
// from the preloaded association or from the client list
func wonDealsWithClient(clients []domain.Client, deals []domain.Deal) []wonDeal {
	names := clientNames(clients)
	var out []wonDeal
	for i := range deals {
		d := &deals[i]
		if d.Status != domain.DealStatusWon {
			continue
		}
		name := resolveClientName(d, names)
		if name == "" {
			continue
		}
		out = append(out, wonDeal{deal: d, clientName: name})
	}
	return out
}

func clientNames(clients []domain.Client) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(clients))
	for i := range clients {
		names[clients[i].ID] = clients[i].CompanyName
	}
	return names
}

func resolveClientName(d *domain.Deal, names map[uuid.UUID]string) string {
	if d.Client != nil && d.Client.CompanyName != "" {
		return d.Client.CompanyName
	}
	return names[d.ClientID]
}

// bestClientByRevenue sums won deals per client name and picks the highest
// positive total; ties go to the alphabetically first name
func bestClientByRevenue(won []wonDeal) *domain.ClientRevenueBest {
	totals := make(map[string]decimal.Decimal)
	for _, w := range won {
		totals[w.clientName] = totals[w.clientName].Add(w.deal.EstimatedValue)
	}

	var best *domain.ClientRevenueBest
	for name, total := range totals {
		if !total.IsPositive() {
			continue
		}
		if best == nil || total.GreaterThan(best.TotalRevenue) ||
			(total.Equal(best.TotalRevenue) && name < best.CompanyName) {
			best = &domain.ClientRevenueBest{CompanyName: name, TotalRevenue: total}
		}
	}
	return best
}

// bestClientByContractDuration picks the longest contract in months among
// clients that have one; ties go to the alphabetically first name
func bestClientByContractDuration(clients []domain.Client) *domain.ClientDurationBest {
	var best *domain.ClientDurationBest
	for i := range clients {
		c := &clients[i]
		if c.ContractMonths == nil {
			continue
		}
		months := *c.ContractMonths
		if best == nil || months > best.ContractDurationMonths ||
			(months == best.ContractDurationMonths && c.CompanyName < best.CompanyName) {
			best = &domain.ClientDurationBest{CompanyName: c.CompanyName, ContractDurationMonths: months}
		}
	}
	return best
}

// bestSalesPerformance is nil without won deals. The best month is ranked by
// value and the best day by number of deals.
func bestSalesPerformance(won []wonDeal) *domain.SalesPerformance {
	if len(won) == 0 {
		return nil
	}
	return &domain.SalesPerformance{
		BestMonth:   bestMonth(won),
		BestDay:     bestDay(won),
		BiggestDeal: biggestDeal(won),
	}
}

func bestMonth(won []wonDeal) *domain.BestMonth {
	months := make(map[string]*domain.BestMonth)
	for _, w := range won {
		key := period.MonthKey(dealDate(w.deal))
		m, ok := months[key]
		if !ok {
			m = &domain.BestMonth{Month: key, TotalValue: decimal.Zero}
			months[key] = m
		}
		m.DealsCount++
		m.TotalValue = m.TotalValue.Add(w.deal.EstimatedValue)
	}

	var best *domain.BestMonth
	for _, m := range months {
		if !m.TotalValue.IsPositive() {
			continue
		}
		if best == nil || m.TotalValue.GreaterThan(best.TotalValue) ||
			(m.TotalValue.Equal(best.TotalValue) && m.Month < best.Month) {
			best = m
		}
	}
	return best
}

func bestDay(won []wonDeal) *domain.BestDay {
	days := make(map[string]int)
	for _, w := range won {
		days[period.DayKey(dealDate(w.deal))]++
	}

	var best *domain.BestDay
	for day, count := range days {
		if best == nil || count > best.DealsCount || (count == best.DealsCount && day < best.Date) {
			best = &domain.BestDay{Date: day, DealsCount: count}
		}
	}
	return best
}

// biggestDeal ignores deals without a positive value; ties go to the earliest
// opened deal, then to the subject
func biggestDeal(won []wonDeal) *domain.BiggestDeal {
	var best *wonDeal
	for i := range won {
		w := &won[i]
		if !w.deal.EstimatedValue.IsPositive() {
			continue
		}
		if best == nil || w.deal.EstimatedValue.GreaterThan(best.deal.EstimatedValue) ||
			(w.deal.EstimatedValue.Equal(best.deal.EstimatedValue) && earlier(w.deal, best.deal)) {
			best = w
		}
	}
	if best == nil {
		return nil
	}
	return &domain.BiggestDeal{
		Subject:        best.deal.Subject,
		EstimatedValue: best.deal.EstimatedValue,
		ClientName:     best.clientName,
	}
}

func earlier(a, b *domain.Deal) bool {
	da, db := dealDate(a), dealDate(b)
	if !da.Equal(db) {
		return da.Before(db)
	}
	return a.Subject < b.Subject
}

// dealDate is the calendar date a deal was opened
func dealDate(d *domain.Deal) time.Time {
	return period.AsDate(d.OpenedOn.UTC())
}

func sortByPeriod(buckets []domain.PeriodRevenue) {
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Period < buckets[j].Period })
}
