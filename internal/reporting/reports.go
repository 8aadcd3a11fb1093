package reporting

import (
	"fmt"
	"sort"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTrendMonths is the length of the trailing revenue trend
const DefaultTrendMonths = 6

// Report builds the full revenue report for the year of now
func (a *Aggregator) Report(clients []domain.Client, deals []domain.Deal, activities []domain.Activity, now time.Time, trendMonths int) domain.RevenueReport {
	if trendMonths <= 0 {
		trendMonths = DefaultTrendMonths
	}
	local := now.In(a.loc)

	won := 0
	for i := range deals {
		if deals[i].Status == domain.DealStatusWon {
			won++
		}
	}

	monthActivities := 0
	for i := range activities {
		if period.SameMonth(activities[i].OccurredAt.In(a.loc), local) {
			monthActivities++
		}
	}

	return domain.RevenueReport{
		Year:                local.Year(),
		TotalRevenue:        TotalRevenue(deals),
		CurrentMonthRevenue: a.CurrentMonthRevenue(deals, now),
		WonDeals:            won,
		ConversionRate:      ConversionRate(won, len(deals)),
		AverageDealValue:    AverageDealValue(deals),
		ActivitiesThisMonth: monthActivities,
		QuarterlyRevenue:    QuarterlyRevenue(deals, local.Year()),
		MonthlyTrend:        a.MonthlyRevenueTrend(deals, now, trendMonths),
		ValueByMonth:        ValueByMonth(deals),
		RevenueByClient:     RevenueByClient(clients, deals),
		DealsByStatus:       DealsByStatus(deals),
	}
}

// TotalRevenue sums the value of won deals
func TotalRevenue(deals []domain.Deal) decimal.Decimal {
	total := decimal.Zero
	for i := range deals {
		if deals[i].Status == domain.DealStatusWon {
			total = total.Add(deals[i].EstimatedValue)
		}
	}
	return total
}

// ConversionRate is the rounded percentage of won deals over all deals
func ConversionRate(won, total int) int {
	if total == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(won * 100)).DivRound(decimal.NewFromInt(int64(total)), 0).IntPart())
}

// AverageDealValue is the mean value of all deals, whatever their status
func AverageDealValue(deals []domain.Deal) decimal.Decimal {
	if len(deals) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for i := range deals {
		sum = sum.Add(deals[i].EstimatedValue)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(deals))), 2)
}

// CurrentMonthRevenue sums won deals opened in the current month
func (a *Aggregator) CurrentMonthRevenue(deals []domain.Deal, now time.Time) decimal.Decimal {
	local := now.In(a.loc)
	total := decimal.Zero
	for i := range deals {
		d := &deals[i]
		if d.Status == domain.DealStatusWon && period.SameMonth(dealDate(d), local) {
			total = total.Add(d.EstimatedValue)
		}
	}
	return total
}

// QuarterlyRevenue buckets won deals of the given year by quarter. Only
// quarters with at least one won deal are returned, in calendar order.
func QuarterlyRevenue(deals []domain.Deal, year int) []domain.PeriodRevenue {
	var quarters [4]*domain.PeriodRevenue
	for i := range deals {
		d := &deals[i]
		if d.Status != domain.DealStatusWon {
			continue
		}
		date := dealDate(d)
		if date.Year() != year {
			continue
		}
		q := period.Quarter(date) - 1
		if quarters[q] == nil {
			key := period.QuarterKey(date)
			quarters[q] = &domain.PeriodRevenue{Period: key, Label: key, Revenue: decimal.Zero}
		}
		quarters[q].Revenue = quarters[q].Revenue.Add(d.EstimatedValue)
		quarters[q].DealsCount++
	}

	out := make([]domain.PeriodRevenue, 0, 4)
	for _, q := range quarters {
		if q != nil {
			out = append(out, *q)
		}
	}
	return out
}

// MonthlyRevenueTrend returns won revenue for each of the last n months,
// including months without revenue
func (a *Aggregator) MonthlyRevenueTrend(deals []domain.Deal, now time.Time, n int) []domain.PeriodRevenue {
	months := period.TrailingMonths(now.In(a.loc), n)
	out := make([]domain.PeriodRevenue, len(months))
	index := make(map[string]int, len(months))
	for i, m := range months {
		key := period.MonthKey(m)
		index[key] = i
		out[i] = domain.PeriodRevenue{Period: key, Label: period.MonthLabel(m), Revenue: decimal.Zero}
	}

	for i := range deals {
		d := &deals[i]
		if d.Status != domain.DealStatusWon {
			continue
		}
		if j, ok := index[period.MonthKey(dealDate(d))]; ok {
			out[j].Revenue = out[j].Revenue.Add(d.EstimatedValue)
			out[j].DealsCount++
		}
	}
	return out
}

// ValueByMonth sums the value of all deals, whatever their status, per month
func ValueByMonth(deals []domain.Deal) []domain.PeriodRevenue {
	buckets := make(map[string]*domain.PeriodRevenue)
	for i := range deals {
		d := &deals[i]
		date := dealDate(d)
		key := period.MonthKey(date)
		b, ok := buckets[key]
		if !ok {
			b = &domain.PeriodRevenue{Period: key, Label: period.MonthLabel(date), Revenue: decimal.Zero}
			buckets[key] = b
		}
		b.Revenue = b.Revenue.Add(d.EstimatedValue)
		b.DealsCount++
	}

	out := make([]domain.PeriodRevenue, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sortByPeriod(out)
	return out
}

// RevenueByClient lists clients with positive won revenue, highest first
func RevenueByClient(clients []domain.Client, deals []domain.Deal) []domain.ClientRevenue {
	names := clientNames(clients)
	type acc struct {
		name    string
		revenue decimal.Decimal
		count   int
	}
	byClient := make(map[uuid.UUID]*acc)

	for i := range deals {
		d := &deals[i]
		if d.Status != domain.DealStatusWon {
			continue
		}
		name := resolveClientName(d, names)
		if name == "" {
			continue
		}
		a, ok := byClient[d.ClientID]
		if !ok {
			a = &acc{name: name, revenue: decimal.Zero}
			byClient[d.ClientID] = a
		}
		a.revenue = a.revenue.Add(d.EstimatedValue)
		a.count++
	}

	out := make([]domain.ClientRevenue, 0, len(byClient))
	for _, a := range byClient {
		if !a.revenue.IsPositive() {
			continue
		}
		out = append(out, domain.ClientRevenue{
			CompanyName: a.name,
			Revenue:     a.revenue,
			DealsCount:  a.count,
			AverageDeal: a.revenue.DivRound(decimal.NewFromInt(int64(a.count)), 2),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].CompanyName < out[j].CompanyName
	})
	return out
}

// DealsByStatus counts deals and value for each deal status, always in the
// order in_corso, vinta, persa
func DealsByStatus(deals []domain.Deal) []domain.StatusBreakdown {
	out := []domain.StatusBreakdown{
		{Status: domain.DealStatusInProgress, Value: decimal.Zero},
		{Status: domain.DealStatusWon, Value: decimal.Zero},
		{Status: domain.DealStatusLost, Value: decimal.Zero},
	}
	for i := range deals {
		for j := range out {
			if out[j].Status == deals[i].Status {
				out[j].Count++
				out[j].Value = out[j].Value.Add(deals[i].EstimatedValue)
			}
		}
	}
	return out
}

// FormatEuro renders an amount the way Italian reports show it, e.g. "€ 1.234,50"
func FormatEuro(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	var grouped []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, c)
	}

	sign := ""
	if v.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%s€ %s,%s", sign, grouped, frac)
}
