package reporting_test

import (
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/gestionale-crm/crm-api/internal/reporting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func periods(buckets []domain.PeriodRevenue) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Period
	}
	return out
}

func TestQuarterlyRevenue_IsSparse(t *testing.T) {
	c := client("Acme")
	deals := []domain.Deal{
		deal(c, 100, domain.DealStatusWon, period.Civil(2025, 11, 3)),
		deal(c, 50, domain.DealStatusWon, period.Civil(2025, 2, 1)),
		deal(c, 25, domain.DealStatusWon, period.Civil(2025, 3, 31)),
		deal(c, 999, domain.DealStatusLost, period.Civil(2025, 5, 1)),
		deal(c, 999, domain.DealStatusWon, period.Civil(2024, 5, 1)),
	}

	got := reporting.QuarterlyRevenue(deals, 2025)
	require.Equal(t, []string{"Q1 2025", "Q4 2025"}, periods(got))
	assert.True(t, decimal.NewFromInt(75).Equal(got[0].Revenue))
	assert.Equal(t, 2, got[0].DealsCount)
	assert.True(t, decimal.NewFromInt(100).Equal(got[1].Revenue))

	assert.Empty(t, reporting.QuarterlyRevenue(nil, 2025))
}

func TestMonthlyRevenueTrend_IsZeroFilled(t *testing.T) {
	c := client("Acme")
	deals := []domain.Deal{
		deal(c, 100, domain.DealStatusWon, period.Civil(2024, 9, 10)),
		deal(c, 40, domain.DealStatusWon, period.Civil(2025, 1, 2)),
		deal(c, 60, domain.DealStatusWon, period.Civil(2025, 1, 20)),
		deal(c, 500, domain.DealStatusInProgress, period.Civil(2025, 1, 3)),
		deal(c, 700, domain.DealStatusWon, period.Civil(2024, 6, 1)),
	}

	got := reporting.NewAggregator(nil).MonthlyRevenueTrend(deals, now, 6)
	require.Len(t, got, 6)
	assert.Equal(t, []string{"2024-08", "2024-09", "2024-10", "2024-11", "2024-12", "2025-01"}, periods(got))
	assert.Equal(t, "ago 2024", got[0].Label)
	assert.Equal(t, "gen 2025", got[5].Label)

	assert.True(t, got[0].Revenue.IsZero())
	assert.True(t, decimal.NewFromInt(100).Equal(got[1].Revenue))
	assert.True(t, got[2].Revenue.IsZero())
	assert.True(t, decimal.NewFromInt(100).Equal(got[5].Revenue))
	assert.Equal(t, 2, got[5].DealsCount)

	empty := reporting.NewAggregator(nil).MonthlyRevenueTrend(nil, now, 6)
	require.Len(t, empty, 6)
	for _, b := range empty {
		assert.True(t, b.Revenue.IsZero())
	}
}

func TestValueByMonth_AllStatuses(t *testing.T) {
	c := client("Acme")
	deals := []domain.Deal{
		deal(c, 10, domain.DealStatusLost, period.Civil(2025, 1, 2)),
		deal(c, 20, domain.DealStatusWon, period.Civil(2024, 12, 2)),
		deal(c, 30, domain.DealStatusInProgress, period.Civil(2025, 1, 9)),
	}

	got := reporting.ValueByMonth(deals)
	require.Equal(t, []string{"2024-12", "2025-01"}, periods(got))
	assert.Equal(t, "dic 2024", got[0].Label)
	assert.True(t, decimal.NewFromInt(40).Equal(got[1].Revenue))
}

func TestRevenueByClient(t *testing.T) {
	a, b, c := client("Alfa"), client("Beta"), client("Gamma")
	deals := []domain.Deal{
		deal(a, 100, domain.DealStatusWon, period.Civil(2025, 1, 1)),
		deal(a, 50, domain.DealStatusWon, period.Civil(2025, 1, 2)),
		deal(b, 300, domain.DealStatusWon, period.Civil(2025, 1, 3)),
		deal(c, 400, domain.DealStatusLost, period.Civil(2025, 1, 3)),
		deal(c, 0, domain.DealStatusWon, period.Civil(2025, 1, 3)),
	}

	got := reporting.RevenueByClient([]domain.Client{a, b, c}, deals)
	require.Len(t, got, 2)
	assert.Equal(t, "Beta", got[0].CompanyName)
	assert.Equal(t, "Alfa", got[1].CompanyName)
	assert.Equal(t, 2, got[1].DealsCount)
	assert.True(t, decimal.NewFromInt(75).Equal(got[1].AverageDeal))
}

func TestDealsByStatus(t *testing.T) {
	c := client("Acme")
	deals := []domain.Deal{
		deal(c, 10, domain.DealStatusLost, period.Civil(2025, 1, 2)),
		deal(c, 20, domain.DealStatusWon, period.Civil(2024, 12, 2)),
		deal(c, 30, domain.DealStatusWon, period.Civil(2025, 1, 9)),
	}

	got := reporting.DealsByStatus(deals)
	require.Len(t, got, 3)
	assert.Equal(t, domain.DealStatusInProgress, got[0].Status)
	assert.Equal(t, 0, got[0].Count)
	assert.Equal(t, 2, got[1].Count)
	assert.True(t, decimal.NewFromInt(50).Equal(got[1].Value))
	assert.Equal(t, 1, got[2].Count)
}

func TestReport(t *testing.T) {
	c := client("Acme")
	deals := []domain.Deal{
		deal(c, 100, domain.DealStatusWon, period.Civil(2025, 1, 2)),
		deal(c, 200, domain.DealStatusWon, period.Civil(2024, 12, 20)),
		deal(c, 300, domain.DealStatusInProgress, period.Civil(2025, 1, 3)),
	}

	activities := []domain.Activity{
		{OccurredAt: time.Date(2025, 1, 3, 11, 0, 0, 0, time.UTC)},
		{OccurredAt: time.Date(2024, 1, 20, 11, 0, 0, 0, time.UTC)}, // same month, previous year
		{OccurredAt: time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)},
	}

	report := reporting.NewAggregator(time.UTC).Report([]domain.Client{c}, deals, activities, now, 0)

	assert.Equal(t, 2025, report.Year)
	assert.Equal(t, 2, report.WonDeals)
	assert.True(t, decimal.NewFromInt(300).Equal(report.TotalRevenue))
	assert.True(t, decimal.NewFromInt(100).Equal(report.CurrentMonthRevenue))
	assert.Equal(t, []string{"Q1 2025"}, periods(report.QuarterlyRevenue))
	assert.Len(t, report.MonthlyTrend, reporting.DefaultTrendMonths)
	assert.Len(t, report.RevenueByClient, 1)
	assert.Len(t, report.DealsByStatus, 3)
	assert.Equal(t, 67, report.ConversionRate)
	assert.True(t, decimal.NewFromInt(200).Equal(report.AverageDealValue))
	assert.Equal(t, 1, report.ActivitiesThisMonth)
}

func TestReport_Empty(t *testing.T) {
	report := reporting.NewAggregator(time.UTC).Report(nil, nil, nil, now, 0)

	assert.Equal(t, 0, report.WonDeals)
	assert.Equal(t, 0, report.ConversionRate)
	assert.True(t, report.AverageDealValue.IsZero())
	assert.Equal(t, 0, report.ActivitiesThisMonth)
	assert.True(t, report.TotalRevenue.IsZero())
	assert.Len(t, report.MonthlyTrend, reporting.DefaultTrendMonths)
}

func TestConversionRate(t *testing.T) {
	tests := []struct {
		won, total int
		want       int
	}{
		{0, 0, 0},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{5, 5, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, reporting.ConversionRate(tt.won, tt.total), "%d/%d", tt.won, tt.total)
	}
}

func TestFormatEuro(t *testing.T) {
	assert.Equal(t, "€ 0,00", reporting.FormatEuro(decimal.Zero))
	assert.Equal(t, "€ 999,90", reporting.FormatEuro(decimal.RequireFromString("999.9")))
	assert.Equal(t, "€ 1.234,50", reporting.FormatEuro(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "€ 1.000.000,00", reporting.FormatEuro(decimal.NewFromInt(1000000)))
	assert.Equal(t, "-€ 12,00", reporting.FormatEuro(decimal.NewFromInt(-12)))
}
