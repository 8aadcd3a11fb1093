package domain

import "github.com/shopspring/decimal"

// DashboardStats is recomputed on every request and never stored.
// The pointer fields are nil when there is no data to pick a best from.
type DashboardStats struct {
	TotalClients          int             `json:"total_clients"`
	ActiveDeals           int             `json:"active_deals"`
	WonDeals              int             `json:"won_deals"`
	LostDeals             int             `json:"lost_deals"`
	TotalDealValue        decimal.Decimal `json:"total_deal_value"`
	ThisWeekActivities    int             `json:"this_week_activities"`
	PendingNotifications  int             `json:"pending_notifications"`
	ContractsExpiringSoon int             `json:"contracts_expiring_soon"`

	BestClientByRevenue          *ClientRevenueBest  `json:"best_client_by_revenue,omitempty"`
	BestClientByContractDuration *ClientDurationBest `json:"best_client_by_contract_duration,omitempty"`
	BestSalesPerformance         *SalesPerformance   `json:"best_sales_performance,omitempty"`
}

type ClientRevenueBest struct {
	CompanyName  string          `json:"nome_azienda"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type ClientDurationBest struct {
	CompanyName            string `json:"nome_azienda"`
	ContractDurationMonths int    `json:"contract_duration_months"`
}

// SalesPerformance groups the best month, day and deal among won deals
type SalesPerformance struct {
	BestMonth   *BestMonth   `json:"best_month,omitempty"`
	BestDay     *BestDay     `json:"best_day,omitempty"`
	BiggestDeal *BiggestDeal `json:"biggest_deal,omitempty"`
}

// BestMonth is ranked by summed value
type BestMonth struct {
	Month      string          `json:"month"`
	DealsCount int             `json:"deals_count"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// BestDay is ranked by number of won deals, not by value
type BestDay struct {
	Date       string `json:"date"`
	DealsCount int    `json:"deals_count"`
}

type BiggestDeal struct {
	Subject        string          `json:"oggetto_trattativa"`
	EstimatedValue decimal.Decimal `json:"valore_stimato"`
	ClientName     string          `json:"client_name"`
}

// PeriodRevenue is won revenue in one month or quarter bucket
type PeriodRevenue struct {
	Period     string          `json:"period"`
	Label      string          `json:"label"`
	Revenue    decimal.Decimal `json:"revenue"`
	DealsCount int             `json:"deals_count"`
}

// ClientRevenue is won revenue of one client
type ClientRevenue struct {
	CompanyName string          `json:"nome_azienda"`
	Revenue     decimal.Decimal `json:"revenue"`
	DealsCount  int             `json:"deals_count"`
	AverageDeal decimal.Decimal `json:"average_deal"`
}

// StatusBreakdown counts deals and value per deal status
type StatusBreakdown struct {
	Status DealStatus      `json:"status"`
	Count  int             `json:"count"`
	Value  decimal.Decimal `json:"value"`
}

// RevenueReport backs the reports page
type RevenueReport struct {
	Year                int               `json:"year"`
	TotalRevenue        decimal.Decimal   `json:"total_revenue"`
	CurrentMonthRevenue decimal.Decimal   `json:"current_month_revenue"`
	WonDeals            int               `json:"won_deals"`
	ConversionRate      int               `json:"conversion_rate"`
	AverageDealValue    decimal.Decimal   `json:"average_deal_value"`
	ActivitiesThisMonth int               `json:"activities_this_month"`
	QuarterlyRevenue    []PeriodRevenue   `json:"quarterly_revenue"`
	MonthlyTrend        []PeriodRevenue   `json:"monthly_trend"`
	ValueByMonth        []PeriodRevenue   `json:"value_by_month"`
	RevenueByClient     []ClientRevenue   `json:"revenue_by_client"`
	DealsByStatus       []StatusBreakdown `json:"deals_by_status"`
}
