package model

import "github.com/shopspring/decimal"

// DashboardSummary is the headline figures block of the dashboard.
type DashboardSummary struct {
	TotalPatients int             `json:"totalPatients"`
	TotalOrders   int             `json:"totalOrders"`
	TodayOrders   int             `json:"todayOrders"`
	WeekOrders    int             `json:"weekOrders"`
	MonthOrders   int             `json:"monthOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	MonthRevenue  decimal.Decimal `json:"monthRevenue"`
}

// StatusCount is one slice of the order status distribution chart.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Color  string `json:"color"`
}

// DailyOrderCount is one point of the last-7-days order chart.
type DailyOrderCount struct {
	Date   string `json:"date"`
	Orders int    `json:"orders"`
}

// TopTest is one row of the most-ordered-tests table.
type TopTest struct {
	Name  string `json:"name" db:"name"`
	Code  string `json:"code" db:"code"`
	Count int    `json:"count" db:"count"`
}

// Dashboard is the payload of GET /analytics/dashboard.
type Dashboard struct {
	Summary            DashboardSummary  `json:"summary"`
	StatusDistribution []StatusCount     `json:"statusDistribution"`
	DailyOrders        []DailyOrderCount `json:"dailyOrders"`
	TopTests           []TopTest         `json:"topTests"`
	RecentOrders       []*Order          `json:"recentOrders"`
}

// RevenuePoint is one point of the revenue chart: verified-order revenue
// for a single day.
type RevenuePoint struct {
	Date    string          `json:"date" db:"date"`
	Revenue decimal.Decimal `json:"revenue" db:"revenue"`
}
