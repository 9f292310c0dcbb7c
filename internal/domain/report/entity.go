package report

import "github.com/shopspring/decimal"

// Rows returned by the aggregation queries.

type PresenceCount struct {
	Present int64
	Absent  int64
}

type MonthlyPresenceRow struct {
	Month   string // YYYY-MM
	Present int64
	Total   int64
}

type EmployeePresenceRow struct {
	UserID   string
	FullName string
	Present  int64
	Total    int64
}

type ProjectPresenceRow struct {
	ProjectID   string
	ProjectName string
	Present     int64
	Total       int64
}

type ProjectWorkerRow struct {
	Period   string
	UserID   string
	FullName string
	Present  int64
	Total    int64
}

// Rate is present/total as a percentage rounded to one decimal place. A zero
// total yields 0.
func Rate(present, total int64) float64 {
	if total <= 0 {
		return 0
	}
	r, _ := decimal.NewFromInt(present).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(1).
		Float64()
	return r
}
