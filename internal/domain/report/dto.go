package report

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/pkg/validator"
)

const (
	PeriodMonthly = "monthly"
	PeriodWeekly  = "weekly"

	DefaultTrendMonths = 6
	MaxTrendMonths     = 24

	TopEmployeesLimit = 5
)

// ========================================
// OVERVIEW
// ========================================

type OverviewRequest struct {
	Year int `json:"year"`
}

func (r *OverviewRequest) Validate(now time.Time) error {
	if r.Year == 0 {
		r.Year = now.Year()
	}
	if r.Year < 2000 || r.Year > now.Year()+1 {
		return validator.Single("year", fmt.Sprintf("year must be between 2000 and %d", now.Year()+1))
	}
	return nil
}

type MonthlyRate struct {
	Month   string  `json:"month"` // YYYY-MM
	Present int64   `json:"present"`
	Absent  int64   `json:"absent"`
	Rate    float64 `json:"rate"`
}

type EmployeeRate struct {
	UserID   string  `json:"user_id"`
	FullName string  `json:"full_name"`
	Present  int64   `json:"present"`
	Total    int64   `json:"total"`
	Rate     float64 `json:"rate"`
}

type OverviewReport struct {
	Year         int     `json:"year"`
	TotalPresent int64   `json:"total_present"`
	TotalAbsent  int64   `json:"total_absent"`
	Rate         float64 `json:"rate"`

	Monthly         []MonthlyRate  `json:"monthly"`
	TopEmployees    []EmployeeRate `json:"top_employees"`
	BottomEmployees []EmployeeRate `json:"bottom_employees"`
}

// ========================================
// EMPLOYEE TREND
// ========================================

type TrendRequest struct {
	UserID string `json:"user_id"`
	Months int    `json:"months"`
}

func (r *TrendRequest) Validate() error {
	var errs validator.ValidationErrors

	if userID, ok := validator.CanonicalID(r.UserID); ok {
		r.UserID = userID
	} else {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id must be a valid UUID"})
	}
	if r.Months == 0 {
		r.Months = DefaultTrendMonths
	}
	if r.Months < 1 || r.Months > MaxTrendMonths {
		errs = append(errs, validator.ValidationError{
			Field:   "months",
			Message: fmt.Sprintf("months must be between 1 and %d", MaxTrendMonths),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TrendBucket struct {
	Month   string  `json:"month"` // YYYY-MM
	Present int64   `json:"present"`
	Total   int64   `json:"total"`
	Rate    float64 `json:"rate"`
}

type TrendReport struct {
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
	Months    int    `json:"months"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	Buckets      []TrendBucket `json:"buckets"`
	TotalPresent int64         `json:"total_present"`
	TotalRecords int64         `json:"total_records"`
	Rate         float64       `json:"rate"`
}

// ========================================
// PROJECT ANALYTICS
// ========================================

type ProjectAnalyticsRequest struct {
	ProjectID *string `json:"project_id,omitempty"`
	Period    string  `json:"period"` // monthly, weekly
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

// Window is a closed date range.
type Window struct {
	From time.Time
	To   time.Time
}

// Validate resolves the period and window. Without explicit dates the window
// ends today and spans 6 months (monthly) or 12 weeks (weekly).
func (r *ProjectAnalyticsRequest) Validate(now time.Time) (Window, error) {
	var errs validator.ValidationErrors

	if r.Period == "" {
		r.Period = PeriodMonthly
	}
	if !validator.IsInSlice(r.Period, []string{PeriodMonthly, PeriodWeekly}) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "period must be one of: monthly, weekly"})
	}
	if r.ProjectID != nil && !validator.IsValidID(*r.ProjectID) {
		errs = append(errs, validator.ValidationError{Field: "project_id", Message: "project_id must be a valid UUID"})
	}

	w := Window{To: validator.TruncateToDay(now)}
	if r.EndDate != nil && *r.EndDate != "" {
		if d, ok := validator.IsValidDate(*r.EndDate); ok {
			w.To = d
		} else {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
		}
	}
	if r.Period == PeriodWeekly {
		w.From = w.To.AddDate(0, 0, -7*12)
	} else {
		w.From = w.To.AddDate(0, -6, 0)
	}
	if r.StartDate != nil && *r.StartDate != "" {
		if d, ok := validator.IsValidDate(*r.StartDate); ok {
			w.From = d
		} else {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
		}
	}
	if w.To.Before(w.From) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
	}

	if len(errs) > 0 {
		return Window{}, errs
	}
	return w, nil
}

type ProjectRate struct {
	ProjectID      string  `json:"project_id"`
	ProjectName    string  `json:"project_name"`
	PresentEntries int64   `json:"present_entries"`
	TotalEntries   int64   `json:"total_entries"`
	Rate           float64 `json:"rate"`
}

type WorkerRate struct {
	UserID   string  `json:"user_id"`
	FullName string  `json:"full_name"`
	Present  int64   `json:"present"`
	Total    int64   `json:"total"`
	Rate     float64 `json:"rate"`
}

type PeriodBucket struct {
	Period  string       `json:"period"` // YYYY-MM or YYYY-Www
	Present int64        `json:"present"`
	Total   int64        `json:"total"`
	Rate    float64      `json:"rate"`
	Workers []WorkerRate `json:"workers"`
}

type ProjectDetail struct {
	ProjectID   string         `json:"project_id"`
	ProjectName string         `json:"project_name"`
	Buckets     []PeriodBucket `json:"buckets"`
}

// ProjectAnalyticsReport carries Projects for the all-projects view and
// Project for a single project.
type ProjectAnalyticsReport struct {
	Period    string         `json:"period"`
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Projects  []ProjectRate  `json:"projects,omitempty"`
	Project   *ProjectDetail `json:"project,omitempty"`
}
