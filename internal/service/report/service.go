package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/site-attendance/internal/domain/project"
	"github.com/cmlabs-hris/site-attendance/internal/domain/report"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/metrics"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/validator"
	"golang.org/x/sync/errgroup"
)

type ReportServiceImpl struct {
	report.ReportRepository
	employee.EmployeeRepository
	project.ProjectRepository
	timeout time.Duration
	now     func() time.Time
}

func NewReportService(
	reportRepo report.ReportRepository,
	employeeRepo employee.EmployeeRepository,
	projectRepo project.ProjectRepository,
	timeout time.Duration,
) report.ReportService {
	return &ReportServiceImpl{
		ReportRepository:   reportRepo,
		EmployeeRepository: employeeRepo,
		ProjectRepository:  projectRepo,
		timeout:            timeout,
		now:                time.Now,
	}
}

// withDeadline bounds a rollup so an abandoned aggregation stops at the database.
func (s *ReportServiceImpl) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func observe(name string, start time.Time, err error) {
	metrics.ReportDuration.WithLabelValues(name, metrics.Outcome(err)).Observe(time.Since(start).Seconds())
}

func timeoutErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return report.ErrReportTimeout
	}
	return err
}

// Overview implements report.ReportService.
func (s *ReportServiceImpl) Overview(ctx context.Context, req report.OverviewRequest) (resp report.OverviewReport, err error) {
	defer func(start time.Time) { observe("overview", start, err) }(time.Now())

	if err := req.Validate(s.now().UTC()); err != nil {
		return report.OverviewReport{}, err
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	from := time.Date(req.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(req.Year, time.December, 31, 0, 0, 0, 0, time.UTC)

	var (
		totals    report.PresenceCount
		monthly   []report.MonthlyPresenceRow
		employees []report.EmployeePresenceRow
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := s.ReportRepository.CountPresence(gCtx, from, to)
		if err != nil {
			return fmt.Errorf("failed to count presence: %w", err)
		}
		totals = c
		return nil
	})

	g.Go(func() error {
		rows, err := s.ReportRepository.MonthlyPresence(gCtx, from, to, nil)
		if err != nil {
			return fmt.Errorf("failed to get monthly presence: %w", err)
		}
		monthly = rows
		return nil
	})

	g.Go(func() error {
		rows, err := s.ReportRepository.EmployeePresence(gCtx, from, to)
		if err != nil {
			return fmt.Errorf("failed to get employee presence: %w", err)
		}
		employees = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return report.OverviewReport{}, timeoutErr(ctx, err)
	}

	resp = report.OverviewReport{
		Year:            req.Year,
		TotalPresent:    totals.Present,
		TotalAbsent:     totals.Absent,
		Rate:            report.Rate(totals.Present, totals.Present+totals.Absent),
		Monthly:         make([]report.MonthlyRate, 0, len(monthly)),
		TopEmployees:    []report.EmployeeRate{},
		BottomEmployees: []report.EmployeeRate{},
	}

	for _, m := range monthly {
		if m.Total == 0 {
			continue
		}
		resp.Monthly = append(resp.Monthly, report.MonthlyRate{
			Month:   m.Month,
			Present: m.Present,
			Absent:  m.Total - m.Present,
			Rate:    report.Rate(m.Present, m.Total),
		})
	}

	ranked := rankEmployees(employees)
	resp.TopEmployees = append(resp.TopEmployees, ranked[:min(report.TopEmployeesLimit, len(ranked))]...)
	for i := len(ranked) - 1; i >= 0 && i >= len(ranked)-report.TopEmployeesLimit; i-- {
		resp.BottomEmployees = append(resp.BottomEmployees, ranked[i])
	}

	return resp, nil
}

// rankEmployees orders by rate, best first. Ties keep a stable name order.
func rankEmployees(rows []report.EmployeePresenceRow) []report.EmployeeRate {
	ranked := make([]report.EmployeeRate, 0, len(rows))
	for _, r := range rows {
		ranked = append(ranked, report.EmployeeRate{
			UserID:   r.UserID,
			FullName: r.FullName,
			Present:  r.Present,
			Total:    r.Total,
			Rate:     report.Rate(r.Present, r.Total),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rate != ranked[j].Rate {
			return ranked[i].Rate > ranked[j].Rate
		}
		if ranked[i].FullName != ranked[j].FullName {
			return ranked[i].FullName < ranked[j].FullName
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	return ranked
}

// EmployeeTrend implements report.ReportService.
func (s *ReportServiceImpl) EmployeeTrend(ctx context.Context, req report.TrendRequest) (resp report.TrendReport, err error) {
	defer func(start time.Time) { observe("employee_trend", start, err) }(time.Now())

	if err := req.Validate(); err != nil {
		return report.TrendReport{}, err
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	emp, err := s.EmployeeRepository.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return report.TrendReport{}, employee.ErrEmployeeNotFound
		}
		return report.TrendReport{}, timeoutErr(ctx, fmt.Errorf("failed to get employee: %w", err))
	}

	to := validator.TruncateToDay(s.now().UTC())
	from := to.AddDate(0, -req.Months, 0)

	rows, err := s.ReportRepository.MonthlyPresence(ctx, from, to, &req.UserID)
	if err != nil {
		return report.TrendReport{}, timeoutErr(ctx, fmt.Errorf("failed to get monthly presence: %w", err))
	}
	byMonth := make(map[string]report.MonthlyPresenceRow, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}

	resp = report.TrendReport{
		UserID:    emp.ID,
		FullName:  emp.FullName,
		Months:    req.Months,
		StartDate: from.Format(validator.DateLayout),
		EndDate:   to.Format(validator.DateLayout),
		Buckets:   []report.TrendBucket{},
	}

	// Every month of the window gets a bucket, empty ones included.
	for m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(to); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		r := byMonth[key]
		resp.Buckets = append(resp.Buckets, report.TrendBucket{
			Month:   key,
			Present: r.Present,
			Total:   r.Total,
			Rate:    report.Rate(r.Present, r.Total),
		})
		resp.TotalPresent += r.Present
		resp.TotalRecords += r.Total
	}
	resp.Rate = report.Rate(resp.TotalPresent, resp.TotalRecords)

	return resp, nil
}

// ProjectAnalytics implements report.ReportService.
func (s *ReportServiceImpl) ProjectAnalytics(ctx context.Context, req report.ProjectAnalyticsRequest) (resp report.ProjectAnalyticsReport, err error) {
	defer func(start time.Time) { observe("project_analytics", start, err) }(time.Now())

	window, err := req.Validate(s.now().UTC())
	if err != nil {
		return report.ProjectAnalyticsReport{}, err
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	resp = report.ProjectAnalyticsReport{
		Period:    req.Period,
		StartDate: window.From.Format(validator.DateLayout),
		EndDate:   window.To.Format(validator.DateLayout),
	}

	if req.ProjectID == nil {
		rows, err := s.ReportRepository.ProjectPresence(ctx, window.From, window.To)
		if err != nil {
			return report.ProjectAnalyticsReport{}, timeoutErr(ctx, fmt.Errorf("failed to get project presence: %w", err))
		}
		resp.Projects = rankProjects(rows)
		return resp, nil
	}

	proj, err := s.ProjectRepository.GetByID(ctx, *req.ProjectID)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			return report.ProjectAnalyticsReport{}, project.ErrProjectNotFound
		}
		return report.ProjectAnalyticsReport{}, timeoutErr(ctx, fmt.Errorf("failed to get project: %w", err))
	}

	rows, err := s.ReportRepository.ProjectWorkerPresence(ctx, proj.ID, window.From, window.To, req.Period)
	if err != nil {
		return report.ProjectAnalyticsReport{}, timeoutErr(ctx, fmt.Errorf("failed to get project worker presence: %w", err))
	}

	resp.Project = &report.ProjectDetail{
		ProjectID:   proj.ID,
		ProjectName: proj.Name,
		Buckets:     bucketByPeriod(rows),
	}
	return resp, nil
}

func rankProjects(rows []report.ProjectPresenceRow) []report.ProjectRate {
	ranked := make([]report.ProjectRate, 0, len(rows))
	for _, r := range rows {
		ranked = append(ranked, report.ProjectRate{
			ProjectID:      r.ProjectID,
			ProjectName:    r.ProjectName,
			PresentEntries: r.Present,
			TotalEntries:   r.Total,
			Rate:           report.Rate(r.Present, r.Total),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rate != ranked[j].Rate {
			return ranked[i].Rate > ranked[j].Rate
		}
		return ranked[i].ProjectName < ranked[j].ProjectName
	})
	return ranked
}

// bucketByPeriod nests worker rows under their period. Rows arrive ordered
// by period.
func bucketByPeriod(rows []report.ProjectWorkerRow) []report.PeriodBucket {
	buckets := []report.PeriodBucket{}
	index := make(map[string]int)

	for _, r := range rows {
		i, ok := index[r.Period]
		if !ok {
			buckets = append(buckets, report.PeriodBucket{Period: r.Period, Workers: []report.WorkerRate{}})
			i = len(buckets) - 1
			index[r.Period] = i
		}
		b := &buckets[i]
		b.Workers = append(b.Workers, report.WorkerRate{
			UserID:   r.UserID,
			FullName: r.FullName,
			Present:  r.Present,
			Total:    r.Total,
			Rate:     report.Rate(r.Present, r.Total),
		})
		b.Present += r.Present
		b.Total += r.Total
	}

	for i := range buckets {
		buckets[i].Rate = report.Rate(buckets[i].Present, buckets[i].Total)
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Period < buckets[j].Period })
	return buckets
}
