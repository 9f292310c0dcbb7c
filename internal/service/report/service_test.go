package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/site-attendance/internal/domain/project"
	"github.com/cmlabs-hris/site-attendance/internal/domain/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReportRepo struct {
	counts    report.PresenceCount
	monthly   []report.MonthlyPresenceRow
	employees []report.EmployeePresenceRow
	projects  []report.ProjectPresenceRow
	workers   []report.ProjectWorkerRow
	block     bool

	lastFrom, lastTo time.Time
	lastUser         *string
	lastPeriod       string
}

func (f *fakeReportRepo) wait(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeReportRepo) CountPresence(ctx context.Context, from, to time.Time) (report.PresenceCount, error) {
	return f.counts, f.wait(ctx)
}

func (f *fakeReportRepo) MonthlyPresence(ctx context.Context, from, to time.Time, userID *string) ([]report.MonthlyPresenceRow, error) {
	f.lastFrom, f.lastTo, f.lastUser = from, to, userID
	return f.monthly, f.wait(ctx)
}

func (f *fakeReportRepo) EmployeePresence(ctx context.Context, from, to time.Time) ([]report.EmployeePresenceRow, error) {
	return f.employees, f.wait(ctx)
}

func (f *fakeReportRepo) ProjectPresence(ctx context.Context, from, to time.Time) ([]report.ProjectPresenceRow, error) {
	f.lastFrom, f.lastTo = from, to
	return f.projects, f.wait(ctx)
}

func (f *fakeReportRepo) ProjectWorkerPresence(ctx context.Context, projectID string, from, to time.Time, period string) ([]report.ProjectWorkerRow, error) {
	f.lastPeriod = period
	return f.workers, f.wait(ctx)
}

type fakeEmployees struct {
	employee.EmployeeRepository
	known map[string]employee.Employee
}

func (f *fakeEmployees) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	e, ok := f.known[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

type fakeProjects struct {
	project.ProjectRepository
	known map[string]project.Project
}

func (f *fakeProjects) GetByID(ctx context.Context, id string) (project.Project, error) {
	p, ok := f.known[id]
	if !ok {
		return project.Project{}, project.ErrProjectNotFound
	}
	return p, nil
}

const (
	userID    = "0b0c7f0e-7d0e-4a51-9d1e-1f0c2b3a4d5e"
	projectID = "7a1c2e3f-4b5d-4c6e-8f90-a1b2c3d4e5f6"
)

func newReportEnv(repo *fakeReportRepo) *ReportServiceImpl {
	svc := NewReportService(
		repo,
		&fakeEmployees{known: map[string]employee.Employee{userID: {ID: userID, FullName: "Budi"}}},
		&fakeProjects{known: map[string]project.Project{projectID: {ID: projectID, Name: "Bridge"}}},
		time.Second,
	).(*ReportServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestOverview(t *testing.T) {
	repo := &fakeReportRepo{
		counts: report.PresenceCount{Present: 30, Absent: 10},
		monthly: []report.MonthlyPresenceRow{
			{Month: "2024-01", Present: 2, Total: 3},
			{Month: "2024-02", Present: 28, Total: 37},
		},
	}
	// seven employees with rates 100, 90, ..., 40
	for i := 0; i < 7; i++ {
		repo.employees = append(repo.employees, report.EmployeePresenceRow{
			UserID:   fmt.Sprintf("u%d", i),
			FullName: fmt.Sprintf("Worker %d", i),
			Present:  int64(10 - i),
			Total:    10,
		})
	}

	resp, err := newReportEnv(repo).Overview(context.Background(), report.OverviewRequest{Year: 2024})
	require.NoError(t, err)

	assert.Equal(t, int64(30), resp.TotalPresent)
	assert.Equal(t, int64(10), resp.TotalAbsent)
	assert.Equal(t, 75.0, resp.Rate)

	require.Len(t, resp.Monthly, 2)
	assert.Equal(t, 66.7, resp.Monthly[0].Rate)
	assert.Equal(t, int64(1), resp.Monthly[0].Absent)

	require.Len(t, resp.TopEmployees, 5)
	assert.Equal(t, "u0", resp.TopEmployees[0].UserID)
	assert.Equal(t, 100.0, resp.TopEmployees[0].Rate)

	require.Len(t, resp.BottomEmployees, 5)
	assert.Equal(t, "u6", resp.BottomEmployees[0].UserID)
	assert.Equal(t, 40.0, resp.BottomEmployees[0].Rate)
	assert.Equal(t, "u2", resp.BottomEmployees[4].UserID)
}

func TestOverview_Empty(t *testing.T) {
	resp, err := newReportEnv(&fakeReportRepo{}).Overview(context.Background(), report.OverviewRequest{})
	require.NoError(t, err)

	assert.Equal(t, 2024, resp.Year)
	assert.Equal(t, 0.0, resp.Rate)
	assert.Empty(t, resp.Monthly)
	assert.NotNil(t, resp.TopEmployees)
	assert.Empty(t, resp.BottomEmployees)
}

func TestOverview_Timeout(t *testing.T) {
	svc := newReportEnv(&fakeReportRepo{block: true})
	svc.timeout = 10 * time.Millisecond

	_, err := svc.Overview(context.Background(), report.OverviewRequest{Year: 2024})
	assert.ErrorIs(t, err, report.ErrReportTimeout)
}

func TestEmployeeTrend(t *testing.T) {
	repo := &fakeReportRepo{monthly: []report.MonthlyPresenceRow{
		{Month: "2024-04", Present: 18, Total: 20},
		{Month: "2024-06", Present: 5, Total: 10},
	}}

	resp, err := newReportEnv(repo).EmployeeTrend(context.Background(), report.TrendRequest{UserID: userID, Months: 3})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-15", resp.StartDate)
	assert.Equal(t, "2024-06-15", resp.EndDate)
	require.NotNil(t, repo.lastUser)
	assert.Equal(t, userID, *repo.lastUser)

	require.Len(t, resp.Buckets, 4)
	assert.Equal(t, "2024-03", resp.Buckets[0].Month)
	assert.Equal(t, 0.0, resp.Buckets[0].Rate)
	assert.Equal(t, 90.0, resp.Buckets[1].Rate)
	assert.Equal(t, int64(23), resp.TotalPresent)
	assert.Equal(t, int64(30), resp.TotalRecords)
	assert.Equal(t, 76.7, resp.Rate)
}

func TestEmployeeTrend_UnknownEmployee(t *testing.T) {
	_, err := newReportEnv(&fakeReportRepo{}).EmployeeTrend(context.Background(), report.TrendRequest{
		UserID: "5f0c7f0e-7d0e-4a51-9d1e-1f0c2b3a4d5e",
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestProjectAnalytics_AllProjects(t *testing.T) {
	repo := &fakeReportRepo{projects: []report.ProjectPresenceRow{
		{ProjectID: "p1", ProjectName: "Empty", Present: 0, Total: 0},
		{ProjectID: "p2", ProjectName: "Tower", Present: 3, Total: 4},
		{ProjectID: "p3", ProjectName: "Bridge", Present: 9, Total: 10},
	}}

	resp, err := newReportEnv(repo).ProjectAnalytics(context.Background(), report.ProjectAnalyticsRequest{})
	require.NoError(t, err)

	assert.Equal(t, report.PeriodMonthly, resp.Period)
	assert.Equal(t, "2023-12-15", resp.StartDate)
	require.Len(t, resp.Projects, 3)
	assert.Equal(t, "p3", resp.Projects[0].ProjectID)
	assert.Equal(t, 90.0, resp.Projects[0].Rate)
	assert.Equal(t, "p1", resp.Projects[2].ProjectID)
	assert.Equal(t, 0.0, resp.Projects[2].Rate)
	assert.Nil(t, resp.Project)
}

func TestProjectAnalytics_SingleProject(t *testing.T) {
	repo := &fakeReportRepo{workers: []report.ProjectWorkerRow{
		{Period: "2024-W22", UserID: "u1", FullName: "Budi", Present: 5, Total: 5},
		{Period: "2024-W22", UserID: "u2", FullName: "Sari", Present: 3, Total: 5},
		{Period: "2024-W23", UserID: "u1", FullName: "Budi", Present: 0, Total: 2},
	}}
	id := projectID

	resp, err := newReportEnv(repo).ProjectAnalytics(context.Background(), report.ProjectAnalyticsRequest{
		ProjectID: &id,
		Period:    report.PeriodWeekly,
	})
	require.NoError(t, err)

	assert.Equal(t, report.PeriodWeekly, repo.lastPeriod)
	require.NotNil(t, resp.Project)
	assert.Equal(t, "Bridge", resp.Project.ProjectName)
	require.Len(t, resp.Project.Buckets, 2)

	first := resp.Project.Buckets[0]
	assert.Equal(t, "2024-W22", first.Period)
	assert.Equal(t, int64(8), first.Present)
	assert.Equal(t, int64(10), first.Total)
	assert.Equal(t, 80.0, first.Rate)
	require.Len(t, first.Workers, 2)
	assert.Equal(t, 60.0, first.Workers[1].Rate)

	assert.Equal(t, 0.0, resp.Project.Buckets[1].Rate)
}

func TestProjectAnalytics_UnknownProject(t *testing.T) {
	id := "9a1c2e3f-4b5d-4c6e-8f90-a1b2c3d4e5f6"
	_, err := newReportEnv(&fakeReportRepo{}).ProjectAnalytics(context.Background(), report.ProjectAnalyticsRequest{ProjectID: &id})
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
}
