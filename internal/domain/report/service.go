package report

import "context"

type ReportService interface {
	Overview(ctx context.Context, req OverviewRequest) (OverviewReport, error)

	EmployeeTrend(ctx context.Context, req TrendRequest) (TrendReport, error)

	ProjectAnalytics(ctx context.Context, req ProjectAnalyticsRequest) (ProjectAnalyticsReport, error)
}
