package report

import (
	"context"
	"time"
)

// ReportRepository runs the rollup aggregations. All windows are closed
// date ranges [from, to].
type ReportRepository interface {
	// CountPresence counts present and not-present records of every user.
	CountPresence(ctx context.Context, from, to time.Time) (PresenceCount, error)

	// MonthlyPresence buckets records by month, only months with records.
	// userID narrows the buckets to one user when set.
	MonthlyPresence(ctx context.Context, from, to time.Time, userID *string) ([]MonthlyPresenceRow, error)

	EmployeePresence(ctx context.Context, from, to time.Time) ([]EmployeePresenceRow, error)

	// ProjectPresence counts project entries per project, including projects
	// without entries.
	ProjectPresence(ctx context.Context, from, to time.Time) ([]ProjectPresenceRow, error)

	// ProjectWorkerPresence counts entries for one project by period key and worker.
	ProjectWorkerPresence(ctx context.Context, projectID string, from, to time.Time, period string) ([]ProjectWorkerRow, error)
}
