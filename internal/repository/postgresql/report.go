package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/domain/report"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/database"
)

type reportRepositoryImpl struct {
	db *database.DB
}

func NewReportRepository(db *database.DB) report.ReportRepository {
	return &reportRepositoryImpl{db: db}
}

// projectEntriesCTE expands project records into one row per entry within
// [$1, $2]. Records that still only carry the legacy column count as a
// single entry.
const projectEntriesCTE = `
	WITH entries AS (
		SELECT a.user_id, a.date, e.entry
		FROM attendances a
		CROSS JOIN LATERAL jsonb_array_elements(
			CASE
				WHEN jsonb_array_length(a.projects) = 0 AND a.project_id IS NOT NULL THEN
					jsonb_build_array(jsonb_build_object(
						'project_id', a.project_id::text,
						'present', a.present,
						'working_hours', a.working_hours
					))
				ELSE a.projects
			END
		) AS e(entry)
		WHERE a.type = 'project'
		  AND a.date BETWEEN $1 AND $2
	)`

// CountPresence implements report.ReportRepository.
func (r *reportRepositoryImpl) CountPresence(ctx context.Context, from, to time.Time) (report.PresenceCount, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE present) AS present_count,
			COUNT(*) FILTER (WHERE NOT present) AS absent_count
		FROM attendances
		WHERE date BETWEEN $1 AND $2
	`

	var c report.PresenceCount
	if err := q.QueryRow(ctx, query, from, to).Scan(&c.Present, &c.Absent); err != nil {
		return report.PresenceCount{}, fmt.Errorf("failed to count presence: %w", err)
	}
	return c, nil
}

// MonthlyPresence implements report.ReportRepository.
func (r *reportRepositoryImpl) MonthlyPresence(ctx context.Context, from, to time.Time, userID *string) ([]report.MonthlyPresenceRow, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			to_char(date, 'YYYY-MM') AS month,
			COUNT(*) FILTER (WHERE present) AS present_count,
			COUNT(*) AS total_count
		FROM attendances
		WHERE date BETWEEN $1 AND $2
		  AND ($3::uuid IS NULL OR user_id = $3::uuid)
		GROUP BY month
		ORDER BY month
	`

	rows, err := q.Query(ctx, query, from, to, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly presence: %w", err)
	}
	defer rows.Close()

	result := []report.MonthlyPresenceRow{}
	for rows.Next() {
		var row report.MonthlyPresenceRow
		if err := rows.Scan(&row.Month, &row.Present, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly presence: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// EmployeePresence implements report.ReportRepository.
func (r *reportRepositoryImpl) EmployeePresence(ctx context.Context, from, to time.Time) ([]report.EmployeePresenceRow, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			a.user_id,
			COALESCE(e.full_name, '') AS full_name,
			COUNT(*) FILTER (WHERE a.present) AS present_count,
			COUNT(*) AS total_count
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.user_id
		WHERE a.date BETWEEN $1 AND $2
		GROUP BY a.user_id, e.full_name
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee presence: %w", err)
	}
	defer rows.Close()

	result := []report.EmployeePresenceRow{}
	for rows.Next() {
		var row report.EmployeePresenceRow
		if err := rows.Scan(&row.UserID, &row.FullName, &row.Present, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan employee presence: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ProjectPresence implements report.ReportRepository.
func (r *reportRepositoryImpl) ProjectPresence(ctx context.Context, from, to time.Time) ([]report.ProjectPresenceRow, error) {
	q := GetQuerier(ctx, r.db)

	query := projectEntriesCTE + `
		SELECT
			p.id,
			p.name,
			COUNT(x.entry) FILTER (WHERE (x.entry->>'present')::boolean) AS present_count,
			COUNT(x.entry) AS total_count
		FROM projects p
		LEFT JOIN entries x ON lower(x.entry->>'project_id') = p.id::text
		GROUP BY p.id, p.name
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get project presence: %w", err)
	}
	defer rows.Close()

	result := []report.ProjectPresenceRow{}
	for rows.Next() {
		var row report.ProjectPresenceRow
		if err := rows.Scan(&row.ProjectID, &row.ProjectName, &row.Present, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan project presence: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ProjectWorkerPresence implements report.ReportRepository. Weekly periods
// use ISO weeks (2024-W05).
func (r *reportRepositoryImpl) ProjectWorkerPresence(ctx context.Context, projectID string, from, to time.Time, period string) ([]report.ProjectWorkerRow, error) {
	q := GetQuerier(ctx, r.db)

	query := projectEntriesCTE + `
		SELECT
			CASE WHEN $4 = 'weekly'
				THEN to_char(x.date, 'IYYY-"W"IW')
				ELSE to_char(x.date, 'YYYY-MM')
			END AS period_key,
			x.user_id,
			COALESCE(emp.full_name, '') AS full_name,
			COUNT(*) FILTER (WHERE (x.entry->>'present')::boolean) AS present_count,
			COUNT(*) AS total_count
		FROM entries x
		LEFT JOIN employees emp ON emp.id = x.user_id
		WHERE lower(x.entry->>'project_id') = lower($3::text)
		GROUP BY period_key, x.user_id, emp.full_name
		ORDER BY period_key, full_name, x.user_id
	`

	rows, err := q.Query(ctx, query, from, to, projectID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to get project worker presence: %w", err)
	}
	defer rows.Close()

	result := []report.ProjectWorkerRow{}
	for rows.Next() {
		var row report.ProjectWorkerRow
		if err := rows.Scan(&row.Period, &row.UserID, &row.FullName, &row.Present, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan project worker presence: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
