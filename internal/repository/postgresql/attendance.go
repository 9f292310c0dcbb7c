package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

const attendanceColumns = `
	a.id, a.user_id, a.date, a.type, a.present, a.is_paid_leave,
	a.working_hours, a.overtime_hours, a.projects, a.project_id,
	COALESCE(a.marked_by::text, ''), a.created_at, a.updated_at`

func scanAttendance(row pgx.Row, extra ...any) (attendance.Attendance, error) {
	var (
		att      attendance.Attendance
		projects []byte
	)
	dest := []any{
		&att.ID, &att.UserID, &att.Date, &att.Type, &att.Present, &att.IsPaidLeave,
		&att.WorkingHours, &att.OvertimeHours, &projects, &att.LegacyProjectID,
		&att.MarkedBy, &att.CreatedAt, &att.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return attendance.Attendance{}, err
	}

	att.Projects = []attendance.ProjectEntry{}
	if len(projects) > 0 {
		if err := json.Unmarshal(projects, &att.Projects); err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to decode projects of attendance %s: %w", att.ID, err)
		}
	}
	return att, nil
}

func encodeProjects(entries []attendance.ProjectEntry) ([]byte, error) {
	if entries == nil {
		entries = []attendance.ProjectEntry{}
	}
	return json.Marshal(entries)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// LockKey implements attendance.AttendanceRepository.
func (a *attendanceRepository) LockKey(ctx context.Context, key attendance.RecordKey) error {
	q := GetQuerier(ctx, a.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key.LockName()); err != nil {
		return fmt.Errorf("failed to lock %s: %w", key.LockName(), err)
	}
	return nil
}

// GetByKey implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByKey(ctx context.Context, key attendance.RecordKey) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.user_id = $1 AND a.date = $2 AND a.type = $3
		ORDER BY a.created_at, a.id
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, key.UserID, key.Date, key.Type))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by key: %w", err)
	}
	return &att, nil
}

// ListByKey implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByKey(ctx context.Context, key attendance.RecordKey) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.user_id = $1 AND a.date = $2 AND a.type = $3
		ORDER BY a.created_at, a.id
	`

	rows, err := q.Query(ctx, query, key.UserID, key.Date, key.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by key: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	return records, rows.Err()
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `, e.full_name
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.user_id
		WHERE a.id = $1
	`

	var userName *string
	att, err := scanAttendance(q.QueryRow(ctx, query, id), &userName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}
	att.UserName = userName
	return att, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	projects, err := encodeProjects(newAttendance.Projects)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to encode projects: %w", err)
	}
	newAttendance.LegacyProjectID = newAttendance.PrimaryProjectID()

	query := `
		INSERT INTO attendances (
			user_id, date, type, present, is_paid_leave,
			working_hours, overtime_hours, projects, project_id, marked_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		newAttendance.UserID,
		newAttendance.Date,
		newAttendance.Type,
		newAttendance.Present,
		newAttendance.IsPaidLeave,
		newAttendance.WorkingHours,
		newAttendance.OvertimeHours,
		projects,
		newAttendance.LegacyProjectID,
		nullIfEmpty(newAttendance.MarkedBy),
	).Scan(&newAttendance.ID, &newAttendance.CreatedAt, &newAttendance.UpdatedAt)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrDuplicateAttendance
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// Update implements attendance.AttendanceRepository. The legacy project
// column is rewritten from the entries.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	projects, err := encodeProjects(att.Projects)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to encode projects: %w", err)
	}
	att.LegacyProjectID = att.PrimaryProjectID()

	query := `
		UPDATE attendances SET
			present = $2,
			is_paid_leave = $3,
			working_hours = $4,
			overtime_hours = $5,
			projects = $6,
			project_id = $7,
			marked_by = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		att.ID,
		att.Present,
		att.IsPaidLeave,
		att.WorkingHours,
		att.OvertimeHours,
		projects,
		att.LegacyProjectID,
		nullIfEmpty(att.MarkedBy),
	).Scan(&att.CreatedAt, &att.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	return att, nil
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, a.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM attendances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// DeleteByIDs implements attendance.AttendanceRepository.
func (a *attendanceRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := GetQuerier(ctx, a.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM attendances WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete attendances: %w", err)
	}
	return commandTag.RowsAffected(), nil
}

// ListByUser implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByUser(ctx context.Context, filter attendance.UserAttendanceQuery) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	var sb strings.Builder
	args := []any{filter.UserID}

	sb.WriteString(`
		SELECT ` + attendanceColumns + `, e.full_name
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.user_id
		WHERE a.user_id = $1`)

	if filter.From != nil {
		args = append(args, *filter.From)
		sb.WriteString(fmt.Sprintf(" AND a.date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		sb.WriteString(fmt.Sprintf(" AND a.date <= $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		sb.WriteString(fmt.Sprintf(" AND a.type = $%d", len(args)))
	}
	sb.WriteString(" ORDER BY a.date DESC, a.type, a.created_at")

	rows, err := q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user attendance: %w", err)
	}
	defer rows.Close()

	records := []attendance.Attendance{}
	for rows.Next() {
		var userName *string
		att, err := scanAttendance(rows, &userName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		att.UserName = userName
		records = append(records, att)
	}
	return records, rows.Err()
}

// ListProjectDay implements attendance.AttendanceRepository. Records that
// only carry the legacy project column are included.
func (a *attendanceRepository) ListProjectDay(ctx context.Context, projectID string, date time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.type = 'project'
		  AND a.date = $2
		  AND (
			a.projects @> jsonb_build_array(jsonb_build_object('project_id', $1::text))
			OR (jsonb_array_length(a.projects) = 0 AND a.project_id::text = $1::text)
		  )
		ORDER BY a.created_at, a.id
	`

	rows, err := q.Query(ctx, query, projectID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list project day: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	return records, rows.Err()
}

// ListKeysNeedingMigration implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListKeysNeedingMigration(ctx context.Context) ([]attendance.RecordKey, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT user_id, date, type
		FROM attendances
		GROUP BY user_id, date, type
		HAVING COUNT(*) > 1
		    OR bool_or(type = 'project' AND jsonb_array_length(projects) = 0 AND project_id IS NOT NULL)
		ORDER BY date, user_id, type
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys needing migration: %w", err)
	}
	defer rows.Close()

	var keys []attendance.RecordKey
	for rows.Next() {
		var key attendance.RecordKey
		if err := rows.Scan(&key.UserID, &key.Date, &key.Type); err != nil {
			return nil, fmt.Errorf("failed to scan record key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// EnsureUniqueKeyIndex implements attendance.AttendanceRepository.
func (a *attendanceRepository) EnsureUniqueKeyIndex(ctx context.Context) error {
	q := GetQuerier(ctx, a.db)

	query := `CREATE UNIQUE INDEX IF NOT EXISTS uq_attendances_user_date_type ON attendances (user_id, date, type)`
	if _, err := q.Exec(ctx, query); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("duplicate keys remain, run reconciliation first: %w", attendance.ErrDuplicateAttendance)
		}
		return fmt.Errorf("failed to create unique key index: %w", err)
	}
	return nil
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
