package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// LockKey takes a transaction-scoped lock on the record key so that
	// concurrent writers for the same (user, day, type) run one at a time.
	// Must be called inside a transaction.
	LockKey(ctx context.Context, key RecordKey) error

	// GetByKey returns the canonical record for the key, or nil when none exists.
	// When legacy duplicates exist the earliest record wins.
	GetByKey(ctx context.Context, key RecordKey) (*Attendance, error)

	// ListByKey returns every record stored under the key, oldest first.
	ListByKey(ctx context.Context, key RecordKey) ([]Attendance, error)

	GetByID(ctx context.Context, id string) (Attendance, error)

	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	Update(ctx context.Context, attendance Attendance) (Attendance, error)

	Delete(ctx context.Context, id string) error

	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	ListByUser(ctx context.Context, query UserAttendanceQuery) ([]Attendance, error)

	// ListProjectDay returns the project records of a day that carry an
	// entry for projectID.
	ListProjectDay(ctx context.Context, projectID string, date time.Time) ([]Attendance, error)

	// ListKeysNeedingMigration returns keys holding more than one record, or a
	// single project record that only has the legacy project column.
	ListKeysNeedingMigration(ctx context.Context) ([]RecordKey, error)

	// EnsureUniqueKeyIndex creates the unique (user_id, date, type) index.
	EnsureUniqueKeyIndex(ctx context.Context) error
}
