package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance/internal/domain/migration"
	"github.com/cmlabs-hris/site-attendance/internal/domain/project"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/database"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/lock"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/metrics"
)

const (
	reconcileLockName = "attendance-reconciliation"
	assigneeLockName  = "project-assignee-migration"
)

type MigrationServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	project.ProjectRepository
	locker  lock.Locker
	lockTTL time.Duration
}

func NewMigrationService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	projectRepo project.ProjectRepository,
	locker lock.Locker,
	lockTTL time.Duration,
) migration.MigrationService {
	return &MigrationServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		ProjectRepository:    projectRepo,
		locker:               locker,
		lockTTL:              lockTTL,
	}
}

// acquire takes the named lock. The returned context is cancelled if the
// lock is lost, so work bound to it stops before another run can overlap.
func (m *MigrationServiceImpl) acquire(ctx context.Context, name string) (context.Context, lock.ReleaseFunc, error) {
	lockCtx, release, err := m.locker.Acquire(ctx, name, m.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, nil, migration.ErrMigrationInProgress
		}
		return nil, nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	return lockCtx, func(ctx context.Context) error {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Failed to release migration lock", "lock", name, "error", err)
			return err
		}
		return nil
	}, nil
}

// Reconcile implements migration.MigrationService. A failing group is rolled
// back and stops the run; groups committed before it stay migrated.
func (m *MigrationServiceImpl) Reconcile(ctx context.Context) (summary migration.ReconcileSummary, err error) {
	start := time.Now()
	defer func() {
		summary.Duration = time.Since(start).Round(time.Millisecond).String()
		metrics.MigrationDuration.WithLabelValues("reconcile", metrics.Outcome(err)).Observe(time.Since(start).Seconds())
	}()

	lockCtx, release, err := m.acquire(ctx, reconcileLockName)
	if err != nil {
		return summary, err
	}
	defer release(ctx)
	ctx = lockCtx

	keys, err := m.AttendanceRepository.ListKeysNeedingMigration(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list groups needing migration: %w", err)
	}
	summary.GroupsFound = len(keys)
	slog.Info("Reconciliation started", "groups", len(keys))

	for _, key := range keys {
		if ctx.Err() != nil {
			cause := context.Cause(ctx)
			slog.Warn("Reconciliation cancelled", "processed", summary.GroupsProcessed, "remaining", len(keys)-summary.GroupsProcessed-summary.GroupsSkipped, "cause", cause)
			return summary, fmt.Errorf("reconciliation cancelled: %w", cause)
		}

		merge, merged, err := m.reconcileGroup(ctx, key)
		if err != nil {
			metrics.ReconciledGroups.WithLabelValues(metrics.OutcomeError).Inc()
			slog.Error("Reconciliation aborted",
				"key", key.LockName(),
				"processed", summary.GroupsProcessed,
				"skipped", summary.GroupsSkipped,
				"remaining", len(keys)-summary.GroupsProcessed-summary.GroupsSkipped,
				"error", err,
			)
			return summary, fmt.Errorf("failed to reconcile %s: %w", key.LockName(), err)
		}
		if !merged {
			summary.GroupsSkipped++
			continue
		}

		metrics.ReconciledGroups.WithLabelValues(metrics.OutcomeSuccess).Inc()
		metrics.ReconciledRecordsDeleted.Add(float64(len(merge.DuplicateIDs)))
		summary.GroupsProcessed++
		summary.RecordsDeleted += int64(len(merge.DuplicateIDs))
		if merge.LegacyFolded {
			summary.LegacyFolded++
		}
		if merge.Record.WorkingHours > attendance.MaxWorkingHours {
			slog.Warn("Merged day exceeds 24 working hours", "attendance_id", merge.Record.ID, "working_hours", merge.Record.WorkingHours)
		}
	}

	slog.Info("Reconciliation finished",
		"groups", summary.GroupsFound,
		"processed", summary.GroupsProcessed,
		"skipped", summary.GroupsSkipped,
		"records_deleted", summary.RecordsDeleted,
		"legacy_folded", summary.LegacyFolded,
	)
	return summary, nil
}

// reconcileGroup merges one key inside its own transaction. It reports false
// when the group no longer needs migration.
func (m *MigrationServiceImpl) reconcileGroup(ctx context.Context, key attendance.RecordKey) (migration.GroupMerge, bool, error) {
	var merge migration.GroupMerge
	merged := false

	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := m.AttendanceRepository.LockKey(ctx, key); err != nil {
			return fmt.Errorf("failed to lock key: %w", err)
		}

		records, err := m.AttendanceRepository.ListByKey(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}
		if len(records) == 0 || (len(records) == 1 && !records[0].NeedsLegacyFold()) {
			return nil
		}

		merge, err = migration.MergeGroup(records)
		if err != nil {
			return err
		}
		if _, err := m.AttendanceRepository.Update(ctx, merge.Record); err != nil {
			return fmt.Errorf("failed to save merged record: %w", err)
		}
		if len(merge.DuplicateIDs) > 0 {
			deleted, err := m.AttendanceRepository.DeleteByIDs(ctx, merge.DuplicateIDs)
			if err != nil {
				return fmt.Errorf("failed to delete duplicates: %w", err)
			}
			if deleted != int64(len(merge.DuplicateIDs)) {
				return fmt.Errorf("deleted %d of %d duplicates", deleted, len(merge.DuplicateIDs))
			}
		}
		merged = true
		return nil
	})
	if err != nil {
		return migration.GroupMerge{}, false, err
	}
	return merge, merged, nil
}

// MigrateAssignees implements migration.MigrationService.
func (m *MigrationServiceImpl) MigrateAssignees(ctx context.Context) (summary migration.AssigneeSummary, err error) {
	start := time.Now()
	defer func() {
		summary.Duration = time.Since(start).Round(time.Millisecond).String()
		metrics.MigrationDuration.WithLabelValues("assignees", metrics.Outcome(err)).Observe(time.Since(start).Seconds())
	}()

	lockCtx, release, err := m.acquire(ctx, assigneeLockName)
	if err != nil {
		return summary, err
	}
	defer release(ctx)
	ctx = lockCtx

	updated, err := m.ProjectRepository.MigrateAssignedEngineers(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to migrate assigned engineers: %w", err)
	}
	summary.ProjectsUpdated = updated

	slog.Info("Assignee migration finished", "projects_updated", updated)
	return summary, nil
}
