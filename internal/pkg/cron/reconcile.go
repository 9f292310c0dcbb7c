package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/domain/migration"
)

// ReconciliationJobs keeps attendance free of duplicate and legacy records
// between explicit migration runs.
type ReconciliationJobs struct {
	migrationSvc migration.MigrationService
	interval     time.Duration
	timeout      time.Duration
}

func NewReconciliationJobs(migrationSvc migration.MigrationService, interval, timeout time.Duration) *ReconciliationJobs {
	return &ReconciliationJobs{
		migrationSvc: migrationSvc,
		interval:     interval,
		timeout:      timeout,
	}
}

func (j *ReconciliationJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     "reconcile_attendance",
		Interval: j.interval,
		Timeout:  j.timeout,
		Fn:       j.ReconcileAttendance,
	})
}

func (j *ReconciliationJobs) ReconcileAttendance(ctx context.Context) error {
	summary, err := j.migrationSvc.Reconcile(ctx)
	if err != nil {
		if errors.Is(err, migration.ErrMigrationInProgress) {
			return fmt.Errorf("%w: %v", ErrSkipped, err)
		}
		return fmt.Errorf("failed to reconcile attendance: %w", err)
	}

	if summary.GroupsProcessed > 0 {
		slog.Info("Cron: Attendance reconciled",
			"groups_processed", summary.GroupsProcessed,
			"records_deleted", summary.RecordsDeleted,
			"legacy_folded", summary.LegacyFolded)
	}
	return nil
}
