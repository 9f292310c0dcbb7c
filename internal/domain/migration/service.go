package migration

import "context"

type MigrationService interface {
	// Reconcile merges every (user, date, type) group that holds duplicates
	// or legacy single-project data. Safe to re-run.
	Reconcile(ctx context.Context) (ReconcileSummary, error)

	// MigrateAssignees moves the deprecated single assigned engineer into the
	// assigned engineers set on every project.
	MigrateAssignees(ctx context.Context) (AssigneeSummary, error)
}
