package project

import "context"

// ProjectRepository is the project directory. Attendance only reads it; the
// assignee migration is the single writer.
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (Project, error)

	// List returns every project ordered by name.
	List(ctx context.Context) ([]Project, error)

	// MigrateAssignedEngineers folds the deprecated assigned_engineer column
	// into assigned_engineers and clears it. Returns the number of projects changed.
	MigrateAssignedEngineers(ctx context.Context) (int64, error)
}
