package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	// GetByIDs returns the employees that exist; unknown ids are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]Employee, error)
}
