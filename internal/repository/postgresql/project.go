package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/site-attendance/internal/domain/project"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type projectRepositoryImpl struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) project.ProjectRepository {
	return &projectRepositoryImpl{db: db}
}

const projectColumns = `
	id, name,
	assigned_workers::text[], assigned_drivers::text[], assigned_engineers::text[],
	created_at, updated_at`

func scanProject(row pgx.Row) (project.Project, error) {
	var p project.Project
	err := row.Scan(
		&p.ID, &p.Name,
		&p.AssignedWorkers, &p.AssignedDrivers, &p.AssignedEngineers,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// GetByID implements project.ProjectRepository.
func (r *projectRepositoryImpl) GetByID(ctx context.Context, id string) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrProjectNotFound
		}
		return project.Project{}, fmt.Errorf("failed to get project with id %s: %w", id, err)
	}
	return p, nil
}

// List implements project.ProjectRepository.
func (r *projectRepositoryImpl) List(ctx context.Context) ([]project.Project, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// MigrateAssignedEngineers implements project.ProjectRepository.
func (r *projectRepositoryImpl) MigrateAssignedEngineers(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE projects SET
			assigned_engineers = CASE
				WHEN assigned_engineer = ANY(assigned_engineers) THEN assigned_engineers
				ELSE array_append(assigned_engineers, assigned_engineer)
			END,
			assigned_engineer = NULL,
			updated_at = NOW()
		WHERE assigned_engineer IS NOT NULL
	`

	commandTag, err := q.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to migrate assigned engineers: %w", err)
	}
	return commandTag.RowsAffected(), nil
}
