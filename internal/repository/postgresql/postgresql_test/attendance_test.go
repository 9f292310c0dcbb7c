package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func TestAttendanceRepository_CreateAndGetByKey(t *testing.T) {
	setup := setupDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)

	workerID, err := setup.CreateEmployee(ctx, "Budi", "worker")
	require.NoError(t, err)
	driverID, err := setup.CreateEmployee(ctx, "Andi", "driver")
	require.NoError(t, err)
	projectID, err := setup.CreateProject(ctx, "Bridge", []string{workerID}, []string{driverID}, nil)
	require.NoError(t, err)

	key := attendance.RecordKey{UserID: workerID, Date: testDay, Type: attendance.TypeProject}

	missing, err := repo.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, missing)

	rec := attendance.Attendance{UserID: workerID, Date: testDay, Type: attendance.TypeProject, MarkedBy: driverID}
	rec.UpsertEntry(attendance.ProjectEntry{ProjectID: projectID, WorkingHours: 8.5, Present: true, MarkedBy: driverID})
	rec.Recompute()

	created, err := repo.Create(ctx, rec)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := repo.GetByKey(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 8.5, got.WorkingHours)
	require.Len(t, got.Projects, 1)
	assert.Equal(t, projectID, got.Projects[0].ProjectID)
	require.NotNil(t, got.LegacyProjectID)
	assert.Equal(t, projectID, *got.LegacyProjectID)

	day, err := repo.ListProjectDay(ctx, projectID, testDay)
	require.NoError(t, err)
	assert.Len(t, day, 1)
}

func TestAttendanceRepository_UniqueKey(t *testing.T) {
	setup := setupDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)

	require.NoError(t, repo.EnsureUniqueKeyIndex(ctx))
	t.Cleanup(func() { _ = setup.DropUniqueKeyIndex(context.Background()) })

	workerID, err := setup.CreateEmployee(ctx, "Budi", "worker")
	require.NoError(t, err)

	rec := attendance.Attendance{UserID: workerID, Date: testDay, Type: attendance.TypeNormal, Present: true, WorkingHours: 8}
	_, err = repo.Create(ctx, rec)
	require.NoError(t, err)

	_, err = repo.Create(ctx, rec)
	assert.ErrorIs(t, err, attendance.ErrDuplicateAttendance)
}

func TestAttendanceRepository_LockKeyInsideTransaction(t *testing.T) {
	setup := setupDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)
	tx := postgresql.NewTransactor(setup.DB)

	key := attendance.RecordKey{UserID: "u1", Date: testDay, Type: attendance.TypeNormal}
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return repo.LockKey(ctx, key)
	})
	assert.NoError(t, err)
}

func TestAttendanceRepository_UpdateAndDelete(t *testing.T) {
	setup := setupDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)

	workerID, err := setup.CreateEmployee(ctx, "Budi", "worker")
	require.NoError(t, err)

	created, err := repo.Create(ctx, attendance.Attendance{
		UserID: workerID, Date: testDay, Type: attendance.TypeNormal, Present: true, WorkingHours: 8,
	})
	require.NoError(t, err)

	created.IsPaidLeave = true
	created.Recompute()
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.True(t, updated.IsPaidLeave)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.WorkingHours)
	require.NotNil(t, got.UserName)
	assert.Equal(t, "Budi", *got.UserName)

	typ := attendance.TypeNormal
	list, err := repo.ListByUser(ctx, attendance.UserAttendanceQuery{UserID: workerID, Type: &typ})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), attendance.ErrAttendanceNotFound)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestAttendanceRepository_ListKeysNeedingMigration(t *testing.T) {
	setup := setupDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)
	require.NoError(t, setup.DropUniqueKeyIndex(ctx))

	workerID, err := setup.CreateEmployee(ctx, "Budi", "worker")
	require.NoError(t, err)
	otherID, err := setup.CreateEmployee(ctx, "Sari", "worker")
	require.NoError(t, err)
	projectA, err := setup.CreateProject(ctx, "A", []string{workerID, otherID}, nil, nil)
	require.NoError(t, err)
	projectB, err := setup.CreateProject(ctx, "B", []string{workerID}, nil, nil)
	require.NoError(t, err)

	_, err = setup.InsertLegacyAttendance(ctx, workerID, testDay, projectA, 5, testDay.Add(time.Hour))
	require.NoError(t, err)
	_, err = setup.InsertLegacyAttendance(ctx, workerID, testDay, projectB, 3, testDay.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = setup.InsertLegacyAttendance(ctx, otherID, testDay, projectA, 4, testDay.Add(time.Hour))
	require.NoError(t, err)

	keys, err := repo.ListKeysNeedingMigration(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	records, err := repo.ListByKey(ctx, attendance.RecordKey{UserID: workerID, Date: testDay, Type: attendance.TypeProject})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].NeedsLegacyFold())
	assert.True(t, records[0].CreatedAt.Before(records[1].CreatedAt))

	n, err := repo.DeleteByIDs(ctx, []string{records[1].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
