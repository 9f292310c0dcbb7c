package attendance

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/site-attendance/internal/domain/project"
	"github.com/google/uuid"
)

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeAttendanceRepo is an in-memory store that enforces the unique key the
// way the database index does.
type fakeAttendanceRepo struct {
	records   map[string]attendance.Attendance
	clock     time.Time
	locked    []attendance.RecordKey
	createErr error
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{
		records: make(map[string]attendance.Attendance),
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakeAttendanceRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func clone(a attendance.Attendance) attendance.Attendance {
	if a.Projects != nil {
		a.Projects = append([]attendance.ProjectEntry{}, a.Projects...)
	}
	return a
}

func sameKey(a attendance.Attendance, key attendance.RecordKey) bool {
	return a.UserID == key.UserID && a.Date.Equal(key.Date) && a.Type == key.Type
}

// seed stores a record bypassing the unique check, like rows written before the index existed.
func (r *fakeAttendanceRepo) seed(a attendance.Attendance) attendance.Attendance {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.tick()
	}
	a.UpdatedAt = a.CreatedAt
	r.records[a.ID] = clone(a)
	return a
}

func (r *fakeAttendanceRepo) byKey(key attendance.RecordKey) []attendance.Attendance {
	var out []attendance.Attendance
	for _, a := range r.records {
		if sameKey(a, key) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *fakeAttendanceRepo) LockKey(ctx context.Context, key attendance.RecordKey) error {
	r.locked = append(r.locked, key)
	return nil
}

func (r *fakeAttendanceRepo) GetByKey(ctx context.Context, key attendance.RecordKey) (*attendance.Attendance, error) {
	found := r.byKey(key)
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (r *fakeAttendanceRepo) ListByKey(ctx context.Context, key attendance.RecordKey) ([]attendance.Attendance, error) {
	return r.byKey(key), nil
}

func (r *fakeAttendanceRepo) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	a, ok := r.records[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return clone(a), nil
}

func (r *fakeAttendanceRepo) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	if r.createErr != nil {
		return attendance.Attendance{}, r.createErr
	}
	if len(r.byKey(a.Key())) > 0 {
		return attendance.Attendance{}, attendance.ErrDuplicateAttendance
	}
	a.ID = uuid.NewString()
	a.CreatedAt = r.tick()
	a.UpdatedAt = a.CreatedAt
	r.records[a.ID] = clone(a)
	return a, nil
}

func (r *fakeAttendanceRepo) Update(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	if _, ok := r.records[a.ID]; !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	a.UpdatedAt = r.tick()
	a.LegacyProjectID = a.PrimaryProjectID()
	r.records[a.ID] = clone(a)
	return a, nil
}

func (r *fakeAttendanceRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.records[id]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *fakeAttendanceRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := r.records[id]; ok {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeAttendanceRepo) ListByUser(ctx context.Context, q attendance.UserAttendanceQuery) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, a := range r.records {
		if a.UserID != q.UserID {
			continue
		}
		if q.From != nil && a.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && a.Date.After(*q.To) {
			continue
		}
		if q.Type != nil && a.Type != *q.Type {
			continue
		}
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *fakeAttendanceRepo) ListProjectDay(ctx context.Context, projectID string, date time.Time) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, a := range r.records {
		if a.Type != attendance.TypeProject || !a.Date.Equal(date) {
			continue
		}
		_, inEntries := a.FindEntry(projectID)
		legacy := a.LegacyProjectID != nil && *a.LegacyProjectID == projectID
		if inEntries || legacy {
			out = append(out, clone(a))
		}
	}
	return out, nil
}

func (r *fakeAttendanceRepo) ListKeysNeedingMigration(ctx context.Context) ([]attendance.RecordKey, error) {
	counts := make(map[attendance.RecordKey]int)
	legacy := make(map[attendance.RecordKey]bool)
	for _, a := range r.records {
		k := a.Key()
		counts[k]++
		if a.NeedsLegacyFold() {
			legacy[k] = true
		}
	}
	var keys []attendance.RecordKey
	for k, n := range counts {
		if n > 1 || legacy[k] {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (r *fakeAttendanceRepo) EnsureUniqueKeyIndex(ctx context.Context) error {
	return nil
}

type fakeProjectRepo struct {
	projects map[string]project.Project
}

// GetByID matches ids case-insensitively, as a uuid column comparison does.
func (r *fakeProjectRepo) GetByID(ctx context.Context, id string) (project.Project, error) {
	p, ok := r.projects[strings.ToLower(id)]
	if !ok {
		return project.Project{}, project.ErrProjectNotFound
	}
	return p, nil
}

func (r *fakeProjectRepo) List(ctx context.Context) ([]project.Project, error) {
	var out []project.Project
	for _, p := range r.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeProjectRepo) MigrateAssignedEngineers(ctx context.Context) (int64, error) {
	return 0, nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *fakeEmployeeRepo) GetByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range ids {
		if e, ok := r.employees[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}
