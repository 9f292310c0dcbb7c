package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/site-attendance/internal/domain/project"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/database"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/metrics"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	project.ProjectRepository
	employee.EmployeeRepository
	now func() time.Time
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	projectRepo project.ProjectRepository,
	employeeRepo employee.EmployeeRepository,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		ProjectRepository:    projectRepo,
		EmployeeRepository:   employeeRepo,
		now:                  time.Now,
	}
}

// MarkAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MarkAttendance(ctx context.Context, req attendance.MarkAttendanceRequest) (attendance.AttendanceResponse, error) {
	cmd, err := req.Validate(a.now().UTC())
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return a.write(ctx, "mark", cmd)
}

// CreateOrUpdateAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CreateOrUpdateAttendance(ctx context.Context, req attendance.UpsertAttendanceRequest) (attendance.AttendanceResponse, error) {
	cmd, err := req.Validate()
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return a.write(ctx, "upsert", cmd)
}

func (a *AttendanceServiceImpl) write(ctx context.Context, operation string, cmd attendance.WriteCommand) (resp attendance.AttendanceResponse, err error) {
	defer func() {
		metrics.AttendanceWrites.WithLabelValues(operation, string(cmd.State()), metrics.Outcome(err)).Inc()
	}()

	if cmd.NeedsProject() {
		if err := a.checkProjectAccess(ctx, cmd); err != nil {
			return attendance.AttendanceResponse{}, err
		}
	}
	if err := cmd.NormalizeHours(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var saved attendance.Attendance
	created := false
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := a.AttendanceRepository.LockKey(ctx, cmd.Key); err != nil {
			return fmt.Errorf("failed to lock attendance key: %w", err)
		}

		existing, err := a.AttendanceRepository.GetByKey(ctx, cmd.Key)
		if err != nil {
			return fmt.Errorf("failed to get attendance by key: %w", err)
		}

		if existing == nil {
			record := attendance.Attendance{
				UserID:   cmd.Key.UserID,
				Date:     cmd.Key.Date,
				Type:     cmd.Key.Type,
				Projects: []attendance.ProjectEntry{},
			}
			if err := applyCommand(&record, cmd); err != nil {
				return err
			}
			saved, err = a.AttendanceRepository.Create(ctx, record)
			if err != nil {
				return fmt.Errorf("failed to create attendance: %w", err)
			}
			created = true
			return nil
		}

		existing.FoldLegacyProject()
		if err := applyCommand(existing, cmd); err != nil {
			return err
		}
		saved, err = a.AttendanceRepository.Update(ctx, *existing)
		if err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("Attendance written",
		"operation", operation,
		"attendance_id", saved.ID,
		"user_id", saved.UserID,
		"date", saved.Date.Format(validator.DateLayout),
		"type", saved.Type,
		"state", cmd.State(),
		"created", created,
		"actor_id", cmd.ActorID,
	)
	resp = mapAttendanceToResponse(saved)
	resp.Created = created
	return resp, nil
}

func (a *AttendanceServiceImpl) checkProjectAccess(ctx context.Context, cmd attendance.WriteCommand) error {
	proj, err := a.ProjectRepository.GetByID(ctx, cmd.ProjectID)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			return project.ErrProjectNotFound
		}
		return fmt.Errorf("failed to get project: %w", err)
	}
	if !proj.IsAssigned(cmd.Key.UserID) {
		return attendance.ErrUserNotAssigned
	}
	if cmd.RequireDriver && !proj.HasDriver(cmd.ActorID) {
		return attendance.ErrDriverNotAssigned
	}
	return nil
}

// applyCommand moves a record into the state requested by cmd and refreshes
// its derived fields.
func applyCommand(a *attendance.Attendance, cmd attendance.WriteCommand) error {
	a.MarkedBy = cmd.ActorID

	switch cmd.State() {
	case attendance.StatePaidLeave:
		a.IsPaidLeave = true
	case attendance.StateAbsent:
		a.IsPaidLeave = false
		if a.Type == attendance.TypeProject {
			a.UpsertEntry(attendance.ProjectEntry{
				ProjectID: cmd.ProjectID,
				Present:   false,
				MarkedBy:  cmd.ActorID,
			})
		} else {
			a.Present = false
			a.WorkingHours = 0
			a.OvertimeHours = 0
		}
	case attendance.StatePresentProject:
		a.IsPaidLeave = false
		a.UpsertEntry(attendance.ProjectEntry{
			ProjectID:    cmd.ProjectID,
			WorkingHours: cmd.WorkingHours,
			Present:      true,
			MarkedBy:     cmd.ActorID,
		})
	case attendance.StatePresentNormal:
		a.IsPaidLeave = false
		a.Present = true
		a.WorkingHours = cmd.WorkingHours
		if cmd.OvertimeHours != nil {
			a.OvertimeHours = *cmd.OvertimeHours
		} else {
			a.OvertimeHours = attendance.DeriveOvertime(cmd.WorkingHours)
		}
	}

	a.Recompute()

	if a.WorkingHours > attendance.MaxWorkingHours {
		return validator.Single("working_hours", "total working hours for the day must not exceed 24")
	}
	return nil
}

// RemoveProjectEntry implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RemoveProjectEntry(ctx context.Context, req attendance.RemoveProjectEntryRequest) (attendance.AttendanceResponse, error) {
	key, err := req.Validate()
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var result attendance.Attendance
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := a.AttendanceRepository.LockKey(ctx, key); err != nil {
			return fmt.Errorf("failed to lock attendance key: %w", err)
		}

		existing, err := a.AttendanceRepository.GetByKey(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to get attendance by key: %w", err)
		}
		if existing == nil {
			return attendance.ErrAttendanceNotFound
		}

		folded := existing.FoldLegacyProject()
		removed := existing.RemoveEntry(req.ProjectID)
		if !removed && !folded {
			result = *existing
			return nil
		}

		if len(existing.Projects) == 0 {
			existing.ResetDay()
		}
		existing.Recompute()

		result, err = a.AttendanceRepository.Update(ctx, *existing)
		if err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		if removed {
			slog.Info("Project entry removed", "attendance_id", result.ID, "project_id", req.ProjectID, "remaining", len(result.Projects))
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return mapAttendanceToResponse(result), nil
}

// DeleteAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DeleteAttendance(ctx context.Context, id string) error {
	if !validator.IsValidID(id) {
		return attendance.ErrAttendanceNotFound
	}

	if err := a.AttendanceRepository.Delete(ctx, id); err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.ErrAttendanceNotFound
		}
		return fmt.Errorf("failed to delete attendance: %w", err)
	}

	slog.Info("Attendance deleted", "attendance_id", id)
	return nil
}

// GetUserAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetUserAttendance(ctx context.Context, filter attendance.UserAttendanceFilter) ([]attendance.AttendanceResponse, error) {
	query, err := filter.Validate()
	if err != nil {
		return nil, err
	}

	records, err := a.AttendanceRepository.ListByUser(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list user attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, record := range records {
		record.FoldLegacyProject()
		responses = append(responses, mapAttendanceToResponse(record))
	}
	return responses, nil
}

// GetProjectDay implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetProjectDay(ctx context.Context, req attendance.ProjectDayRequest) (attendance.ProjectDayResponse, error) {
	var errs validator.ValidationErrors
	projectID, ok := validator.CanonicalID(req.ProjectID)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "project_id", Message: "project_id must be a valid UUID"})
	}
	date, ok := validator.IsValidDate(req.Date)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	if len(errs) > 0 {
		return attendance.ProjectDayResponse{}, errs
	}

	proj, err := a.ProjectRepository.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			return attendance.ProjectDayResponse{}, project.ErrProjectNotFound
		}
		return attendance.ProjectDayResponse{}, fmt.Errorf("failed to get project: %w", err)
	}

	records, err := a.AttendanceRepository.ListProjectDay(ctx, proj.ID, date)
	if err != nil {
		return attendance.ProjectDayResponse{}, fmt.Errorf("failed to list project day: %w", err)
	}

	entries := make(map[string]attendance.ProjectEntry, len(records))
	for _, record := range records {
		record.FoldLegacyProject()
		if i, found := record.FindEntry(proj.ID); found {
			entries[record.UserID] = record.Projects[i]
		}
	}

	type assignee struct {
		userID     string
		assignment string
	}
	var assignees []assignee
	seen := make(map[string]bool)
	for _, id := range proj.AssignedWorkers {
		if !seen[id] {
			seen[id] = true
			assignees = append(assignees, assignee{id, "worker"})
		}
	}
	for _, id := range proj.AssignedDrivers {
		if !seen[id] {
			seen[id] = true
			assignees = append(assignees, assignee{id, "driver"})
		}
	}

	ids := make([]string, 0, len(assignees))
	for _, as := range assignees {
		ids = append(ids, as.userID)
	}
	employees, err := a.EmployeeRepository.GetByIDs(ctx, ids)
	if err != nil {
		return attendance.ProjectDayResponse{}, fmt.Errorf("failed to get assigned employees: %w", err)
	}
	names := make(map[string]string, len(employees))
	for _, emp := range employees {
		names[emp.ID] = emp.FullName
	}

	resp := attendance.ProjectDayResponse{
		ProjectID:   proj.ID,
		ProjectName: proj.Name,
		Date:        date.Format(validator.DateLayout),
		Workers:     make([]attendance.ProjectDayWorker, 0, len(assignees)),
	}
	for _, as := range assignees {
		worker := attendance.ProjectDayWorker{
			UserID:     as.userID,
			FullName:   names[as.userID],
			Assignment: as.assignment,
		}
		if entry, found := entries[as.userID]; found {
			worker.Marked = true
			worker.Present = entry.Present
			worker.WorkingHours = entry.WorkingHours
			if entry.MarkedBy != "" {
				markedBy := entry.MarkedBy
				worker.MarkedBy = &markedBy
			}
			if entry.Present {
				resp.PresentCount++
			}
		}
		resp.Workers = append(resp.Workers, worker)
	}

	return resp, nil
}

func mapAttendanceToResponse(att attendance.Attendance) attendance.AttendanceResponse {
	projects := make([]attendance.ProjectEntryResponse, 0, len(att.Projects))
	for _, e := range att.Projects {
		projects = append(projects, attendance.ProjectEntryResponse{
			ProjectID:    e.ProjectID,
			WorkingHours: e.WorkingHours,
			Present:      e.Present,
			MarkedBy:     e.MarkedBy,
		})
	}

	return attendance.AttendanceResponse{
		ID:            att.ID,
		UserID:        att.UserID,
		UserName:      att.UserName,
		Date:          att.Date.Format(validator.DateLayout),
		Type:          string(att.Type),
		Present:       att.Present,
		IsPaidLeave:   att.IsPaidLeave,
		WorkingHours:  att.WorkingHours,
		OvertimeHours: att.OvertimeHours,
		Projects:      projects,
		Project:       att.PrimaryProjectID(),
		MarkedBy:      att.MarkedBy,
		CreatedAt:     att.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     att.UpdatedAt.Format(time.RFC3339),
	}
}
