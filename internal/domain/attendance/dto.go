package attendance

import (
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/pkg/validator"
)

// ========================================
// WRITE DTOs
// ========================================

// MarkAttendanceRequest is the self-service path used by drivers on site.
type MarkAttendanceRequest struct {
	ActorID      string     `json:"-"`
	UserID       string     `json:"user_id"`
	Date         *string    `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	Type         string     `json:"type"`
	ProjectID    *string    `json:"project_id,omitempty"`
	Present      *bool      `json:"present"`
	WorkingHours HoursInput `json:"working_hours"`
	IsPaidLeave  bool       `json:"is_paid_leave"`
}

// UpsertAttendanceRequest is the administrative create-or-update path.
type UpsertAttendanceRequest struct {
	ActorID       string     `json:"-"`
	UserID        string     `json:"user_id"`
	Date          string     `json:"date"` // YYYY-MM-DD
	Type          string     `json:"type"`
	ProjectID     *string    `json:"project_id,omitempty"`
	Present       *bool      `json:"present"`
	WorkingHours  HoursInput `json:"working_hours"`
	OvertimeHours HoursInput `json:"overtime_hours"`
	IsPaidLeave   bool       `json:"is_paid_leave"`
}

// WriteCommand is the normalised form of both write requests.
type WriteCommand struct {
	ActorID       string
	Key           RecordKey
	ProjectID     string
	Present       bool
	IsPaidLeave   bool
	WorkingHours  float64
	OvertimeHours *float64
	// RequireDriver enforces that the actor drives for the project.
	RequireDriver bool

	workingInput  HoursInput
	overtimeInput HoursInput
}

// NormalizeHours converts the raw hour inputs. It runs after the project
// checks so directory and assignment failures take precedence.
func (c *WriteCommand) NormalizeHours() error {
	hours, err := NormalizeWorkingHours(c.workingInput)
	if err != nil {
		return err
	}
	c.WorkingHours = hours

	if c.overtimeInput.IsSet() {
		overtime, err := NormalizeOvertimeHours(c.overtimeInput)
		if err != nil {
			return err
		}
		c.OvertimeHours = &overtime
	}
	return nil
}

// NeedsProject reports whether the write targets a project entry.
func (c WriteCommand) NeedsProject() bool {
	return c.Key.Type == TypeProject && !c.IsPaidLeave
}

// State is the mutually exclusive outcome a write resolves to.
type State string

const (
	StateAbsent         State = "absent"
	StatePaidLeave      State = "paid_leave"
	StatePresentNormal  State = "present_normal"
	StatePresentProject State = "present_project"
)

func (c WriteCommand) State() State {
	switch {
	case c.IsPaidLeave:
		return StatePaidLeave
	case !c.Present:
		return StateAbsent
	case c.Key.Type == TypeProject:
		return StatePresentProject
	default:
		return StatePresentNormal
	}
}

// writeIDs holds the canonical forms of the ids a write names.
type writeIDs struct {
	userID    string
	projectID string
}

// checkWriteInput runs the ordered preconditions shared by both write paths.
// The first two failures are returned as sentinels; the rest are collected.
func checkWriteInput(actorID, userID, attType string, present *bool, isPaidLeave bool, projectID *string) (writeIDs, error) {
	if isPaidLeave && AttendanceType(attType) == TypeProject {
		return writeIDs{}, ErrPaidLeaveWithProject
	}
	if validator.IsEmpty(actorID) {
		return writeIDs{}, ErrActorRequired
	}

	var ids writeIDs
	var errs validator.ValidationErrors
	if present == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "present",
			Message: "present must be a boolean",
		})
	}
	if !AttendanceType(attType).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: project, normal",
		})
	}
	if AttendanceType(attType) == TypeProject && !isPaidLeave {
		if projectID == nil || validator.IsEmpty(*projectID) {
			errs = append(errs, validator.ValidationError{
				Field:   "project_id",
				Message: "project_id is required for project attendance",
			})
		} else if id, ok := validator.CanonicalID(*projectID); ok {
			ids.projectID = id
		} else {
			errs = append(errs, validator.ValidationError{
				Field:   "project_id",
				Message: "project_id must be a valid UUID",
			})
		}
	}
	if validator.IsEmpty(userID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	} else if id, ok := validator.CanonicalID(userID); ok {
		ids.userID = id
	} else {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id must be a valid UUID",
		})
	}

	if len(errs) > 0 {
		return writeIDs{}, errs
	}
	return ids, nil
}

// Validate checks the request and returns its normalised command. now is
// used when no date is supplied.
func (r *MarkAttendanceRequest) Validate(now time.Time) (WriteCommand, error) {
	ids, err := checkWriteInput(r.ActorID, r.UserID, r.Type, r.Present, r.IsPaidLeave, r.ProjectID)
	if err != nil {
		return WriteCommand{}, err
	}

	day := validator.TruncateToDay(now)
	if r.Date != nil && *r.Date != "" {
		parsed, ok := validator.IsValidDate(*r.Date)
		if !ok {
			return WriteCommand{}, validator.Single("date", "date must be in YYYY-MM-DD format")
		}
		day = parsed
	}

	return WriteCommand{
		ActorID:       r.ActorID,
		Key:           RecordKey{UserID: ids.userID, Date: day, Type: AttendanceType(r.Type)},
		ProjectID:     ids.projectID,
		Present:       *r.Present,
		IsPaidLeave:   r.IsPaidLeave,
		RequireDriver: true,
		workingInput:  r.WorkingHours,
	}, nil
}

func (r *UpsertAttendanceRequest) Validate() (WriteCommand, error) {
	ids, err := checkWriteInput(r.ActorID, r.UserID, r.Type, r.Present, r.IsPaidLeave, r.ProjectID)
	if err != nil {
		return WriteCommand{}, err
	}

	day, ok := validator.IsValidDate(r.Date)
	if !ok {
		return WriteCommand{}, validator.Single("date", "date must be in YYYY-MM-DD format")
	}

	return WriteCommand{
		ActorID:       r.ActorID,
		Key:           RecordKey{UserID: ids.userID, Date: day, Type: AttendanceType(r.Type)},
		ProjectID:     ids.projectID,
		Present:       *r.Present,
		IsPaidLeave:   r.IsPaidLeave,
		workingInput:  r.WorkingHours,
		overtimeInput: r.OvertimeHours,
	}, nil
}

type RemoveProjectEntryRequest struct {
	UserID    string `json:"user_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	ProjectID string `json:"project_id"`
}

// Validate canonicalises the ids in place and returns the record key.
func (r *RemoveProjectEntryRequest) Validate() (RecordKey, error) {
	var errs validator.ValidationErrors

	userID, ok := validator.CanonicalID(r.UserID)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id must be a valid UUID"})
	}
	projectID, ok := validator.CanonicalID(r.ProjectID)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "project_id", Message: "project_id must be a valid UUID"})
	}
	day, ok := validator.IsValidDate(r.Date)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return RecordKey{}, errs
	}
	r.UserID, r.ProjectID = userID, projectID
	return RecordKey{UserID: userID, Date: day, Type: TypeProject}, nil
}

// ========================================
// READ DTOs
// ========================================

type UserAttendanceFilter struct {
	UserID    string  `json:"user_id"`
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Type      *string `json:"type,omitempty"`
}

// UserAttendanceQuery is the parsed repository form of UserAttendanceFilter.
type UserAttendanceQuery struct {
	UserID string
	From   *time.Time
	To     *time.Time // inclusive
	Type   *AttendanceType
}

func (f *UserAttendanceFilter) Validate() (UserAttendanceQuery, error) {
	var errs validator.ValidationErrors
	var q UserAttendanceQuery

	if userID, ok := validator.CanonicalID(f.UserID); ok {
		q.UserID = userID
	} else {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id must be a valid UUID"})
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if d, ok := validator.IsValidDate(*f.StartDate); ok {
			q.From = &d
		} else {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if d, ok := validator.IsValidDate(*f.EndDate); ok {
			q.To = &d
		} else {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
		}
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
	}

	if f.Type != nil && *f.Type != "" {
		t := AttendanceType(*f.Type)
		if !t.IsValid() {
			errs = append(errs, validator.ValidationError{Field: "type", Message: "type must be one of: project, normal"})
		} else {
			q.Type = &t
		}
	}

	if len(errs) > 0 {
		return UserAttendanceQuery{}, errs
	}
	return q, nil
}

type ProjectDayRequest struct {
	ProjectID string `json:"project_id"`
	Date      string `json:"date"` // YYYY-MM-DD
}

type ProjectEntryResponse struct {
	ProjectID    string  `json:"project_id"`
	WorkingHours float64 `json:"working_hours"`
	Present      bool    `json:"present"`
	MarkedBy     string  `json:"marked_by,omitempty"`
}

type AttendanceResponse struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"user_id"`
	UserName      *string                `json:"user_name,omitempty"`
	Date          string                 `json:"date"`
	Type          string                 `json:"type"`
	Present       bool                   `json:"present"`
	IsPaidLeave   bool                   `json:"is_paid_leave"`
	WorkingHours  float64                `json:"working_hours"`
	OvertimeHours float64                `json:"overtime_hours"`
	Projects      []ProjectEntryResponse `json:"projects"`
	// Project mirrors projects[0] for clients that predate multi-project days.
	Project   *string `json:"project,omitempty"`
	MarkedBy  string  `json:"marked_by"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`

	// Created is set when the write inserted a new record.
	Created bool `json:"-"`
}

type ProjectDayWorker struct {
	UserID       string  `json:"user_id"`
	FullName     string  `json:"full_name"`
	Assignment   string  `json:"assignment"` // worker, driver
	Marked       bool    `json:"marked"`
	Present      bool    `json:"present"`
	WorkingHours float64 `json:"working_hours"`
	MarkedBy     *string `json:"marked_by,omitempty"`
}

type ProjectDayResponse struct {
	ProjectID    string             `json:"project_id"`
	ProjectName  string             `json:"project_name"`
	Date         string             `json:"date"`
	PresentCount int                `json:"present_count"`
	Workers      []ProjectDayWorker `json:"workers"`
}
