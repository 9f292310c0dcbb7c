package attendance

import "errors"

// Attendance domain errors
var (
	// Validation
	ErrPaidLeaveWithProject = errors.New("paid leave cannot be attached to a project")

	// Authorization
	ErrActorRequired     = errors.New("authenticated actor is required")
	ErrUserNotAssigned   = errors.New("user is not assigned to this project")
	ErrDriverNotAssigned = errors.New("only drivers assigned to this project can mark attendance")

	// Not found
	ErrAttendanceNotFound = errors.New("attendance record not found")

	// Consistency
	ErrDuplicateAttendance = errors.New("attendance record for this user, date and type already exists")
)
