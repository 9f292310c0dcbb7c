package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/site-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/site-attendance/internal/domain/migration"
	"github.com/cmlabs-hris/site-attendance/internal/domain/project"
	"github.com/cmlabs-hris/site-attendance/internal/domain/report"
	"github.com/cmlabs-hris/site-attendance/internal/domain/user"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Validation
	case errors.Is(err, attendance.ErrPaidLeaveWithProject):
		ValidationError(w, map[string]string{"is_paid_leave": err.Error()})

	// Authentication
	case errors.Is(err, attendance.ErrActorRequired):
		Unauthorized(w, "Authenticated user required")

	// Authorization
	case errors.Is(err, attendance.ErrUserNotAssigned),
		errors.Is(err, attendance.ErrDriverNotAssigned),
		errors.Is(err, user.ErrAdminAccessRequired),
		errors.Is(err, user.ErrManagerAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Not found
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, project.ErrProjectNotFound):
		NotFound(w, "Project not found")

	// Consistency
	case errors.Is(err, attendance.ErrDuplicateAttendance):
		Conflict(w, "Attendance record already exists")
	case errors.Is(err, migration.ErrMigrationInProgress):
		Conflict(w, "Another migration run is in progress")

	case errors.Is(err, report.ErrReportTimeout):
		ServiceUnavailable(w, "Report took too long to generate")

	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
