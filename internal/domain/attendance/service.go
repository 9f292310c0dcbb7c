package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// MarkAttendance is the driver self-service path. The actor must be an
	// assigned driver of the project for project attendance.
	MarkAttendance(ctx context.Context, req MarkAttendanceRequest) (AttendanceResponse, error)

	// CreateOrUpdateAttendance is the administrative path; it may also set overtime.
	CreateOrUpdateAttendance(ctx context.Context, req UpsertAttendanceRequest) (AttendanceResponse, error)

	// RemoveProjectEntry drops one project from a user's day.
	RemoveProjectEntry(ctx context.Context, req RemoveProjectEntryRequest) (AttendanceResponse, error)

	// DeleteAttendance removes a whole record.
	DeleteAttendance(ctx context.Context, id string) error

	GetUserAttendance(ctx context.Context, filter UserAttendanceFilter) ([]AttendanceResponse, error)

	// GetProjectDay lists every assignee of a project with their entry for the day.
	GetProjectDay(ctx context.Context, req ProjectDayRequest) (ProjectDayResponse, error)
}
