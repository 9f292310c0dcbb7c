package user

type Permission string

const (
	// Attendance
	PermissionAttendanceMark    Permission = "attendance.mark"
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceViewDay Permission = "attendance.view_project_day"
	PermissionAttendanceManage  Permission = "attendance.manage"
	PermissionAttendanceDelete  Permission = "attendance.delete"

	// Reports
	PermissionReportsView Permission = "reports.view"

	// Maintenance
	PermissionMigrationRun Permission = "migration.run"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceMark,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewDay,
		PermissionAttendanceManage,
		PermissionAttendanceDelete,
		PermissionReportsView,
		PermissionMigrationRun,
	},
	RoleEngineer: {
		PermissionAttendanceMark,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewDay,
		PermissionAttendanceManage,
		PermissionReportsView,
	},
	RoleDriver: {
		// Project membership is checked by the attendance service
		PermissionAttendanceMark,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewDay,
	},
	RoleWorker: {
		PermissionAttendanceViewOwn,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
