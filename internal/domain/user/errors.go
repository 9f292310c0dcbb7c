package user

import "errors"

var (
	ErrAdminAccessRequired     = errors.New("admin access required")
	ErrManagerAccessRequired   = errors.New("admin or engineer access required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
