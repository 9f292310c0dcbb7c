package employee

import (
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/domain/user"
)

type Employee struct {
	ID        string
	FullName  string
	Role      user.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
