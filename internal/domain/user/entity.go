package user

type Role string

const (
	RoleAdmin    Role = "admin"    // Office administration - full access
	RoleEngineer Role = "engineer" // Site engineer - manages project attendance
	RoleDriver   Role = "driver"   // Drives crews to site, marks their attendance
	RoleWorker   Role = "worker"   // Site worker
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEngineer, RoleDriver, RoleWorker:
		return true
	}
	return false
}

// IsManager checks if the role may manage other users' attendance
func (r Role) IsManager() bool {
	return r == RoleAdmin || r == RoleEngineer
}
