package project

import "time"

// Project is the read model of the project directory as seen by attendance.
type Project struct {
	ID                string
	Name              string
	AssignedWorkers   []string
	AssignedDrivers   []string
	AssignedEngineers []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsAssigned reports whether userID works on or drives for the project.
func (p Project) IsAssigned(userID string) bool {
	return contains(p.AssignedWorkers, userID) || contains(p.AssignedDrivers, userID)
}

func (p Project) HasDriver(userID string) bool {
	return contains(p.AssignedDrivers, userID)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
