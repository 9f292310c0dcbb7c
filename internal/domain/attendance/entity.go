package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type AttendanceType string

const (
	TypeNormal  AttendanceType = "normal"
	TypeProject AttendanceType = "project"
)

func (t AttendanceType) IsValid() bool {
	return t == TypeNormal || t == TypeProject
}

const (
	MaxWorkingHours = 24.0
	// DailyOvertimeThreshold is the number of worked hours in a day after
	// which the remainder counts as overtime.
	DailyOvertimeThreshold = 10.0
)

// ProjectEntry is one project's attendance fact inside a project-type record.
// Stored as an element of the JSONB projects column.
type ProjectEntry struct {
	ProjectID    string  `json:"project_id"`
	WorkingHours float64 `json:"working_hours"`
	Present      bool    `json:"present"`
	MarkedBy     string  `json:"marked_by,omitempty"`
}

// RecordKey is the natural key of an attendance record.
type RecordKey struct {
	UserID string
	Date   time.Time
	Type   AttendanceType
}

// LockName identifies the key for advisory locking.
func (k RecordKey) LockName() string {
	return "attendance:" + k.UserID + ":" + k.Date.Format("2006-01-02") + ":" + string(k.Type)
}

type Attendance struct {
	ID            string
	UserID        string
	Date          time.Time
	Type          AttendanceType
	Present       bool
	IsPaidLeave   bool
	WorkingHours  float64
	OvertimeHours float64
	Projects      []ProjectEntry
	// LegacyProjectID is the deprecated single-project column as read from
	// storage. The repository rewrites it from Projects on every save.
	LegacyProjectID *string
	MarkedBy        string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// DTO
	UserName *string
}

func (a Attendance) Key() RecordKey {
	return RecordKey{UserID: a.UserID, Date: a.Date, Type: a.Type}
}

// PrimaryProjectID is the value projected into the legacy project column.
func (a Attendance) PrimaryProjectID() *string {
	if len(a.Projects) == 0 {
		return nil
	}
	id := a.Projects[0].ProjectID
	return &id
}

// NeedsLegacyFold reports a project record that still only carries the
// deprecated single-project column.
func (a Attendance) NeedsLegacyFold() bool {
	return a.Type == TypeProject && len(a.Projects) == 0 && a.LegacyProjectID != nil && *a.LegacyProjectID != ""
}

// LegacyEntry converts the deprecated column into an entry. Presence
// defaults to the record's presence and hours to the record's hours.
func (a Attendance) LegacyEntry() (ProjectEntry, bool) {
	if a.LegacyProjectID == nil || *a.LegacyProjectID == "" {
		return ProjectEntry{}, false
	}
	return ProjectEntry{
		ProjectID:    *a.LegacyProjectID,
		WorkingHours: a.WorkingHours,
		Present:      a.Present,
		MarkedBy:     a.MarkedBy,
	}, true
}

// FoldLegacyProject moves the legacy column into Projects when needed.
func (a *Attendance) FoldLegacyProject() bool {
	if !a.NeedsLegacyFold() {
		return false
	}
	entry, _ := a.LegacyEntry()
	a.Projects = []ProjectEntry{entry}
	return true
}

func (a Attendance) FindEntry(projectID string) (int, bool) {
	for i, e := range a.Projects {
		if e.ProjectID == projectID {
			return i, true
		}
	}
	return -1, false
}

// UpsertEntry overwrites the entry for the same project or appends it.
func (a *Attendance) UpsertEntry(entry ProjectEntry) {
	if i, ok := a.FindEntry(entry.ProjectID); ok {
		a.Projects[i] = entry
		return
	}
	a.Projects = append(a.Projects, entry)
}

// RemoveEntry drops the entry for projectID, reporting whether one existed.
func (a *Attendance) RemoveEntry(projectID string) bool {
	i, ok := a.FindEntry(projectID)
	if !ok {
		return false
	}
	a.Projects = append(a.Projects[:i], a.Projects[i+1:]...)
	return true
}

// Recompute maintains the derived fields and must run before every save.
// Paid leave clears everything; project records derive hours, overtime and
// presence from their entries; normal records keep their own hours and
// never carry entries.
func (a *Attendance) Recompute() {
	if a.IsPaidLeave {
		a.Projects = []ProjectEntry{}
		a.Present = false
		a.WorkingHours = 0
		a.OvertimeHours = 0
		return
	}

	if a.Type != TypeProject {
		a.Projects = []ProjectEntry{}
		a.WorkingHours = RoundHours(a.WorkingHours)
		a.OvertimeHours = RoundHours(a.OvertimeHours)
		return
	}

	if a.Projects == nil {
		a.Projects = []ProjectEntry{}
	}
	total := decimal.Zero
	present := false
	for _, e := range a.Projects {
		total = total.Add(decimal.NewFromFloat(e.WorkingHours))
		present = present || e.Present
	}
	a.WorkingHours, _ = total.Round(2).Float64()
	a.Present = present
	a.OvertimeHours = DeriveOvertime(a.WorkingHours)
}

// ResetDay clears presence and hours, used when the last project entry is removed.
func (a *Attendance) ResetDay() {
	a.Projects = []ProjectEntry{}
	a.Present = false
	a.WorkingHours = 0
	a.OvertimeHours = 0
}

// DeriveOvertime applies the daily overtime threshold.
func DeriveOvertime(workingHours float64) float64 {
	over := decimal.NewFromFloat(workingHours).Sub(decimal.NewFromFloat(DailyOvertimeThreshold))
	if over.IsNegative() {
		return 0
	}
	v, _ := over.Round(2).Float64()
	return v
}

func RoundHours(v float64) float64 {
	r, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return r
}
